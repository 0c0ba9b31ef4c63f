package form

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"rumba/internal/cache"
	"rumba/internal/core"
)

// MaxGroupItems caps a single group of a draft.
const MaxGroupItems = 50

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrUnknownGroup  = errors.New("unknown group")
	ErrGroupFull     = errors.New("group is full")
)

// Draft is the server-side state of one expense page visit: the top-level
// values typed so far and the four repeatable groups. Methods are safe for
// concurrent use; each call is applied atomically.
type Draft struct {
	mu     sync.Mutex
	id     string
	owner  string
	values Values

	promoters        *Group[core.Promoter]
	staff            *Group[core.StaffMember]
	tableCommissions *Group[core.TableCommission]
	adCampaigns      *Group[core.AdCampaign]
}

// NewDraft starts a draft owned by session owner. Promoters start with one
// empty entry; the other groups start empty.
func NewDraft(owner string, values Values) *Draft {
	if values == nil {
		values = make(Values)
	}
	return &Draft{
		id:               uuid.NewString(),
		owner:            owner,
		values:           values.Clone(),
		promoters:        NewGroup[core.Promoter](GroupPromoters, "Promoters Expenses", PromoterColumns, 1),
		staff:            NewGroup[core.StaffMember](GroupStaff, "Staff", StaffColumns, 0),
		tableCommissions: NewGroup[core.TableCommission](GroupTableCommissions, "Table Commissions", TableCommissionColumns, 0),
		adCampaigns:      NewGroup[core.AdCampaign](GroupAdCampaigns, "Ad Spend", AdCampaignColumns, 0),
	}
}

func (d *Draft) ID() string { return d.id }
func (d *Draft) Owner() string { return d.owner }

func (d *Draft) editor(group string) (Editor, error) {
	switch group {
	case GroupPromoters:
		return d.promoters, nil
	case GroupStaff:
		return d.staff, nil
	case GroupTableCommissions:
		return d.tableCommissions, nil
	case GroupAdCampaigns:
		return d.adCampaigns, nil
	}
	return nil, ErrUnknownGroup
}

// AddItem appends an empty item to group and returns its ID.
func (d *Draft) AddItem(group string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ed, err := d.editor(group)
	if err != nil {
		return "", err
	}
	if ed.Len() >= MaxGroupItems {
		return "", ErrGroupFull
	}
	return ed.AddItem(), nil
}

// RemoveItem deletes item id from group. Unknown IDs are a no-op.
func (d *Draft) RemoveItem(group, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ed, err := d.editor(group)
	if err != nil {
		return false, err
	}
	return ed.RemoveByID(id), nil
}

// UpdateItem sets one field of item id in group.
func (d *Draft) UpdateItem(group, id, field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ed, err := d.editor(group)
	if err != nil {
		return err
	}
	return ed.UpdateByID(id, field, value)
}

// GroupView is a consistent snapshot of a group for rendering.
type GroupView struct {
	Name    string
	Title   string
	Columns []Field
	Rows    []Row
	Totals  []ColumnTotal
	Full    bool
}

// View snapshots one group.
func (d *Draft) View(group string) (GroupView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ed, err := d.editor(group)
	if err != nil {
		return GroupView{}, err
	}
	return view(ed), nil
}

// Views snapshots every group in page order.
func (d *Draft) Views() []GroupView {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]GroupView, 0, len(GroupNames))
	for _, name := range GroupNames {
		ed, _ := d.editor(name)
		out = append(out, view(ed))
	}
	return out
}

func view(ed Editor) GroupView {
	return GroupView{
		Name:    ed.Name(),
		Title:   ed.Title(),
		Columns: ed.Columns(),
		Rows:    ed.Rows(),
		Totals:  ed.Totals(),
		Full:    ed.Len() >= MaxGroupItems,
	}
}

// SetValues replaces the remembered top-level values.
func (d *Draft) SetValues(v Values) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values = v.Clone()
}

// Values returns a copy of the remembered top-level values.
func (d *Draft) Values() Values {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values.Clone()
}

// Groups returns the current group contents.
func (d *Draft) Groups() GroupSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return GroupSet{
		Promoters:        d.promoters.Values(),
		Staff:            d.staff.Values(),
		TableCommissions: d.tableCommissions.Values(),
		AdCampaigns:      d.adCampaigns.Values(),
	}
}

// Sync copies item inputs posted with the whole form into the groups, so
// edits that never reached the per-field endpoint are not lost. lookup is
// usually url.Values.Has/Get on keys built by InputName.
func (d *Draft) Sync(lookup func(key string) (string, bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range GroupNames {
		ed, _ := d.editor(name)
		for _, row := range ed.Rows() {
			for _, cell := range row.Cells {
				if v, ok := lookup(InputName(name, row.ID, cell.Field.Name)); ok {
					// Row and field come from ed itself, so the update cannot miss.
					_ = ed.UpdateByID(row.ID, cell.Field.Name, v)
				}
			}
		}
	}
}

// InputName is the form key of one group item field.
func InputName(group, id, field string) string {
	return group + "." + id + "." + field
}

// DraftStore keeps drafts per session with expiry.
type DraftStore struct {
	drafts cache.Cache[*Draft]
}

// NewDraftStore wraps c, typically a sliding-expiry LRU.
func NewDraftStore(c cache.Cache[*Draft]) *DraftStore {
	return &DraftStore{drafts: c}
}

// Create starts and stores a new draft.
func (s *DraftStore) Create(owner string, values Values) *Draft {
	d := NewDraft(owner, values)
	s.drafts.Set(d.id, d)
	return d
}

// Get returns draft id if it exists and belongs to owner.
func (s *DraftStore) Get(id, owner string) (*Draft, error) {
	d, ok := s.drafts.Get(id)
	if !ok || d.owner != owner {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// Delete discards a draft, typically after a successful submission.
func (s *DraftStore) Delete(id string) {
	s.drafts.Delete(id)
}

// Size returns the number of live drafts.
func (s *DraftStore) Size() int {
	return s.drafts.Size()
}
