package form

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rumba/internal/cache"
	"rumba/internal/core"
)

func newStore() *DraftStore {
	return NewDraftStore(cache.NewLRUCache[*Draft](10, time.Minute, cache.WithSlidingExpiry()))
}

func TestNewDraftInitialGroups(t *testing.T) {
	d := NewDraft("sess", nil)
	views := d.Views()

	require.Len(t, views, 4)
	assert.Equal(t, GroupPromoters, views[0].Name)
	assert.Len(t, views[0].Rows, 1, "promoters start with one empty entry")
	for _, v := range views[1:] {
		assert.Empty(t, v.Rows, v.Name)
	}
}

func TestDraftItemLifecycle(t *testing.T) {
	d := NewDraft("sess", nil)

	id, err := d.AddItem(GroupStaff)
	require.NoError(t, err)
	require.NoError(t, d.UpdateItem(GroupStaff, id, "role", "Hostess"))

	assert.Equal(t, []core.StaffMember{{Role: "Hostess"}}, d.Groups().Staff)

	removed, err := d.RemoveItem(GroupStaff, id)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = d.RemoveItem(GroupStaff, id)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = d.AddItem("vip")
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestDraftGroupCap(t *testing.T) {
	d := NewDraft("sess", nil)
	for i := 0; i < MaxGroupItems; i++ {
		_, err := d.AddItem(GroupTableCommissions)
		require.NoError(t, err)
	}
	_, err := d.AddItem(GroupTableCommissions)
	assert.ErrorIs(t, err, ErrGroupFull)

	v, err := d.View(GroupTableCommissions)
	require.NoError(t, err)
	assert.True(t, v.Full)
}

func TestDraftSyncFromPostedForm(t *testing.T) {
	d := NewDraft("sess", nil)
	promoter := d.Views()[0].Rows[0].ID

	posted := url.Values{}
	posted.Set(InputName(GroupPromoters, promoter, "name"), "Ali")
	posted.Set(InputName(GroupPromoters, promoter, "payment"), "250")
	posted.Set(InputName(GroupPromoters, "stale-id", "name"), "ignored")

	var asked []string
	d.Sync(func(key string) (string, bool) {
		asked = append(asked, key)
		if !posted.Has(key) {
			return "", false
		}
		return posted.Get(key), true
	})

	assert.Equal(t, []core.Promoter{{Name: "Ali", Payment: "250"}}, d.Groups().Promoters)
	assert.Contains(t, asked, InputName(GroupPromoters, promoter, "name"))
	assert.NotContains(t, asked, InputName(GroupPromoters, "stale-id", "name"))
}

func TestDraftConcurrentMutations(t *testing.T) {
	d := NewDraft("sess", nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.AddItem(GroupAdCampaigns)
		}()
	}
	wg.Wait()
	assert.Len(t, d.Groups().AdCampaigns, 20)
}

func TestDraftStoreOwnership(t *testing.T) {
	s := newStore()
	d := s.Create("alice", Values{FieldDate: "2025-04-12"})

	got, err := s.Get(d.ID(), "alice")
	require.NoError(t, err)
	assert.Same(t, d, got)
	assert.Equal(t, "2025-04-12", got.Values()[FieldDate])

	_, err = s.Get(d.ID(), "mallory")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	s.Delete(d.ID())
	_, err = s.Get(d.ID(), "alice")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestCompletionFiresOnce(t *testing.T) {
	calls := 0
	c := NewCompletion(func() { calls++ })

	assert.True(t, c.Fire())
	assert.False(t, c.Fire())
	assert.False(t, c.Cancel())
	assert.Equal(t, 1, calls)
}

func TestCompletionCancelledBeforeFire(t *testing.T) {
	calls := 0
	c := NewCompletion(func() { calls++ })

	assert.True(t, c.Cancel())
	assert.False(t, c.Fire())
	assert.True(t, c.Cancelled())
	assert.Zero(t, calls)
}

func TestCompletionCancelOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCompletion(func() { t.Error("must not run") })
	stop := c.CancelOn(ctx)
	defer stop()

	cancel()
	require.Eventually(t, c.Cancelled, time.Second, time.Millisecond)
	assert.False(t, c.Fire())
}
