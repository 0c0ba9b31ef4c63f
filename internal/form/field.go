package form

import (
	"strings"

	"github.com/shopspring/decimal"

	"rumba/internal/core"
)

// Kind tags how a field is rendered and normalized.
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindSelect   Kind = "select"
	KindTextarea Kind = "textarea"
	KindCheckbox Kind = "checkbox"
)

// Option is a select choice.
type Option struct {
	Value string
	Label string
}

// Field describes one input. Number fields are not parsed: they accept any
// text, and ZeroIfBlank only rewrites the empty string.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Placeholder string
	Required    bool
	MinLen      int
	Message     string // overrides the default validation message
	Options     []Option
	ZeroIfBlank bool
	Summed      bool // group columns only: show a running total
	Currency    bool // amount in AED
}

// HasOption reports whether v is one of the field's options.
func (f Field) HasOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Values holds top-level form input keyed by field name.
type Values map[string]string

// Get returns the trimmed value of name.
func (v Values) Get(name string) string {
	return strings.TrimSpace(v[name])
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Section is a titled card of fields. Gated sections only render once a
// parent entity is selected.
type Section struct {
	Title       string
	Description string
	Gated       bool
	Fields      []Field
}

// Schema is the ordered description of a form's top-level fields.
type Schema struct {
	Name     string
	Title    string
	Subtitle string
	Success  string // notification shown after a successful submission
	Sections []Section
}

// Fields returns every field in declaration order.
func (s Schema) Fields() []Field {
	var out []Field
	for _, sec := range s.Sections {
		out = append(out, sec.Fields...)
	}
	return out
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Gated reports whether field name sits in a gated section.
func (s Schema) Gated(name string) bool {
	for _, sec := range s.Sections {
		for _, f := range sec.Fields {
			if f.Name == name {
				return sec.Gated
			}
		}
	}
	return false
}

// WithOptions returns a copy of the schema where field name offers opts.
// Used for selects whose choices come from reference data.
func (s Schema) WithOptions(name string, opts []Option) Schema {
	out := s
	out.Sections = make([]Section, len(s.Sections))
	for i, sec := range s.Sections {
		fields := make([]Field, len(sec.Fields))
		copy(fields, sec.Fields)
		for j := range fields {
			if fields[j].Name == name {
				fields[j].Options = opts
			}
		}
		sec.Fields = fields
		out.Sections[i] = sec
	}
	return out
}

// ColumnTotal is the derived sum of a group column.
type ColumnTotal struct {
	Field   Field
	Total   decimal.Decimal
	Skipped int
}

// Display renders the total the way the column is labelled.
func (c ColumnTotal) Display() string {
	if c.Field.Currency {
		return core.FormatAED(c.Total)
	}
	return core.FormatNumber(c.Total)
}

func sumColumn(col Field, values []string) ColumnTotal {
	total, skipped := core.SumAmounts(values)
	return ColumnTotal{Field: col, Total: total, Skipped: skipped}
}
