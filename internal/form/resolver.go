package form

import "sort"

// Rule shows Field when the value of Controller matches.
type Rule struct {
	Field      string
	Controller string
	Match      func(value string) bool
}

// Resolver decides which conditional fields are visible for the current
// input. When Parent is set and empty, nothing beyond the parent itself is
// visible.
type Resolver struct {
	Parent string
	Rules  []Rule
}

// Visibility is the outcome of Resolve.
type Visibility struct {
	ready  bool
	fields map[string]bool
}

// Resolve is a pure function of values; callers recompute it on every
// selection change.
func (r Resolver) Resolve(values Values) Visibility {
	if r.Parent != "" && values.Get(r.Parent) == "" {
		return Visibility{}
	}
	v := Visibility{ready: true, fields: make(map[string]bool)}
	for _, rule := range r.Rules {
		if rule.Match != nil && rule.Match(values.Get(rule.Controller)) {
			v.fields[rule.Field] = true
		}
	}
	return v
}

// Conditional reports whether some rule governs field.
func (r Resolver) Conditional(field string) bool {
	for _, rule := range r.Rules {
		if rule.Field == field {
			return true
		}
	}
	return false
}

// Ready reports whether the parent entity is selected.
func (v Visibility) Ready() bool { return v.ready }

// Visible reports whether conditional field name is shown.
func (v Visibility) Visible(name string) bool { return v.fields[name] }

// Fields lists the visible conditional fields, sorted.
func (v Visibility) Fields() []string {
	out := make([]string, 0, len(v.fields))
	for f := range v.fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Shows reports whether field should render and be submitted under v.
func (r Resolver) Shows(s Schema, v Visibility, field string) bool {
	if r.Parent != "" && field != r.Parent && s.Gated(field) && !v.Ready() {
		return false
	}
	if r.Conditional(field) {
		return v.Visible(field)
	}
	return true
}

// OneOf matches any of the given values.
func OneOf(values ...string) func(string) bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return func(s string) bool { return set[s] }
}

// EntranceRevenueRule shows the entrance revenue field for events whose
// deal includes entrance revenue.
func EntranceRevenueRule(eligible func(eventID string) bool) Rule {
	return Rule{Field: FieldEntranceRevenue, Controller: FieldEventID, Match: eligible}
}
