package form

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"rumba/internal/core"
)

// FieldErrors maps a field name to the message shown next to it.
type FieldErrors map[string]string

// ValidationError aborts a submission. Nothing is submitted when it is
// returned.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for n := range e.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// GroupSet carries the current contents of the four repeatable groups.
type GroupSet struct {
	Promoters        []core.Promoter
	Staff            []core.StaffMember
	TableCommissions []core.TableCommission
	AdCampaigns      []core.AdCampaign
}

// Aggregator validates top-level values and merges them with the groups
// into one submission.
type Aggregator struct {
	Kind     core.SubmissionKind
	Schema   Schema
	Resolver Resolver
	Now      func() time.Time
	NewID    func() string
}

// Validate checks required fields and per-field rules, coerces blank
// ZeroIfBlank fields to "0" and drops fields that are not visible.
// The returned values are only meaningful when the error map is empty.
func (a Aggregator) Validate(values Values) (Values, FieldErrors) {
	vis := a.Resolver.Resolve(values)
	out := make(Values)
	errs := make(FieldErrors)

	for _, f := range a.Schema.Fields() {
		if !a.Resolver.Shows(a.Schema, vis, f.Name) {
			continue
		}
		v := values.Get(f.Name)
		if msg := checkField(f, v); msg != "" {
			errs[f.Name] = msg
			continue
		}
		switch {
		case f.Kind == KindCheckbox:
			v = normalizeCheckbox(v)
		case v == "" && f.ZeroIfBlank:
			v = "0"
		}
		out[f.Name] = v
	}
	return out, errs
}

// Aggregate validates values and, on success, returns the merged payload.
// Group slices in the payload are never nil.
func (a Aggregator) Aggregate(values Values, groups GroupSet) (core.Submission, error) {
	clean, errs := a.Validate(values)
	if len(errs) > 0 {
		return core.Submission{}, &ValidationError{Fields: errs}
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	newID := uuid.NewString
	if a.NewID != nil {
		newID = a.NewID
	}

	return core.Submission{
		ID:               newID(),
		Kind:             a.Kind,
		EventID:          clean[FieldEventID],
		Fields:           clean,
		Promoters:        nonNil(groups.Promoters),
		Staff:            nonNil(groups.Staff),
		TableCommissions: nonNil(groups.TableCommissions),
		AdCampaigns:      nonNil(groups.AdCampaigns),
		CreatedAt:        now().UTC(),
	}, nil
}

func checkField(f Field, v string) string {
	message := func(def string) string {
		if f.Message != "" {
			return f.Message
		}
		return def
	}
	if v == "" {
		if f.Required {
			return message(f.Label + " is required.")
		}
		return ""
	}
	if f.MinLen > 0 && len([]rune(v)) < f.MinLen {
		return message(fmt.Sprintf("%s must be at least %d characters.", f.Label, f.MinLen))
	}
	switch f.Kind {
	case KindSelect:
		if len(f.Options) > 0 && !f.HasOption(v) {
			return message("Select a valid " + strings.ToLower(f.Label) + ".")
		}
	case KindDate:
		if _, err := core.ParseDate(v); err != nil {
			return "Enter a valid date."
		}
	}
	return ""
}

func normalizeCheckbox(v string) string {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return "true"
	}
	return "false"
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
