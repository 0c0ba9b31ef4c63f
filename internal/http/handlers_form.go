package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rumba/internal/auth"
	"rumba/internal/core"
	"rumba/internal/form"
	"rumba/internal/log"
)

// formPage configures one data-entry page. A page without a kind creates
// catalog events instead of recording submissions.
type formPage struct {
	schema form.Schema
	kind   core.SubmissionKind
	scoped bool // first field selects a catalog event
	groups bool // repeatable groups kept in a server-side draft
}

func formPages() map[string]formPage {
	pages := []formPage{
		{schema: form.NewEventSchema},
		{schema: form.EventDataSchema, kind: core.KindEventData, scoped: true},
		{schema: form.ExpenseSchema, kind: core.KindExpense, scoped: true, groups: true},
	}
	out := make(map[string]formPage, len(pages))
	for _, p := range pages {
		out[p.schema.Name] = p
	}
	return out
}

func (p formPage) path() string         { return "/" + p.schema.Name }
func (p formPage) sectionsPath() string { return p.path() + "/sections" }
func (p formPage) groupPath(group string) string {
	return p.path() + "/groups/" + group
}

type fieldView struct {
	form.Field
	Value string
	Error string
	// Trigger is the sections URL for selects that change which fields
	// are shown.
	Trigger string
}

// Checked reports whether a checkbox field is ticked.
func (f fieldView) Checked() bool {
	switch f.Value {
	case "true", "on", "1":
		return true
	}
	return false
}

type sectionView struct {
	Title       string
	Description string
	Fields      []fieldView
}

type groupView struct {
	form.GroupView
	URL   string
	Draft string
}

type formView struct {
	Name        string
	Title       string
	Subtitle    string
	Action      string
	SectionsURL string
	DraftID     string
	Waiting     bool
	Sections    []sectionView
	Groups      []groupView
	Errors      form.FieldErrors
}

// resolve loads what a page needs to decide visibility: the schema with
// event options filled in and the matching resolver.
func (s *Server) resolve(ctx context.Context, p formPage) (form.Schema, form.Resolver, error) {
	if !p.scoped {
		return p.schema, form.NewEventResolver, nil
	}
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	events, err := s.events.List(ctx)
	if err != nil {
		return form.Schema{}, form.Resolver{}, err
	}
	schema := p.schema.WithOptions(form.FieldEventID, form.EventOptions(events))
	return schema, form.EventResolver(form.EntranceEligible(events)), nil
}

func (s *Server) buildFormView(p formPage, schema form.Schema, resolver form.Resolver, values form.Values, errs form.FieldErrors, d *form.Draft) formView {
	vis := resolver.Resolve(values)

	triggers := make(map[string]string)
	if resolver.Parent != "" {
		triggers[resolver.Parent] = p.sectionsPath()
	}
	for _, rule := range resolver.Rules {
		triggers[rule.Controller] = p.sectionsPath()
	}

	v := formView{
		Name:        schema.Name,
		Title:       schema.Title,
		Subtitle:    schema.Subtitle,
		Action:      p.path(),
		SectionsURL: p.sectionsPath(),
		Waiting:     resolver.Parent != "" && !vis.Ready(),
		Errors:      errs,
	}
	for _, sec := range schema.Sections {
		if sec.Gated && v.Waiting {
			continue
		}
		sv := sectionView{Title: sec.Title, Description: sec.Description}
		for _, f := range sec.Fields {
			if !resolver.Shows(schema, vis, f.Name) {
				continue
			}
			sv.Fields = append(sv.Fields, fieldView{
				Field:   f,
				Value:   values[f.Name],
				Error:   errs[f.Name],
				Trigger: triggers[f.Name],
			})
		}
		if len(sv.Fields) > 0 {
			v.Sections = append(v.Sections, sv)
		}
	}

	if d != nil {
		v.DraftID = d.ID()
		if vis.Ready() {
			for _, g := range d.Views() {
				v.Groups = append(v.Groups, groupView{GroupView: g, URL: p.groupPath(g.Name), Draft: d.ID()})
			}
		}
	}
	return v
}

func (s *Server) handleFormPage(p formPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := auth.FromContext(r.Context())

		schema, resolver, err := s.resolve(r.Context(), p)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to load event catalog",
				log.FieldError, err,
				log.FieldComponent, log.ComponentCatalog,
				log.FieldOperation, log.OpList)
			s.renderError(w, r, http.StatusServiceUnavailable, "Events unavailable",
				"The event list could not be loaded. Please try again in a moment.")
			return
		}

		values := form.Defaults(schema, s.now().Format(time.DateOnly))
		if p.scoped {
			if id := sanitizeInput(r.URL.Query().Get(form.FieldEventID)); id != "" {
				values[form.FieldEventID] = id
			}
		}

		var d *form.Draft
		if p.groups {
			d = s.drafts.Create(sess.ID, values)
			s.logger.DebugContext(r.Context(), "Draft created",
				log.FieldDraftID, d.ID(),
				log.FieldUser, sess.User)
		}

		view := s.buildFormView(p, schema, resolver, values, nil, d)
		s.renderPage(w, r, http.StatusOK, "form.html", s.newPage(r, schema.Title, schema.Name, view))
	}
}

// handleSections re-renders the conditional part of a form after a
// controlling select changed. The query carries every input of the form.
func (s *Server) handleSections(p formPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := auth.FromContext(r.Context())
		query := r.URL.Query()

		schema, resolver, err := s.resolve(r.Context(), p)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to load event catalog",
				log.FieldError, err,
				log.FieldOperation, log.OpList)
			InternalServerError("The event list could not be loaded.").WriteHeader(w)
			return
		}
		values := FormValues(query, schema)

		var d *form.Draft
		if p.groups {
			d, err = s.drafts.Get(query.Get("draft"), sess.ID)
			if err != nil {
				s.draftError(w, r, err)
				return
			}
			d.SetValues(values)
			d.Sync(Lookup(query))
		}

		view := s.buildFormView(p, schema, resolver, values, nil, d)
		s.renderFragment(w, r, NewHTMXResponse(), "sections", view)
	}
}

func (s *Server) handleAddItem(p formPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := s.draftFor(w, r)
		if !ok {
			return
		}
		group := r.PathValue("group")
		id, err := d.AddItem(group)
		if err != nil {
			s.draftError(w, r, err)
			return
		}
		s.logger.DebugContext(r.Context(), "Group item added",
			log.FieldDraftID, d.ID(),
			log.FieldGroup, group,
			log.FieldItemID, id)
		s.renderGroup(w, r, p, d, group)
	}
}

func (s *Server) handleRemoveItem(p formPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := s.draftFor(w, r)
		if !ok {
			return
		}
		group, item := r.PathValue("group"), r.PathValue("item")
		removed, err := d.RemoveItem(group, item)
		if err != nil {
			s.draftError(w, r, err)
			return
		}
		if !removed {
			// Double clicks race the swap; render the current state.
			s.logger.DebugContext(r.Context(), "Group item already removed",
				log.FieldGroup, group,
				log.FieldItemID, item)
		}
		s.renderGroup(w, r, p, d, group)
	}
}

// handleUpdateItem stores one field of one item. The value arrives either
// as "value" or under the input's own name.
func (s *Server) handleUpdateItem(p formPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := s.draftFor(w, r)
		if !ok {
			return
		}
		parser := NewRequestBodyParser(r)
		if err := parser.Parse(); err != nil {
			BadRequestError("Invalid request format.").WriteHeader(w)
			return
		}

		group, item := r.PathValue("group"), r.PathValue("item")
		field := parser.Get("field")
		value := parser.Get(form.InputName(group, item, field))
		if parser.Has("value") {
			value = parser.Get("value")
		}

		if err := d.UpdateItem(group, item, field, value); err != nil {
			s.draftError(w, r, err)
			return
		}
		s.renderGroup(w, r, p, d, group)
	}
}

func (s *Server) draftFor(w http.ResponseWriter, r *http.Request) (*form.Draft, bool) {
	sess, _ := auth.FromContext(r.Context())
	d, err := s.drafts.Get(r.URL.Query().Get("draft"), sess.ID)
	if err != nil {
		s.draftError(w, r, err)
		return nil, false
	}
	return d, true
}

func (s *Server) renderGroup(w http.ResponseWriter, r *http.Request, p formPage, d *form.Draft, group string) {
	gv, err := d.View(group)
	if err != nil {
		s.draftError(w, r, err)
		return
	}
	resp := NewHTMXResponse().TriggerGroupChanged(group, len(gv.Rows))
	s.renderFragment(w, r, resp, "group", groupView{GroupView: gv, URL: p.groupPath(group), Draft: d.ID()})
}

// draftError maps draft and group failures to a status and a toast. No
// body is written so the current markup stays in place.
func (s *Server) draftError(w http.ResponseWriter, r *http.Request, err error) {
	var resp *HTMXResponseBuilder
	switch {
	case errors.Is(err, form.ErrDraftNotFound):
		resp = NotFoundError("This form has expired. Reload the page to start over.")
	case errors.Is(err, form.ErrGroupFull):
		resp = UnprocessableEntityError(fmt.Sprintf("A section can hold at most %d entries.", form.MaxGroupItems))
	case errors.Is(err, form.ErrUnknownGroup), errors.Is(err, form.ErrItemNotFound):
		resp = NotFoundError("That entry no longer exists. Reload the page.")
	case errors.Is(err, form.ErrUnknownField):
		resp = UnprocessableEntityError("Unknown field.")
	default:
		s.logger.ErrorContext(r.Context(), "Draft operation failed", log.FieldError, err)
		resp = InternalServerError("Something went wrong. Please reload the page.")
	}
	s.logger.DebugContext(r.Context(), "Draft request rejected",
		log.FieldError, err,
		log.FieldPath, r.URL.Path)
	resp.WriteHeader(w)
}

func (s *Server) handleFormSubmit(p formPage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp := ParseFormOrFail(r); resp != nil {
			resp.Write(w)
			return
		}
		if p.kind == "" {
			s.createEvent(w, r, p)
			return
		}
		sess, _ := auth.FromContext(r.Context())

		schema, resolver, err := s.resolve(r.Context(), p)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to load event catalog",
				log.FieldError, err,
				log.FieldOperation, log.OpList)
			InternalServerError("The event list could not be loaded. Please try again.").WriteHeader(w)
			return
		}
		values := FormValues(r.PostForm, schema)

		var (
			d      *form.Draft
			groups form.GroupSet
		)
		if p.groups {
			d, err = s.drafts.Get(r.PostForm.Get("draft"), sess.ID)
			if err != nil {
				s.draftError(w, r, err)
				return
			}
			d.SetValues(values)
			d.Sync(Lookup(r.PostForm))
			groups = d.Groups()
		}

		agg := form.Aggregator{Kind: p.kind, Schema: schema, Resolver: resolver, Now: s.now}
		sub, err := agg.Aggregate(values, groups)
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			s.metrics.validationFailures.Add(1)
			s.logger.InfoContext(r.Context(), "Submission rejected",
				log.FieldKind, p.kind,
				log.FieldOperation, log.OpValidate,
				"fields", verr.Error())
			s.renderInvalid(w, r, s.buildFormView(p, schema, resolver, values, verr.Fields, d))
			return
		}
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Aggregation failed", log.FieldError, err)
			InternalServerError("Something went wrong. Please try again.").WriteHeader(w)
			return
		}

		err = s.commit(w, r, schema.Success, func(ctx context.Context) error {
			ref, err := s.submissions.Record(ctx, sub)
			if err != nil {
				return err
			}
			if d != nil {
				s.drafts.Delete(d.ID())
			}
			s.metrics.submissions.Add(1)
			s.logger.InfoContext(ctx, "Submission recorded",
				log.FieldSubmissionID, sub.ID,
				log.FieldKind, sub.Kind,
				log.FieldEventID, sub.EventID,
				log.FieldSheetsRef, ref,
				log.FieldUser, sess.User)
			return nil
		})
		if err != nil {
			s.metrics.submissionFailures.Add(1)
			s.logger.ErrorContext(r.Context(), "Failed to record submission",
				log.FieldError, err,
				log.FieldSubmissionID, sub.ID,
				log.FieldKind, sub.Kind,
				log.FieldComponent, log.ComponentSubmission,
				log.FieldOperation, log.OpAppend)
			InternalServerError("Could not save your entries. Nothing was lost, please try again.").WriteHeader(w)
		}
	}
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request, p formPage) {
	values := FormValues(r.PostForm, p.schema)
	agg := form.Aggregator{Schema: p.schema, Resolver: form.NewEventResolver, Now: s.now}
	clean, errs := agg.Validate(values)
	if len(errs) > 0 {
		s.metrics.validationFailures.Add(1)
		s.renderInvalid(w, r, s.buildFormView(p, p.schema, form.NewEventResolver, values, errs, nil))
		return
	}

	e := core.Event{
		Name:          clean["eventName"],
		Type:          core.EventType(clean[form.FieldEventType]),
		DayOfWeek:     clean[form.FieldDayOfWeek],
		Venue:         clean["venueName"],
		Deal:          core.DealType(clean[form.FieldDealType]),
		EntranceShare: clean[form.FieldEntranceShare],
		Commissions:   clean["commissions"],
		Progressive:   clean["isProgressiveCommission"] == "true",
		PaymentTerms:  clean["paymentTerms"],
	}
	if v := clean[form.FieldEventDate]; v != "" {
		e.Date, _ = core.ParseDate(v)
	}

	err := s.commit(w, r, p.schema.Success, func(ctx context.Context) error {
		created, err := s.events.Create(ctx, e)
		if err != nil {
			return err
		}
		s.metrics.eventsCreated.Add(1)
		s.logger.InfoContext(ctx, "Event added", log.FieldEventID, created.ID)
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create event",
			log.FieldError, err,
			log.FieldComponent, log.ComponentCatalog,
			log.FieldOperation, log.OpCreate)
		InternalServerError("Could not save the event. Please try again.").WriteHeader(w)
	}
}

// commit runs save and, when it succeeds, leaves a flash for the next page
// and navigates to the dashboard. The navigation is dropped if the client
// went away while saving; a failed save writes nothing.
func (s *Server) commit(w http.ResponseWriter, r *http.Request, message string, save func(context.Context) error) error {
	sess, _ := auth.FromContext(r.Context())

	done := form.NewCompletion(func() { s.navigate(w, r, "/") })
	stop := done.CancelOn(r.Context())
	defer stop()

	if err := save(r.Context()); err != nil {
		done.Cancel()
		return err
	}
	s.sessions.SetFlash(sess.ID, auth.Flash{Type: string(NotificationSuccess), Message: message})
	if !done.Fire() {
		s.logger.InfoContext(r.Context(), "Client left before the confirmation was sent",
			log.FieldPath, r.URL.Path)
	}
	return nil
}

// navigate sends the browser to url, through HX-Redirect for htmx.
func (s *Server) navigate(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// renderInvalid answers a rejected submission with the fields and their
// messages. htmx swaps only the sections; plain posts get the whole page.
func (s *Server) renderInvalid(w http.ResponseWriter, r *http.Request, view formView) {
	if isHTMX(r) {
		resp := NewHTMXResponse().
			Status(http.StatusUnprocessableEntity).
			TriggerErrorNotification("Please fix the highlighted fields.")
		s.renderFragment(w, r, resp, "sections", view)
		return
	}
	s.renderPage(w, r, http.StatusUnprocessableEntity, "form.html", s.newPage(r, view.Title, view.Name, view))
}
