package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rumba/internal/auth"
	"rumba/internal/backend"
	"rumba/internal/core"
	"rumba/internal/form"
	"rumba/internal/sheets/memory"
)

const (
	testEmail    = "admin@rumbaevents.com"
	testPassword = "correct horse"
)

// testNow is a Wednesday: events 1 and 2 ran on April 11 and 12, events
// 3 and 4 are on April 18 and 19.
var testNow = time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	srv    *Server
	store  *memory.Store
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewSeeded(testNow)
	authn, err := auth.NewAuthenticator(testEmail, "", testPassword)
	require.NoError(t, err)

	srv, err := NewServer(Options{
		Addr:          ":0",
		Backend:       &backend.BackendResult{Backend: store},
		Sessions:      auth.NewSessionStore(time.Hour),
		Authenticator: authn,
		SessionTTL:    time.Hour,
		Now:           func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	env := &testEnv{srv: srv, store: store}
	env.login(t)
	return env
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/login", url.Values{"email": {testEmail}, "password": {testPassword}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" {
			e.cookie = c
		}
	}
	require.NotNil(t, e.cookie, "login should set the session cookie")
}

// do sends a request through the full middleware chain. Form values go in
// the body for POST and PATCH and in the query otherwise.
func (e *testEnv) do(t *testing.T, method, target string, values url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	switch method {
	case http.MethodPost, http.MethodPatch:
		req = httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		if len(values) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + values.Encode()
		}
		req = httptest.NewRequest(method, target, nil)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

// openExpense loads the expense page and returns its draft ID.
func (e *testEnv) openExpense(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/add-expense", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	draft, ok := parse(t, rec).Find(`input[name="draft"]`).Attr("value")
	require.True(t, ok, "expense page must carry a draft")
	return draft
}

func TestAuthGate(t *testing.T) {
	env := newTestEnv(t)
	env.cookie = nil

	rec := env.do(t, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/add-expense", nil, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))

	rec = env.do(t, http.MethodGet, "/login", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.cookie = nil

	rec := env.do(t, http.MethodPost, "/login", url.Values{"email": {testEmail}, "password": {"nope"}}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	doc := parse(t, rec)
	assert.Contains(t, doc.Find(".field__error").Text(), "Invalid email or password.")
	assert.Equal(t, testEmail, doc.Find(`input[name="email"]`).AttrOr("value", ""))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/logout", nil, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "the old cookie must no longer work")
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)

	assert.Equal(t, 8, doc.Find(".cards .stat").Length())
	assert.Contains(t, doc.Find(".stat").First().Text(), "167,500 AED")
	assert.Equal(t, 5, doc.Find(".bars__group").Length())
	assert.Equal(t, 4, doc.Find("#events-table tbody tr").Length())
	assert.Contains(t, doc.Find(".meter__label").Last().Text(), "65%")

	first := doc.Find("#events-table tbody tr").First()
	assert.Contains(t, first.Text(), "2025-04-11", "dated events show their date")
	assert.Equal(t, "completed", first.Find(".badge").Text())
	assert.Equal(t, "upcoming", doc.Find("#events-table tbody tr").Last().Find(".badge").Text())
}

func TestEventsFilter(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		filter string
		want   int
	}{
		{core.FilterAll, 4},
		{core.FilterUpcoming, 2},
		{core.FilterCompleted, 2},
		{core.FilterThisWeek, 2},
		{core.FilterLastWeek, 2},
		{"bogus", 4},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/events", url.Values{"filter": {tt.filter}}, true)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, parse(t, rec).Find("tbody tr").Length())
		})
	}
}

func TestEventsTableWhenColumn(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.CreateEvent(context.Background(), core.Event{
		Name: "Ladies Night", Type: core.Weekly, DayOfWeek: "thursday", Venue: "Club XYZ", Deal: core.RevenueShare,
	})
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/events", url.Values{"filter": {core.FilterAll}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := parse(t, rec).Find("tbody tr")
	require.Equal(t, 5, rows.Length())
	assert.Equal(t, "2025-04-18", rows.Eq(2).Find("td").Eq(1).Text())
	assert.Equal(t, "Every Thursday", rows.Last().Find("td").Eq(1).Text())
}

func TestSectionsFollowSelectedEvent(t *testing.T) {
	env := newTestEnv(t)
	draft := env.openExpense(t)

	tests := []struct {
		name         string
		eventID      string
		wantEntrance bool
		wantWaiting  bool
	}{
		{"entrance deal", "1", true, false},
		{"revenue share", "2", false, false},
		{"nothing selected", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/add-expense/sections",
				url.Values{"draft": {draft}, form.FieldEventID: {tt.eventID}}, true)
			require.Equal(t, http.StatusOK, rec.Code)
			doc := parse(t, rec)

			assert.Equal(t, tt.wantEntrance, doc.Find(`input[name="entranceRevenue"]`).Length() == 1)
			assert.Equal(t, tt.wantWaiting, strings.Contains(doc.Text(), "Select an event to continue."))
			assert.Equal(t, !tt.wantWaiting, doc.Find("#group-promoters").Length() == 1)
		})
	}
}

func TestNewEventFieldsFollowType(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/add-event/sections", url.Values{form.FieldEventType: {"weekly"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Equal(t, 1, doc.Find(`select[name="dayOfWeek"]`).Length())
	assert.Equal(t, 0, doc.Find(`input[name="eventDate"]`).Length())
	assert.Equal(t, 0, doc.Find(`input[name="entranceShare"]`).Length())

	rec = env.do(t, http.MethodGet, "/add-event/sections",
		url.Values{form.FieldEventType: {"monthly"}, form.FieldDealType: {"revenue-share-entrance"}}, true)
	doc = parse(t, rec)
	assert.Equal(t, 0, doc.Find(`select[name="dayOfWeek"]`).Length())
	assert.Equal(t, 1, doc.Find(`input[name="eventDate"]`).Length())
	assert.Equal(t, 1, doc.Find(`input[name="entranceShare"]`).Length())
}

func TestGroupEndpoints(t *testing.T) {
	env := newTestEnv(t)
	draft := env.openExpense(t)
	base := "/add-expense/groups/" + form.GroupStaff

	rec := env.do(t, http.MethodPost, base+"?draft="+draft, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "group:changed")
	doc := parse(t, rec)
	rows := doc.Find("#group-staff tbody tr")
	require.Equal(t, 1, rows.Length())

	name := rows.Find("input").Last().AttrOr("name", "")
	parts := strings.Split(name, ".")
	require.Len(t, parts, 3, "input name should be group.item.field")
	item := parts[1]

	rec = env.do(t, http.MethodPatch, base+"/"+item+"?draft="+draft,
		url.Values{"field": {"payment"}, form.InputName(form.GroupStaff, item, "payment"): {"1250.5"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, parse(t, rec).Find(".group__totals").Text(), "1,250.5 AED")

	rec = env.do(t, http.MethodPatch, base+"/"+item+"?draft="+draft,
		url.Values{"field": {"payment"}, "value": {"abc"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, parse(t, rec).Find(".group__totals").Text(), "1 not counted")

	rec = env.do(t, http.MethodPatch, base+"/"+item+"?draft="+draft,
		url.Values{"field": {"salary"}, "value": {"1"}}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodDelete, base+"/"+item+"?draft="+draft, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, parse(t, rec).Text(), "No entries yet.")

	// Removing twice renders the current state.
	rec = env.do(t, http.MethodDelete, base+"/"+item+"?draft="+draft, nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/add-expense/groups/bouncers?draft="+draft, nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, base+"?draft=expired", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "This form has expired")
}

func TestGroupFull(t *testing.T) {
	env := newTestEnv(t)
	draft := env.openExpense(t)
	target := "/add-expense/groups/" + form.GroupAdCampaigns + "?draft=" + draft

	for i := 0; i < form.MaxGroupItems; i++ {
		rec := env.do(t, http.MethodPost, target, nil, true)
		require.Equal(t, http.StatusOK, rec.Code, "add #%d", i)
	}
	rec := env.do(t, http.MethodPost, target, nil, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Body.String(), "the group markup must stay in place")
}

func TestExpenseSubmit(t *testing.T) {
	env := newTestEnv(t)
	draft := env.openExpense(t)

	rec := env.do(t, http.MethodGet, "/add-expense/sections",
		url.Values{"draft": {draft}, form.FieldEventID: {"1"}}, true)
	promoter, ok := parse(t, rec).Find("#group-promoters tbody input").First().Attr("name")
	require.True(t, ok)

	// No event selected: nothing is recorded.
	rec = env.do(t, http.MethodPost, "/add-expense",
		url.Values{"draft": {draft}, form.FieldDate: {"2025-04-12"}}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), "Please fix the highlighted fields.")
	assert.Contains(t, parse(t, rec).Find(".field--invalid").Text(), "Please select an event.")
	subs, _ := env.store.ListSubmissions(context.Background(), 0)
	assert.Empty(t, subs)

	rec = env.do(t, http.MethodPost, "/add-expense", url.Values{
		"draft":              {draft},
		form.FieldEventID:    {"1"},
		form.FieldDate:       {"2025-04-12"},
		"netRevenue":         {"18000"},
		form.FieldNotes:      {"Great *night*"},
		promoter:             {"Ali"},
		"somethingUnrelated": {"x"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("HX-Redirect"))

	subs, _ = env.store.ListSubmissions(context.Background(), 0)
	require.Len(t, subs, 1)
	sub := subs[0]
	assert.Equal(t, core.KindExpense, sub.Kind)
	assert.Equal(t, "1", sub.EventID)
	assert.Equal(t, "0", sub.Fields["grossCommission"], "blank amounts become zero")
	assert.Equal(t, "0", sub.Fields[form.FieldEntranceRevenue])
	assert.NotContains(t, sub.Fields, "somethingUnrelated")
	require.Len(t, sub.Promoters, 1)
	assert.Equal(t, "Ali", sub.Promoters[0].Name)
	assert.NotNil(t, sub.Staff)

	// The draft is gone and the dashboard shows the confirmation once.
	rec = env.do(t, http.MethodPost, "/add-expense", url.Values{"draft": {draft}}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doc := parse(t, env.do(t, http.MethodGet, "/", nil, false))
	assert.Equal(t, "Expense data added successfully!", doc.Find("#flash").AttrOr("data-message", ""))
	doc = parse(t, env.do(t, http.MethodGet, "/", nil, false))
	assert.Equal(t, 0, doc.Find("#flash").Length())

	doc = parse(t, env.do(t, http.MethodGet, "/submissions", nil, false))
	assert.Contains(t, doc.Find(".submission h2").Text(), "Friday Night Rumba (April 11)")
	assert.Equal(t, "night", doc.Find(".notes em").Text())
}

func TestEventDataSubmit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/add-data", url.Values{
		form.FieldEventID:         {"2"},
		form.FieldDate:            {"2025-04-13"},
		"revenue":                 {"24000"},
		form.FieldEntranceRevenue: {"5000"},
	}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	subs, _ := env.store.ListSubmissions(context.Background(), 0)
	require.Len(t, subs, 1)
	assert.Equal(t, core.KindEventData, subs[0].Kind)
	assert.NotContains(t, subs[0].Fields, form.FieldEntranceRevenue, "hidden fields are not submitted")
	assert.Empty(t, subs[0].Promoters)
}

func TestEventDataRejectsUnknownEvent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/add-data",
		url.Values{form.FieldEventID: {"99"}, form.FieldDate: {"2025-04-13"}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, parse(t, rec).Find(".field--invalid select").Length())
}

func TestAddEvent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/add-event", url.Values{"eventName": {"R"}}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	doc := parse(t, rec)
	assert.Contains(t, doc.Text(), "Event name must be at least 2 characters.")
	assert.Contains(t, doc.Text(), "Venue name must be at least 2 characters.")

	rec = env.do(t, http.MethodPost, "/add-event", url.Values{
		"eventName":               {"Ladies Night"},
		form.FieldEventType:       {"one-time"},
		form.FieldEventDate:       {"2025-05-02"},
		form.FieldDayOfWeek:       {"friday"},
		"venueName":               {"Club XYZ"},
		form.FieldDealType:        {"revenue-share"},
		"isProgressiveCommission": {"on"},
		"paymentTerms":            {"one-month"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("HX-Redirect"))

	events, _ := env.store.ListEvents(context.Background())
	require.Len(t, events, 5)
	created := events[4]
	assert.Equal(t, "Ladies Night", created.Name)
	assert.Equal(t, "2025-05-02", created.Date.ISO())
	assert.Empty(t, created.DayOfWeek, "day of week only applies to weekly events")
	assert.True(t, created.Progressive)
}

func TestReportsAndExport(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/reports", url.Values{"year": {"2025"}}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Equal(t, 4, doc.Find("tbody tr").Length())
	assert.Contains(t, doc.Find("tfoot").Text(), "178,000 AED")

	rec = env.do(t, http.MethodGet, "/reports/export", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "rumba-report.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestOpsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, http.MethodGet, path, nil, false)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}

	rec := env.do(t, http.MethodGet, "/metrics", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, metric := range []string{"http_requests_total", "submissions_total", "drafts_active", "sessions_active 1"} {
		assert.Contains(t, body, metric)
	}
}

func TestReadyzReportsBackendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.srv.ping = func(context.Context) error { return context.DeadlineExceeded }

	rec := env.do(t, http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}

func TestNotFoundAndHeaders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, parse(t, rec).Find("h1").Text(), "Page not found")
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodGet, "/static/app.css", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
}
