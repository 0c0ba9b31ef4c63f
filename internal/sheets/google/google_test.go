package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"rumba/internal/core"
)

// fakeSheets serves the subset of the Sheets v4 values API the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	sheets map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	idx := strings.Index(path, "/values/")
	if idx < 0 {
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "test"})
		return
	}
	rng := path[idx+len("/values/"):]
	appending := strings.HasSuffix(rng, ":append")
	rng = strings.TrimSuffix(rng, ":append")
	sheet, _, _ := strings.Cut(rng, "!")

	if appending {
		body, _ := io.ReadAll(r.Body)
		var vr struct {
			Values [][]any `json:"values"`
		}
		_ = json.Unmarshal(body, &vr)
		f.sheets[sheet] = append(f.sheets[sheet], vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": sheet + "!A" + string(rune('0'+len(f.sheets[sheet])))},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": f.sheets[sheet]})
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{sheets: map[string][][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		SpreadsheetID: "test",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, fake
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil || err.Error() != "missing spreadsheet ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = New(context.Background(), Options{SpreadsheetID: "id", CredentialsFile: "/non/existent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.Append(context.Background(), core.Submission{}); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
	if _, err := c.ListEvents(context.Background()); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
}

func TestClient_AppendAndList(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b"} {
		ref, err := c.Append(ctx, core.Submission{
			ID:        id,
			Kind:      core.KindExpense,
			EventID:   "1",
			Fields:    map[string]string{"date": "2025-04-12"},
			Promoters: []core.Promoter{},
			CreatedAt: time.Date(2025, 4, 12, 22, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if !strings.HasPrefix(ref, DefaultSubmissionsSheet+"!") {
			t.Fatalf("unexpected ref %q", ref)
		}
	}
	if got := len(fake.sheets[DefaultSubmissionsSheet]); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}

	subs, err := c.ListSubmissions(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != "b" {
		t.Fatalf("expected newest submission first, got %+v", subs)
	}
}

func TestClient_EventCatalog(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateEvent(ctx, core.Event{Name: "Ladies Night", Type: core.Monthly, Deal: core.RevenueShareEntrance, Date: core.NewDate(2025, 5, 2)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := c.GetEvent(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ladies Night" || !got.EntranceEligible() {
		t.Fatalf("unexpected event %+v", got)
	}

	if _, err := c.GetEvent(ctx, "missing"); !errors.Is(err, core.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := c.CreateEvent(ctx, core.Event{Name: "X"}); !errors.Is(err, core.ErrEmptyEventName) {
		t.Fatalf("expected ErrEmptyEventName, got %v", err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
