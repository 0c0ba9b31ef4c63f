//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"rumba/internal/core"
)

// Integration tests require a real spreadsheet and service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_SubmissionFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	id := os.Getenv("GOOGLE_SPREADSHEET_ID")
	creds := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	file := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if id == "" || (creds == "" && file == "") {
		t.Skip("GOOGLE_SPREADSHEET_ID and service account credentials are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := New(ctx, Options{
		SpreadsheetID:    id,
		SubmissionsSheet: os.Getenv("GOOGLE_SUBMISSIONS_SHEET"),
		CredentialsJSON:  creds,
		CredentialsFile:  file,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	sub := core.Submission{
		ID:        uuid.NewString(),
		Kind:      core.KindExpense,
		EventID:   "integration",
		Fields:    map[string]string{"date": time.Now().Format(time.DateOnly), "notes": "integration test"},
		Promoters: []core.Promoter{},
		CreatedAt: time.Now().UTC(),
	}
	ref, err := c.Append(ctx, sub)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	t.Logf("appended %s", ref)

	subs, err := c.ListSubmissions(ctx, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, s := range subs {
		if s.ID == sub.ID {
			return
		}
	}
	t.Fatalf("submission %s not found among the latest rows", sub.ID)
}
