package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"rumba/internal/form"
)

func TestFormValues(t *testing.T) {
	src := url.Values{
		"eventId":    {" 1 "},
		"date":       {"2025-04-12"},
		"notes":      {"line\x00one"},
		"unknown":    {"dropped"},
		"netRevenue": {""},
	}

	got := FormValues(src, form.ExpenseSchema)

	if got["eventId"] != "1" {
		t.Errorf("eventId = %q, want trimmed", got["eventId"])
	}
	if got["notes"] != "lineone" {
		t.Errorf("notes = %q, control characters should be removed", got["notes"])
	}
	if _, ok := got["unknown"]; ok {
		t.Error("fields outside the schema must be ignored")
	}
	if v, ok := got["netRevenue"]; !ok || v != "" {
		t.Errorf("present empty field should be kept, got %q %v", v, ok)
	}
	if _, ok := got["totalAttendees"]; ok {
		t.Error("absent fields must stay absent")
	}
}

func TestLookup(t *testing.T) {
	key := form.InputName(form.GroupPromoters, "abc", "name")
	lookup := Lookup(url.Values{key: {" Ali "}})

	if v, ok := lookup(key); !ok || v != "Ali" {
		t.Errorf("lookup(%q) = %q, %v", key, v, ok)
	}
	if _, ok := lookup("promoters.missing.name"); ok {
		t.Error("missing key should not be found")
	}
}

func TestParseYear(t *testing.T) {
	now := time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		query url.Values
		want  int
	}{
		{"explicit", url.Values{"year": {"2024"}}, 2024},
		{"missing", url.Values{}, 2025},
		{"invalid", url.Values{"year": {"abc"}}, 2025},
		{"out of range", url.Values{"year": {"12"}}, 2025},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseYear(tt.query, now); got != tt.want {
				t.Errorf("ParseYear() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"field": "payment", "value": 42.5, "flag": true}`
	req := httptest.NewRequest(http.MethodPatch, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if got := parser.Get("field"); got != "payment" {
		t.Errorf("Get('field') = %q", got)
	}
	if got := parser.Get("value"); got != "42.5" {
		t.Errorf("Get('value') = %q, want '42.5'", got)
	}
	if got := parser.Get("flag"); got != "true" {
		t.Errorf("Get('flag') = %q", got)
	}
	if parser.Has("missing") {
		t.Error("Has('missing') = true")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "field=name&value=&promoters.abc.name=Ali"
	req := httptest.NewRequest(http.MethodPatch, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if !parser.Has("value") || parser.Get("value") != "" {
		t.Error("empty value should be present")
	}
	if got := parser.Get("promoters.abc.name"); got != "Ali" {
		t.Errorf("Get = %q, want Ali", got)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/test", strings.NewReader(`{"field":`))

	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("expected a parse error")
	}
}

func TestParseFormOrFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("field=value"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if result := ParseFormOrFail(req); result != nil {
		t.Error("Expected nil for valid form, got error response")
	}
	if req.Form.Get("field") != "value" {
		t.Error("Form was not parsed correctly")
	}

	bad := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("%zz"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if result := ParseFormOrFail(bad); result == nil {
		t.Error("Expected an error response for a malformed body")
	}
}
