// Package notify sends submission notices by email.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"

	"rumba/internal/core"
	"rumba/internal/log"
)

var bodyTmpl = template.Must(template.New("submission").Parse(`<h2>{{.Title}}</h2>
<table>
<tr><td>Event</td><td>{{.Event}}</td></tr>
<tr><td>Date</td><td>{{.Date}}</td></tr>
<tr><td>Revenue</td><td>{{.Revenue}}</td></tr>
<tr><td>Expenses</td><td>{{.Expenses}}</td></tr>
<tr><td>Submission</td><td>{{.ID}}</td></tr>
</table>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}`))

// ResendNotifier emails a summary of each recorded submission.
type ResendNotifier struct {
	client *resend.Client
	from   string
	to     []string
	logger *log.Logger
}

func NewResendNotifier(apiKey, from string, to []string, logger *log.Logger) *ResendNotifier {
	if logger == nil {
		logger = log.NewDiscard()
	}
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
		logger: logger.WithComponent(log.ComponentNotify),
	}
}

// Subject returns the email subject for a submission.
func Subject(s core.Submission, e core.Event) string {
	name := e.Name
	if name == "" {
		name = "event " + s.EventID
	}
	switch s.Kind {
	case core.KindEventData:
		return "Event data added: " + name
	default:
		return "Expense data added: " + name
	}
}

// Body renders the HTML summary of a submission.
func Body(s core.Submission, e core.Event) (string, error) {
	f := s.Figures()
	name := e.Name
	if name == "" {
		name = s.EventID
	}
	var buf bytes.Buffer
	err := bodyTmpl.Execute(&buf, map[string]any{
		"Title":    Subject(s, e),
		"Event":    name,
		"Date":     s.Date(),
		"Revenue":  core.FormatAED(f.Revenue),
		"Expenses": core.FormatAED(f.Expenses()),
		"ID":       s.ID,
		"Notes":    s.Notes(),
	})
	if err != nil {
		return "", fmt.Errorf("render notification body: %w", err)
	}
	return buf.String(), nil
}

func (n *ResendNotifier) NotifySubmission(ctx context.Context, s core.Submission, e core.Event) error {
	if len(n.to) == 0 {
		return nil
	}
	html, err := Body(s, e)
	if err != nil {
		return err
	}

	sent, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: Subject(s, e),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}

	n.logger.InfoContext(ctx, "Submission notification sent",
		"message_id", sent.Id,
		log.FieldSubmissionID, s.ID,
		log.FieldCount, len(n.to))
	return nil
}
