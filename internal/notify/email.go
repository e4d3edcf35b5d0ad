package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/resendlabs/resend-go"

	"event-invite/internal/models"
)

// EmailConfig configures organizer e-mails sent through Resend.
type EmailConfig struct {
	APIKey string
	From   string
	To     []string
}

// Enabled reports whether an API key and at least one recipient are set.
func (c EmailConfig) Enabled() bool {
	return c.APIKey != "" && len(c.To) > 0
}

// EmailSink mails a short summary of each RSVP to the organizers.
type EmailSink struct {
	cfg  EmailConfig
	send func(req *resend.SendEmailRequest) (string, error)
}

// NewEmailSink creates a sink backed by the Resend API.
func NewEmailSink(cfg EmailConfig) *EmailSink {
	client := resend.NewClient(cfg.APIKey)
	return &EmailSink{
		cfg: cfg,
		send: func(req *resend.SendEmailRequest) (string, error) {
			resp, err := client.Emails.Send(req)
			if err != nil {
				return "", err
			}
			return resp.Id, nil
		},
	}
}

func (s *EmailSink) Name() string { return "email" }

// Notify sends the summary. The Resend client has no context support, so
// ctx is only checked before sending.
func (s *EmailSink) Notify(ctx context.Context, entry models.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := &resend.SendEmailRequest{
		From:    s.cfg.From,
		To:      s.cfg.To,
		Subject: fmt.Sprintf("New RSVP: %s (%s)", entry.Name, attendance(entry)),
		Text:    Summary(entry),
	}
	if _, err := s.send(req); err != nil {
		return fmt.Errorf("failed to send RSVP email: %w", err)
	}
	return nil
}

// Summary renders entry as plain text for humans.
func Summary(e models.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", e.Name)
	fmt.Fprintf(&b, "Attending: %s\n", attendance(e))
	if e.WillAttend {
		fmt.Fprintf(&b, "Guests: %d (kids: %d)\n", e.Guests, e.Kids)
	}
	if e.Comments != "" {
		fmt.Fprintf(&b, "Comments: %s\n", e.Comments)
	}
	fmt.Fprintf(&b, "Received: %s\n", e.Timestamp)
	fmt.Fprintf(&b, "ID: %s", e.ID)
	return b.String()
}
