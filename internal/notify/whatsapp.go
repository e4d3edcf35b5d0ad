package notify

import (
	"context"
	"errors"
	"fmt"

	"event-invite/internal/models"
)

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// WhatsAppSink messages each organizer number about a new RSVP.
type WhatsAppSink struct {
	sender     MessageSender
	recipients []string
}

// NewWhatsAppSink creates a sink that sends through sender.
func NewWhatsAppSink(sender MessageSender, recipients []string) *WhatsAppSink {
	return &WhatsAppSink{sender: sender, recipients: recipients}
}

func (s *WhatsAppSink) Name() string { return "whatsapp" }

// Notify sends the summary to every recipient and reports all failures.
func (s *WhatsAppSink) Notify(ctx context.Context, entry models.Entry) error {
	msg := "🎉 *New RSVP*\n\n" + Summary(entry)
	var errs []error
	for _, to := range s.recipients {
		if err := s.sender.SendMessage(ctx, to, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}
