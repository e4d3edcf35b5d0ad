// Package rsvp accepts guest responses and serves them back to admins.
//
// Submit applies its rules in a fixed order: normalize the input, require a
// name, refuse after the lock date, drop honeypot submissions, enforce the
// capacity limit, then commit. The capacity check and the append run under
// the store's RSVP lock, so concurrent submissions can neither lose each
// other nor overshoot the limit together.
package rsvp

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"event-invite/internal/apperr"
	"event-invite/internal/models"
	"event-invite/internal/storage"
)

const (
	MaxGuests      = 5
	MaxKids        = 5
	MaxCommentsLen = 1000
)

// Notifier receives every committed entry.
type Notifier interface {
	Dispatch(entry models.Entry)
}

// Result is the outcome of an accepted submission.
type Result struct {
	Entry models.Entry
	// Warning is an optional note for the guest. Nothing sets it yet.
	Warning string
	// Ignored is set when the submission tripped the honeypot and was
	// acknowledged without being stored.
	Ignored bool
}

// Service implements RSVP intake and the admin views of the RSVP list.
type Service struct {
	store    *storage.Store
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a Service. notifier may be nil.
func NewService(store *storage.Store, notifier Notifier, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		log:      log.With().Str("component", "rsvp").Logger(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize turns a raw submission into the entry fields that would be
// stored. ID and Timestamp are left empty.
func Normalize(sub models.Submission) models.Entry {
	attending := bool(sub.WillAttend)

	guests := sub.Guests.Value
	if !sub.Guests.Valid {
		guests = 0
		if attending {
			guests = 1
		}
	}
	guests = clamp(guests, 0, MaxGuests)

	kids := sub.Kids.Value
	if !sub.Kids.Valid {
		kids = 0
	}
	kids = clamp(kids, 0, MaxKids)

	if !attending {
		guests, kids = 0, 0
	}
	if kids > guests {
		kids = guests
	}

	return models.Entry{
		Name:       strings.TrimSpace(string(sub.Name)),
		WillAttend: attending,
		Guests:     guests,
		Kids:       kids,
		Comments:   truncate(string(sub.Comments), MaxCommentsLen),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Submit validates and stores a guest response.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (Result, error) {
	entry := Normalize(sub)
	if entry.Name == "" {
		return Result{}, apperr.Validation("Name is required")
	}

	settings, err := s.store.ReadSettings(ctx)
	if err != nil {
		return Result{}, err
	}
	now := s.now()

	if lock, ok := settings.LockDate(); ok && !now.Before(lock) {
		msg := "RSVP is closed as of the lock date."
		if email := settings.ContactEmail(); email != "" {
			msg += fmt.Sprintf(" Please contact %s for any concerns.", email)
		}
		return Result{}, apperr.Closed(msg)
	}

	if strings.TrimSpace(string(sub.HP)) != "" || strings.TrimSpace(string(sub.Website)) != "" {
		s.log.Info().Str("name", entry.Name).Msg("Ignoring honeypot submission")
		return Result{Ignored: true}, nil
	}

	limit, limited := settings.CapacityLimit()

	err = s.store.UpdateRSVPs(ctx, func(list []models.Entry) ([]models.Entry, error) {
		if limited && entry.WillAttend {
			confirmed := ConfirmedGuests(list)
			if float64(confirmed+entry.Guests) > limit {
				msg := "We're at capacity. Unable to accept additional attendees."
				if email := settings.ContactEmail(); email != "" {
					msg += fmt.Sprintf(" Please contact %s to check availability.", email)
				}
				return nil, apperr.Capacity(msg)
			}
		}
		entry.ID = s.newID()
		entry.Timestamp = now.UTC().Format(models.TimestampLayout)
		return append(list, entry), nil
	})
	if err != nil {
		return Result{}, err
	}

	s.log.Info().
		Str("rsvp_id", entry.ID).
		Bool("will_attend", entry.WillAttend).
		Int("guests", entry.Guests).
		Msg("RSVP stored")

	if s.notifier != nil {
		s.notifier.Dispatch(entry)
	}
	return Result{Entry: entry}, nil
}

// ConfirmedGuests sums the head count of attending entries.
func ConfirmedGuests(list []models.Entry) int {
	total := 0
	for _, e := range list {
		total += e.CountedGuests()
	}
	return total
}

// List returns every entry in insertion order.
func (s *Service) List(ctx context.Context) ([]models.Entry, error) {
	return s.store.ReadRSVPs(ctx)
}

// Delete removes the entry with id and returns the removed id.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", apperr.Validation("Missing RSVP id")
	}
	var removed models.Entry
	err := s.store.UpdateRSVPs(ctx, func(list []models.Entry) ([]models.Entry, error) {
		for i, e := range list {
			if e.ID == id {
				removed = e
				return append(list[:i:i], list[i+1:]...), nil
			}
		}
		return nil, apperr.NotFound("RSVP not found")
	})
	if err != nil {
		return "", err
	}
	s.log.Info().Str("rsvp_id", removed.ID).Msg("RSVP deleted")
	return removed.ID, nil
}
