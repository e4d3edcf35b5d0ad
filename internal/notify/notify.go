// Package notify forwards committed RSVPs to external sinks in the
// background. Delivery is best effort: failures are logged and dropped.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"event-invite/internal/models"
)

// Sink receives committed entries.
type Sink interface {
	Name() string
	Notify(ctx context.Context, entry models.Entry) error
}

// Dispatcher fans an entry out to every sink without blocking the caller.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A zero timeout means 30 seconds.
func NewDispatcher(log zerolog.Logger, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		log:     log.With().Str("component", "notify").Logger(),
	}
}

// Sinks returns the names of the configured sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Dispatch sends entry to every sink in a new goroutine and returns at once.
func (d *Dispatcher) Dispatch(entry models.Entry) {
	if len(d.sinks) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		for _, s := range d.sinks {
			if err := s.Notify(ctx, entry); err != nil {
				d.log.Error().Err(err).Str("sink", s.Name()).Str("rsvp_id", entry.ID).Msg("Failed to forward RSVP")
				continue
			}
			d.log.Debug().Str("sink", s.Name()).Str("rsvp_id", entry.ID).Msg("Forwarded RSVP")
		}
	}()
}

// Wait blocks until every in-flight dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func attendance(e models.Entry) string {
	if e.WillAttend {
		return "Yes"
	}
	return "No"
}
