// Package storage keeps the invitation's whole-document JSON resources.
//
// A Store serializes every writer of a document kind behind that kind's
// mutex, so read-modify-write sequences such as appending an RSVP cannot
// lose each other's updates. The bytes live in a Backend, which is either
// a directory of JSON files or a SQLite table.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"event-invite/internal/apperr"
	"event-invite/internal/models"
)

// Kind names one whole-document resource.
type Kind string

const (
	KindSettings     Kind = "settings"
	KindProgram      Kind = "program"
	KindParticipants Kind = "participants"
	KindRSVPs        Kind = "rsvps"
)

// Kinds lists every document kind.
var Kinds = []Kind{KindSettings, KindProgram, KindParticipants, KindRSVPs}

// ErrNotExist is returned by a Backend when a document has never been saved.
var ErrNotExist = errors.New("document does not exist")

// Backend loads and saves raw document bytes.
type Backend interface {
	Load(ctx context.Context, kind Kind) ([]byte, error)
	Save(ctx context.Context, kind Kind, data []byte) error
	Close() error
}

// Store provides typed access to the documents held by a Backend.
type Store struct {
	backend Backend
	locks   map[Kind]*sync.Mutex
}

// New creates a Store on top of backend.
func New(backend Backend) *Store {
	locks := make(map[Kind]*sync.Mutex, len(Kinds))
	for _, k := range Kinds {
		locks[k] = &sync.Mutex{}
	}
	return &Store{backend: backend, locks: locks}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// EnsureDefaults writes the default value of every document that is missing.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	if _, err := s.ReadSettings(ctx); err != nil {
		return err
	}
	if _, err := s.ReadProgram(ctx); err != nil {
		return err
	}
	if _, err := s.ReadParticipants(ctx); err != nil {
		return err
	}
	if _, err := s.ReadRSVPs(ctx); err != nil {
		return err
	}
	return nil
}

func defaultFor(kind Kind) any {
	switch kind {
	case KindSettings:
		return models.DefaultSettings()
	case KindProgram:
		return models.DefaultProgram()
	case KindParticipants:
		return models.DefaultParticipants()
	default:
		return []models.Entry{}
	}
}

// load decodes kind into dst. A missing document is created from its
// default first. The caller must hold the kind's lock.
func (s *Store) load(ctx context.Context, kind Kind, dst any) error {
	data, err := s.backend.Load(ctx, kind)
	if errors.Is(err, ErrNotExist) {
		def := defaultFor(kind)
		if err := s.save(ctx, kind, def); err != nil {
			return err
		}
		data, err = json.Marshal(def)
		if err != nil {
			return apperr.Storage("encode "+string(kind), err)
		}
	} else if err != nil {
		return apperr.Storage("read "+string(kind), err)
	}
	if len(data) == 0 {
		data, err = json.Marshal(defaultFor(kind))
		if err != nil {
			return apperr.Storage("encode "+string(kind), err)
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperr.Storage("decode "+string(kind), err)
	}
	return nil
}

// save encodes and writes doc. The caller must hold the kind's lock.
func (s *Store) save(ctx context.Context, kind Kind, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperr.Storage("encode "+string(kind), err)
	}
	if err := s.backend.Save(ctx, kind, data); err != nil {
		return apperr.Storage("write "+string(kind), err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, kind Kind, dst any) error {
	mu := s.locks[kind]
	mu.Lock()
	defer mu.Unlock()
	return s.load(ctx, kind, dst)
}

func (s *Store) writeWhole(ctx context.Context, kind Kind, doc any) error {
	mu := s.locks[kind]
	mu.Lock()
	defer mu.Unlock()
	return s.save(ctx, kind, doc)
}

// ReadSettings returns the settings document.
func (s *Store) ReadSettings(ctx context.Context) (models.Settings, error) {
	settings := models.Settings{}
	if err := s.read(ctx, KindSettings, &settings); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = models.Settings{}
	}
	return settings, nil
}

// MergeSettings overlays the allow-listed keys of partial onto the stored
// settings and returns the result.
func (s *Store) MergeSettings(ctx context.Context, partial map[string]any) (models.Settings, error) {
	mu := s.locks[KindSettings]
	mu.Lock()
	defer mu.Unlock()

	current := models.Settings{}
	if err := s.load(ctx, KindSettings, &current); err != nil {
		return nil, err
	}
	merged := current.Merge(partial)
	if err := s.save(ctx, KindSettings, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// ReadProgram returns the program document.
func (s *Store) ReadProgram(ctx context.Context) (models.Program, error) {
	var program models.Program
	if err := s.read(ctx, KindProgram, &program); err != nil {
		return models.Program{}, err
	}
	if program.Items == nil {
		program.Items = []models.ProgramItem{}
	}
	return program, nil
}

// WriteProgram replaces the program document.
func (s *Store) WriteProgram(ctx context.Context, program models.Program) error {
	if program.Items == nil {
		program.Items = []models.ProgramItem{}
	}
	return s.writeWhole(ctx, KindProgram, program)
}

// ReadParticipants returns the participants document.
func (s *Store) ReadParticipants(ctx context.Context) (models.Participants, error) {
	var p models.Participants
	if err := s.read(ctx, KindParticipants, &p); err != nil {
		return models.Participants{}, err
	}
	return fillParticipants(p), nil
}

// WriteParticipants replaces the participants document.
func (s *Store) WriteParticipants(ctx context.Context, p models.Participants) error {
	return s.writeWhole(ctx, KindParticipants, fillParticipants(p))
}

func fillParticipants(p models.Participants) models.Participants {
	if p.Roses == nil {
		p.Roses = []models.Participant{}
	}
	if p.Candles == nil {
		p.Candles = []models.Participant{}
	}
	if p.Treasures == nil {
		p.Treasures = []models.Participant{}
	}
	return p
}

// ReadRSVPs returns every stored entry in insertion order.
func (s *Store) ReadRSVPs(ctx context.Context) ([]models.Entry, error) {
	var entries []models.Entry
	if err := s.read(ctx, KindRSVPs, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries, nil
}

// WriteRSVPs replaces the RSVP list.
func (s *Store) WriteRSVPs(ctx context.Context, entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	return s.writeWhole(ctx, KindRSVPs, entries)
}

// UpdateRSVPs runs fn on the current RSVP list while holding the list's
// lock and persists whatever fn returns. If fn fails nothing is written and
// its error is returned unchanged.
func (s *Store) UpdateRSVPs(ctx context.Context, fn func([]models.Entry) ([]models.Entry, error)) error {
	mu := s.locks[KindRSVPs]
	mu.Lock()
	defer mu.Unlock()

	var entries []models.Entry
	if err := s.load(ctx, KindRSVPs, &entries); err != nil {
		return err
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	next, err := fn(entries)
	if err != nil {
		return err
	}
	if next == nil {
		next = []models.Entry{}
	}
	if err := s.save(ctx, KindRSVPs, next); err != nil {
		return fmt.Errorf("persist rsvps: %w", err)
	}
	return nil
}
