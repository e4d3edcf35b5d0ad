package storage_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"event-invite/internal/apperr"
	"event-invite/internal/models"
	"event-invite/internal/storage"
	"event-invite/internal/storage/filestore"
	"event-invite/internal/storage/sqlitestore"
)

type backendFactory struct {
	name string
	open func(t *testing.T) storage.Backend
}

func backends() []backendFactory {
	return []backendFactory{
		{"file", func(t *testing.T) storage.Backend {
			b, err := filestore.New(t.TempDir())
			if err != nil {
				t.Fatalf("open file backend: %v", err)
			}
			return b
		}},
		{"sqlite", func(t *testing.T) storage.Backend {
			b, err := sqlitestore.Open(context.Background(), filepath.Join(t.TempDir(), "invite.db"))
			if err != nil {
				t.Fatalf("open sqlite backend: %v", err)
			}
			return b
		}},
	}
}

func openStore(t *testing.T, f backendFactory) *storage.Store {
	t.Helper()
	store := storage.New(f.open(t))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReadCreatesDefaults(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			store := openStore(t, f)
			ctx := context.Background()

			if err := store.EnsureDefaults(ctx); err != nil {
				t.Fatalf("ensure defaults: %v", err)
			}

			settings, err := store.ReadSettings(ctx)
			if err != nil {
				t.Fatalf("read settings: %v", err)
			}
			if settings["title"] != "Niky's 18th Birthday" {
				t.Fatalf("expected default title, got %v", settings["title"])
			}
			if settings["showRoses"] != true {
				t.Fatalf("expected showRoses default true, got %v", settings["showRoses"])
			}

			program, err := store.ReadProgram(ctx)
			if err != nil {
				t.Fatalf("read program: %v", err)
			}
			if program.Items == nil || len(program.Items) != 0 {
				t.Fatalf("expected empty non-nil items, got %#v", program.Items)
			}

			participants, err := store.ReadParticipants(ctx)
			if err != nil {
				t.Fatalf("read participants: %v", err)
			}
			if participants.Roses == nil || participants.Candles == nil || participants.Treasures == nil {
				t.Fatalf("expected empty categories, got %#v", participants)
			}

			rsvps, err := store.ReadRSVPs(ctx)
			if err != nil {
				t.Fatalf("read rsvps: %v", err)
			}
			if len(rsvps) != 0 {
				t.Fatalf("expected no rsvps, got %d", len(rsvps))
			}
		})
	}
}

func TestProgramRoundTripKeepsOrder(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			store := openStore(t, f)
			ctx := context.Background()

			want := models.Program{Items: []models.ProgramItem{
				{Time: "6:00 PM", Title: "Arrival", Notes: "Welcome drinks"},
				{Time: "7:00 PM", Title: "Dinner"},
				{Time: "6:30 PM", Title: "Grand entrance", Notes: "out of order on purpose"},
				{Time: "7:00 PM", Title: "Dinner"},
			}}
			if err := store.WriteProgram(ctx, want); err != nil {
				t.Fatalf("write program: %v", err)
			}

			got, err := store.ReadProgram(ctx)
			if err != nil {
				t.Fatalf("read program: %v", err)
			}
			if len(got.Items) != len(want.Items) {
				t.Fatalf("expected %d items, got %d", len(want.Items), len(got.Items))
			}
			for i := range want.Items {
				if got.Items[i] != want.Items[i] {
					t.Fatalf("item %d: expected %+v, got %+v", i, want.Items[i], got.Items[i])
				}
			}
		})
	}
}

func TestMergeSettingsChangesOnlyGivenKeys(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			store := openStore(t, f)
			ctx := context.Background()

			before, err := store.ReadSettings(ctx)
			if err != nil {
				t.Fatalf("read settings: %v", err)
			}

			if _, err := store.MergeSettings(ctx, map[string]any{"capacityLimit": 5.0, "adminPassword": "x"}); err != nil {
				t.Fatalf("merge settings: %v", err)
			}

			after, err := store.ReadSettings(ctx)
			if err != nil {
				t.Fatalf("read settings: %v", err)
			}
			if after["capacityLimit"] != 5.0 {
				t.Fatalf("expected capacityLimit 5, got %v", after["capacityLimit"])
			}
			if _, ok := after["adminPassword"]; ok {
				t.Fatal("expected disallowed key to be dropped")
			}
			for k, v := range before {
				if after[k] != v {
					t.Fatalf("expected %s to stay %v, got %v", k, v, after[k])
				}
			}
			if len(after) != len(before)+1 {
				t.Fatalf("expected exactly one added key, got %d -> %d", len(before), len(after))
			}
		})
	}
}

func TestUpdateRSVPsSerializesWriters(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			store := openStore(t, f)
			ctx := context.Background()

			const writers = 40
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := store.UpdateRSVPs(ctx, func(list []models.Entry) ([]models.Entry, error) {
						return append(list, models.Entry{ID: fmt.Sprintf("id-%d", i), Name: "guest"}), nil
					})
					if err != nil {
						t.Errorf("update rsvps: %v", err)
					}
				}(i)
			}
			wg.Wait()

			list, err := store.ReadRSVPs(ctx)
			if err != nil {
				t.Fatalf("read rsvps: %v", err)
			}
			if len(list) != writers {
				t.Fatalf("expected %d entries, got %d", writers, len(list))
			}
		})
	}
}

func TestUpdateRSVPsErrorLeavesListUnchanged(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			store := openStore(t, f)
			ctx := context.Background()

			if err := store.WriteRSVPs(ctx, []models.Entry{{ID: "a", Name: "A"}}); err != nil {
				t.Fatalf("write rsvps: %v", err)
			}

			boom := errors.New("rejected")
			err := store.UpdateRSVPs(ctx, func(list []models.Entry) ([]models.Entry, error) {
				return nil, boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected fn error, got %v", err)
			}

			list, err := store.ReadRSVPs(ctx)
			if err != nil {
				t.Fatalf("read rsvps: %v", err)
			}
			if len(list) != 1 || list[0].ID != "a" {
				t.Fatalf("expected list unchanged, got %+v", list)
			}
		})
	}
}

func TestCorruptDocumentIsStorageError(t *testing.T) {
	dir := t.TempDir()
	backend, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("open file backend: %v", err)
	}
	if err := os.WriteFile(backend.Path(storage.KindRSVPs), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store := storage.New(backend)
	_, err = store.ReadRSVPs(context.Background())
	if !apperr.Is(err, apperr.KindStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if got := apperr.PublicMessage(err); got != "Server error" {
		t.Fatalf("expected opaque message, got %q", got)
	}
}

func TestEmptyFileReadsAsDefault(t *testing.T) {
	dir := t.TempDir()
	backend, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("open file backend: %v", err)
	}
	if err := os.WriteFile(backend.Path(storage.KindRSVPs), nil, 0644); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	list, err := storage.New(backend).ReadRSVPs(context.Background())
	if err != nil {
		t.Fatalf("read rsvps: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}
