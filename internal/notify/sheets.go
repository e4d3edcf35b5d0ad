package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"event-invite/internal/models"
)

// SheetsConfig identifies the spreadsheet and the service account that may
// append to it.
type SheetsConfig struct {
	SpreadsheetID string
	Range         string
	ClientEmail   string
	PrivateKey    string
}

// Enabled reports whether every required field is set.
func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != "" && c.ClientEmail != "" && c.PrivateKey != ""
}

// SheetsSink appends one row per RSVP to a Google Sheet.
type SheetsSink struct {
	cfg        SheetsConfig
	newService func(ctx context.Context) (*sheets.Service, error)

	mu  sync.Mutex
	svc *sheets.Service
}

// NewSheetsSink creates a sink that authenticates with the service account
// in cfg. The API client is built on first use.
func NewSheetsSink(cfg SheetsConfig) *SheetsSink {
	if cfg.Range == "" {
		cfg.Range = "RSVPs!A:G"
	}
	s := &SheetsSink{cfg: cfg}
	s.newService = s.serviceAccountClient
	return s
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) serviceAccountClient(ctx context.Context) (*sheets.Service, error) {
	conf := &jwt.Config{
		Email:      s.cfg.ClientEmail,
		PrivateKey: []byte(strings.ReplaceAll(s.cfg.PrivateKey, `\n`, "\n")),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	// The token source outlives this call, so it gets its own context.
	return sheets.NewService(ctx, option.WithHTTPClient(conf.Client(context.Background())))
}

// client returns the cached service, building it if needed. A failed build
// is not cached so the next RSVP retries it.
func (s *SheetsSink) client(ctx context.Context) (*sheets.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.svc != nil {
		return s.svc, nil
	}
	svc, err := s.newService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	s.svc = svc
	return svc, nil
}

// Row returns the spreadsheet row for entry.
func Row(e models.Entry) []any {
	return []any{e.Timestamp, e.Name, attendance(e), e.Guests, e.Kids, e.Comments, e.ID}
}

// Notify appends entry as a new row.
func (s *SheetsSink) Notify(ctx context.Context, entry models.Entry) error {
	svc, err := s.client(ctx)
	if err != nil {
		return err
	}
	body := &sheets.ValueRange{Values: [][]any{Row(entry)}}
	_, err = svc.Spreadsheets.Values.Append(s.cfg.SpreadsheetID, s.cfg.Range, body).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append RSVP to Google Sheet: %w", err)
	}
	return nil
}
