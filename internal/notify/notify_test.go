package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/resendlabs/resend-go"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"event-invite/internal/models"
)

type recordingSink struct {
	name string
	err  error

	mu      sync.Mutex
	entries []models.Entry
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Notify(_ context.Context, e models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var sampleEntry = models.Entry{
	ID:         "3f1c",
	Name:       `Ana "Lantern" Cruz`,
	WillAttend: true,
	Guests:     3,
	Kids:       1,
	Comments:   "See you!",
	Timestamp:  "2025-03-01T10:00:00.000Z",
}

func TestDispatcherFansOutAndSwallowsErrors(t *testing.T) {
	var logs bytes.Buffer
	failing := &recordingSink{name: "broken", err: errors.New("quota exceeded")}
	ok := &recordingSink{name: "ok"}
	d := NewDispatcher(zerolog.New(&logs), time.Second, failing, ok)

	d.Dispatch(sampleEntry)
	d.Dispatch(sampleEntry)
	d.Wait()

	if failing.count() != 2 || ok.count() != 2 {
		t.Fatalf("expected both sinks called twice, got %d and %d", failing.count(), ok.count())
	}
	if !strings.Contains(logs.String(), "Failed to forward RSVP") || !strings.Contains(logs.String(), "quota exceeded") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
}

func TestDispatcherWithoutSinksIsNoop(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 0)
	d.Dispatch(sampleEntry)
	d.Wait()
	if len(d.Sinks()) != 0 {
		t.Fatalf("expected no sinks, got %v", d.Sinks())
	}
}

func TestSheetsConfigEnabled(t *testing.T) {
	full := SheetsConfig{SpreadsheetID: "id", ClientEmail: "svc@x.iam.gserviceaccount.com", PrivateKey: "key"}
	if !full.Enabled() {
		t.Fatal("expected full config to be enabled")
	}
	partial := full
	partial.PrivateKey = ""
	if partial.Enabled() {
		t.Fatal("expected config without key to be disabled")
	}
}

func TestSheetsSinkAppendsRow(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  sheets.ValueRange
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spreadsheetId":"sheet-123"}`))
	}))
	defer srv.Close()

	sink := NewSheetsSink(SheetsConfig{SpreadsheetID: "sheet-123", ClientEmail: "svc", PrivateKey: "k"})
	sink.newService = func(ctx context.Context) (*sheets.Service, error) {
		return sheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	}

	if err := sink.Notify(context.Background(), sampleEntry); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if !strings.Contains(gotPath, "/v4/spreadsheets/sheet-123/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=USER_ENTERED") || !strings.Contains(gotQuery, "insertDataOption=INSERT_ROWS") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(gotBody.Values) != 1 || len(gotBody.Values[0]) != 7 {
		t.Fatalf("expected a single 7-column row, got %+v", gotBody.Values)
	}
	row := gotBody.Values[0]
	if row[0] != sampleEntry.Timestamp || row[1] != sampleEntry.Name || row[2] != "Yes" || row[6] != sampleEntry.ID {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestSheetsSinkRetriesFailedInit(t *testing.T) {
	calls := 0
	sink := NewSheetsSink(SheetsConfig{SpreadsheetID: "s", ClientEmail: "c", PrivateKey: "k"})
	sink.newService = func(ctx context.Context) (*sheets.Service, error) {
		calls++
		return nil, errors.New("bad key")
	}

	for i := 0; i < 2; i++ {
		if err := sink.Notify(context.Background(), sampleEntry); err == nil {
			t.Fatal("expected init error")
		}
	}
	if calls != 2 {
		t.Fatalf("expected init to be retried, got %d calls", calls)
	}
}

func TestEmailSinkBuildsRequest(t *testing.T) {
	var got *resend.SendEmailRequest
	sink := &EmailSink{
		cfg: EmailConfig{APIKey: "re_test", From: "rsvp@example.com", To: []string{"host@example.com"}},
		send: func(req *resend.SendEmailRequest) (string, error) {
			got = req
			return "email-1", nil
		},
	}

	if err := sink.Notify(context.Background(), sampleEntry); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got == nil {
		t.Fatal("expected a request to be sent")
	}
	if got.Subject != `New RSVP: Ana "Lantern" Cruz (Yes)` {
		t.Fatalf("unexpected subject %q", got.Subject)
	}
	if !strings.Contains(got.Text, "Guests: 3 (kids: 1)") || !strings.Contains(got.Text, "ID: 3f1c") {
		t.Fatalf("unexpected text %q", got.Text)
	}
}

func TestEmailSinkHonorsCancelledContext(t *testing.T) {
	sink := &EmailSink{send: func(*resend.SendEmailRequest) (string, error) {
		t.Fatal("send must not be called")
		return "", nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Notify(ctx, sampleEntry); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeSender struct {
	fail map[string]bool
	sent []string
}

func (f *fakeSender) SendMessage(_ context.Context, phone, msg string) error {
	if f.fail[phone] {
		return errors.New("not on WhatsApp")
	}
	f.sent = append(f.sent, phone+": "+msg)
	return nil
}

func TestWhatsAppSinkReportsEachFailure(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"222": true}}
	sink := NewWhatsAppSink(sender, []string{"111", "222"})

	err := sink.Notify(context.Background(), sampleEntry)
	if err == nil || !strings.Contains(err.Error(), "222") {
		t.Fatalf("expected failure for 222, got %v", err)
	}
	if len(sender.sent) != 1 || !strings.HasPrefix(sender.sent[0], "111: ") {
		t.Fatalf("expected message to 111, got %v", sender.sent)
	}
	if !strings.Contains(sender.sent[0], "Name: "+sampleEntry.Name) {
		t.Fatalf("expected summary in message, got %q", sender.sent[0])
	}
}

func TestSummaryForDecline(t *testing.T) {
	text := Summary(models.Entry{ID: "x", Name: "Ben", Timestamp: "t"})
	if strings.Contains(text, "Guests:") {
		t.Fatalf("expected no guest line for a decline, got %q", text)
	}
	if !strings.Contains(text, "Attending: No") {
		t.Fatalf("expected decline in summary, got %q", text)
	}
}
