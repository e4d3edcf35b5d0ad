package rsvp

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"event-invite/internal/models"
)

// ExportHeader is the first row of the delimited export.
var ExportHeader = []string{"Name", "WillAttend", "Guests", "Kids", "Comments", "Timestamp"}

// Export writes every entry as comma-separated text. Every field is quoted
// and embedded quotes are doubled; rows end with "\n" except the last.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	list, err := s.store.ReadRSVPs(ctx)
	if err != nil {
		return err
	}
	return WriteDelimited(w, list)
}

// WriteDelimited writes the header and one row per entry to w.
func WriteDelimited(w io.Writer, list []models.Entry) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, ExportHeader)
	for _, e := range list {
		bw.WriteByte('\n')
		writeRow(bw, exportRow(e))
	}
	return bw.Flush()
}

func exportRow(e models.Entry) []string {
	attend := "No"
	if e.WillAttend {
		attend = "Yes"
	}
	return []string{
		e.Name,
		attend,
		strconv.Itoa(e.Guests),
		strconv.Itoa(e.Kids),
		e.Comments,
		e.Timestamp,
	}
}

func writeRow(bw *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('"')
		bw.WriteString(strings.ReplaceAll(f, `"`, `""`))
		bw.WriteByte('"')
	}
}

// Summary is the admin overview of the RSVP list.
type Summary struct {
	Responses       int  `json:"responses"`
	Attending       int  `json:"attending"`
	Declined        int  `json:"declined"`
	ConfirmedGuests int  `json:"confirmedGuests"`
	Kids            int  `json:"kids"`
	CapacityLimit   *int `json:"capacityLimit,omitempty"`
	Remaining       *int `json:"remaining,omitempty"`
}

// Summarize counts responses and compares them to the capacity limit.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	settings, err := s.store.ReadSettings(ctx)
	if err != nil {
		return Summary{}, err
	}
	list, err := s.store.ReadRSVPs(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Responses: len(list)}
	for _, e := range list {
		if e.WillAttend {
			sum.Attending++
			sum.Kids += e.Kids
		} else {
			sum.Declined++
		}
	}
	sum.ConfirmedGuests = ConfirmedGuests(list)

	if limit, ok := settings.CapacityLimit(); ok {
		l := int(limit)
		remaining := l - sum.ConfirmedGuests
		if remaining < 0 {
			remaining = 0
		}
		sum.CapacityLimit = &l
		sum.Remaining = &remaining
	}
	return sum, nil
}
