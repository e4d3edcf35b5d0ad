package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Entry represents one guest's stored RSVP
type Entry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WillAttend bool   `json:"willAttend"`
	Guests     int    `json:"guests"`
	Kids       int    `json:"kids"`
	Comments   string `json:"comments"`
	Timestamp  string `json:"timestamp"`
}

// TimestampLayout is the ISO-8601 form used for Entry.Timestamp (always UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// CountedGuests returns the head count this entry adds to the confirmed
// total. Attending entries without a guest count count as one.
func (e Entry) CountedGuests() int {
	if !e.WillAttend {
		return 0
	}
	if e.Guests <= 0 {
		return 1
	}
	return e.Guests
}

// Submission is the raw form a guest posts. Fields are loosely typed because
// the front end has sent strings, numbers and booleans over time.
type Submission struct {
	Name       Text     `json:"name"`
	WillAttend Flag     `json:"willAttend"`
	Guests     LooseInt `json:"guests"`
	Kids       LooseInt `json:"kids"`
	Comments   Text     `json:"comments"`
	HP         Text     `json:"hp"`
	Website    Text     `json:"website"`
}

// Flag decodes true, "true", "yes" and "Yes" as true; anything else is false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*f = Flag(x)
	case string:
		*f = Flag(x == "yes" || x == "Yes" || x == "true")
	default:
		*f = false
	}
	return nil
}

// LooseInt holds an integer parsed from a JSON number or from the leading
// digits of a string. Valid is false when no integer could be read.
type LooseInt struct {
	Valid bool
	Value int
}

// Int returns a LooseInt holding v.
func Int(v int) LooseInt {
	return LooseInt{Valid: true, Value: v}
}

func (n *LooseInt) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*n = LooseInt{}
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		n.Valid = true
		n.Value = truncate(f)
	case string:
		if i, ok := leadingInt(x); ok {
			n.Valid = true
			n.Value = i
		}
	}
	return nil
}

func (n LooseInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func truncate(f float64) int {
	const limit = 1 << 31
	switch {
	case f >= limit:
		return limit
	case f <= -limit:
		return -limit
	}
	return int(f)
}

// leadingInt reads an optionally signed run of digits after leading
// whitespace, ignoring whatever follows ("3 guests" is 3).
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	if end-digits > 9 {
		// Anything this long is far outside every clamp range.
		if s[0] == '-' {
			return -1 << 31, true
		}
		return 1 << 31, true
	}
	i, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return i, true
}

// Text decodes strings as-is and numbers or booleans as their literal text.
// null, arrays and objects decode as empty.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*t = Text(x)
	case json.Number:
		*t = Text(x.String())
	case bool:
		*t = Text(strconv.FormatBool(x))
	default:
		*t = ""
	}
	return nil
}
