package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSubmissionDecodesLooseForms(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantAttend bool
		wantGuests LooseInt
		wantKids   LooseInt
		wantName   Text
	}{
		{"bool and numbers", `{"name":" A ","willAttend":true,"guests":2,"kids":1}`, true, Int(2), Int(1), " A "},
		{"yes string", `{"name":"B","willAttend":"yes","guests":"3"}`, true, Int(3), LooseInt{}, "B"},
		{"Yes string", `{"name":"B","willAttend":"Yes"}`, true, LooseInt{}, LooseInt{}, "B"},
		{"true string", `{"name":"B","willAttend":"true"}`, true, LooseInt{}, LooseInt{}, "B"},
		{"other string is false", `{"name":"B","willAttend":"YES"}`, false, LooseInt{}, LooseInt{}, "B"},
		{"number is false", `{"name":"B","willAttend":1}`, false, LooseInt{}, LooseInt{}, "B"},
		{"float truncates", `{"name":"C","guests":2.9,"kids":-0.5}`, false, Int(2), Int(0), "C"},
		{"leading digits", `{"name":"D","guests":" 4 people","kids":"x1"}`, false, Int(4), LooseInt{}, "D"},
		{"null guests", `{"name":"E","guests":null}`, false, LooseInt{}, LooseInt{}, "E"},
		{"bool guests", `{"name":"E","guests":true}`, false, LooseInt{}, LooseInt{}, "E"},
		{"numeric name", `{"name":42}`, false, LooseInt{}, LooseInt{}, "42"},
		{"object name", `{"name":{"first":"x"}}`, false, LooseInt{}, LooseInt{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sub Submission
			if err := json.Unmarshal([]byte(tt.body), &sub); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if bool(sub.WillAttend) != tt.wantAttend {
				t.Fatalf("expected willAttend %v, got %v", tt.wantAttend, sub.WillAttend)
			}
			if sub.Guests != tt.wantGuests {
				t.Fatalf("expected guests %+v, got %+v", tt.wantGuests, sub.Guests)
			}
			if sub.Kids != tt.wantKids {
				t.Fatalf("expected kids %+v, got %+v", tt.wantKids, sub.Kids)
			}
			if sub.Name != tt.wantName {
				t.Fatalf("expected name %q, got %q", tt.wantName, sub.Name)
			}
		})
	}
}

func TestEntryCountedGuests(t *testing.T) {
	tests := []struct {
		entry Entry
		want  int
	}{
		{Entry{WillAttend: true, Guests: 3}, 3},
		{Entry{WillAttend: true}, 1},
		{Entry{WillAttend: false, Guests: 2}, 0},
	}
	for _, tt := range tests {
		if got := tt.entry.CountedGuests(); got != tt.want {
			t.Fatalf("entry %+v: expected %d, got %d", tt.entry, tt.want, got)
		}
	}
}

func TestSettingsMergeKeepsOtherFields(t *testing.T) {
	base := Settings{"title": "Party", "showRoses": true, "capacityLimit": 10.0}
	merged := base.Merge(map[string]any{"capacityLimit": 5.0, "evil": "x"})

	if merged["capacityLimit"] != 5.0 {
		t.Fatalf("expected capacityLimit 5, got %v", merged["capacityLimit"])
	}
	if merged["title"] != "Party" || merged["showRoses"] != true {
		t.Fatalf("expected untouched fields to survive, got %v", merged)
	}
	if _, ok := merged["evil"]; ok {
		t.Fatal("expected disallowed key to be dropped")
	}
	if base["capacityLimit"] != 10.0 {
		t.Fatal("expected merge not to modify the receiver")
	}
}

func TestSettingsCapacityLimit(t *testing.T) {
	tests := []struct {
		value  any
		want   float64
		wantOK bool
	}{
		{5.0, 5, true},
		{"12", 12, true},
		{0.0, 0, false},
		{-3.0, 0, false},
		{"many", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		s := Settings{"capacityLimit": tt.value}
		got, ok := s.CapacityLimit()
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("capacityLimit %v: expected (%v, %v), got (%v, %v)", tt.value, tt.want, tt.wantOK, got, ok)
		}
	}
}

func TestSettingsLockDate(t *testing.T) {
	s := Settings{"rsvpLockDate": "2025-12-01T00:00:00Z"}
	got, ok := s.LockDate()
	if !ok {
		t.Fatal("expected lock date to parse")
	}
	want := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	s = Settings{"rsvpLockDate": "2025-12-01"}
	if got, ok := s.LockDate(); !ok || !got.Equal(want) {
		t.Fatalf("expected bare date to parse as UTC midnight, got %v %v", got, ok)
	}

	for _, raw := range []any{"", "soon", 12.0, nil} {
		s := Settings{"rsvpLockDate": raw}
		if _, ok := s.LockDate(); ok {
			t.Fatalf("expected %v not to parse", raw)
		}
	}
}
