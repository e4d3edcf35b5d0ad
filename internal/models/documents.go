package models

// ProgramItem is one slot in the event schedule.
type ProgramItem struct {
	Time  string `json:"time"`
	Title string `json:"title"`
	Notes string `json:"notes"`
}

// Program is the ordered schedule document.
type Program struct {
	Items []ProgramItem `json:"items" validate:"required"`
}

// DefaultProgram returns an empty schedule.
func DefaultProgram() Program {
	return Program{Items: []ProgramItem{}}
}

// Participant is a person featured in one of the entourage categories
type Participant struct {
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}

// Participants holds the fixed entourage categories.
type Participants struct {
	Roses     []Participant `json:"roses" validate:"required"`
	Candles   []Participant `json:"candles" validate:"required"`
	Treasures []Participant `json:"treasures" validate:"required"`
}

// DefaultParticipants returns empty categories.
func DefaultParticipants() Participants {
	return Participants{
		Roses:     []Participant{},
		Candles:   []Participant{},
		Treasures: []Participant{},
	}
}
