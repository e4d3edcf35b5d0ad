package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Settings is the flat event-configuration document.
type Settings map[string]any

// SettingsKeys lists the keys an admin may write through a settings merge.
var SettingsKeys = []string{
	"title", "subtitle", "date", "time", "rsvpBy", "rsvpLockDate",
	"inviteHeading", "debutanteName", "turningTagline", "suggestedColors",
	"attireTitle", "attireLadies", "attireGentlemen", "attireLadiesImage",
	"attireGentlemenImage", "debutantePhotoUrl", "entourageTitle",
	"rosesTitle", "candlesTitle", "treasuresTitle",
	"showRoses", "showCandles", "showTreasures",
	"giftNote", "venueName", "venueAddress", "mapQuery",
	"capacityLimit", "contactEmail",
}

// DefaultSettings returns the document written when none exists yet.
func DefaultSettings() Settings {
	return Settings{
		"title":           "Niky's 18th Birthday",
		"subtitle":        "A Tangled-inspired debut celebration under floating lanterns.",
		"date":            "March 15, 2025",
		"time":            "6:00 PM",
		"rsvpBy":          "November 30, 2025",
		"rsvpLockDate":    "2025-12-01T00:00:00Z",
		"inviteHeading":   "You Are Invited to a Night of Light and Wonder",
		"debutanteName":   "Niky",
		"turningTagline":  "is turning 18",
		"suggestedColors": "soft gold, lavender, sage, dusty rose",
		"attireTitle":     "Whimsical Formal",
		"attireLadies":    "Tulle dresses, dreamy layers, and floral elegance.",
		"attireGentlemen": "Tailored looks in muted tones, garden prince meets fairytale evening.",
		"entourageTitle":  "Entourage of Light and Love",
		"rosesTitle":      "18 Waltz of Flowers",
		"candlesTitle":    "18 Circle of Light",
		"treasuresTitle":  "18 Treasures from the Heart",
		"showRoses":       true,
		"showCandles":     true,
		"showTreasures":   true,
		"giftNote":        "Your presence is the most precious gift of all.",
		"venueName":       "The Sunflower Hall",
		"venueAddress":    "Manila",
		"mapQuery":        "The Sunflower Hall, Manila",
	}
}

// Merge overlays the allow-listed keys present in partial onto a copy of s.
// Keys outside SettingsKeys are dropped.
func (s Settings) Merge(partial map[string]any) Settings {
	out := make(Settings, len(s)+len(partial))
	for k, v := range s {
		out[k] = v
	}
	for _, k := range SettingsKeys {
		if v, ok := partial[k]; ok {
			out[k] = v
		}
	}
	return out
}

var lockDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// LockDate returns the RSVP lock time, if one is configured and parseable.
func (s Settings) LockDate() (time.Time, bool) {
	raw, ok := s["rsvpLockDate"].(string)
	if !ok {
		return time.Time{}, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range lockDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	// Bare dates are midnight UTC.
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// CapacityLimit returns the configured guest limit when it is a positive
// number. Numeric strings are accepted.
func (s Settings) CapacityLimit() (float64, bool) {
	var limit float64
	switch v := s["capacityLimit"].(type) {
	case float64:
		limit = v
	case int:
		limit = float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		limit = f
	default:
		return 0, false
	}
	if math.IsNaN(limit) || math.IsInf(limit, 0) || limit <= 0 {
		return 0, false
	}
	return limit, true
}

// ContactEmail returns the organizer address shown in rejection hints.
func (s Settings) ContactEmail() string {
	v, _ := s["contactEmail"].(string)
	return strings.TrimSpace(v)
}
