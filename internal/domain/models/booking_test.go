package models

import (
	"reflect"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
)

func TestNormalizeBookingSettingsEmpty(t *testing.T) {
	s := NormalizeBookingSettings(docstore.Document{})

	if s.Enabled {
		t.Error("Enabled = true, want false")
	}
	if s.LeadTimeDays != DefaultBookingLeadTimeDays {
		t.Errorf("LeadTimeDays = %d, want %d", s.LeadTimeDays, DefaultBookingLeadTimeDays)
	}
	if s.SlotMinutes != DefaultBookingSlotMinutes {
		t.Errorf("SlotMinutes = %d, want %d", s.SlotMinutes, DefaultBookingSlotMinutes)
	}
	if !reflect.DeepEqual(s.OpenWeekdays, DefaultBookingWeekdays) {
		t.Errorf("OpenWeekdays = %#v, want defaults", s.OpenWeekdays)
	}
	if s.ConfirmationMessage != DefaultBookingConfirmation {
		t.Errorf("ConfirmationMessage = %q", s.ConfirmationMessage)
	}
}

func TestNormalizeBookingSettingsStoredValuesWin(t *testing.T) {
	doc := docstore.Document{
		"enabled":      true,
		"embedUrl":     "https://cal.example.com/embed",
		"leadTimeDays": 5,
		"openWeekdays": []any{"Sat", "Sun"},
	}

	s := NormalizeBookingSettings(doc)

	if !s.Enabled {
		t.Error("Enabled = false, want true")
	}
	if s.EmbedURL != "https://cal.example.com/embed" {
		t.Errorf("EmbedURL = %q", s.EmbedURL)
	}
	if s.LeadTimeDays != 5 {
		t.Errorf("LeadTimeDays = %d, want 5", s.LeadTimeDays)
	}
	if !reflect.DeepEqual(s.OpenWeekdays, []string{"Sat", "Sun"}) {
		t.Errorf("OpenWeekdays = %#v", s.OpenWeekdays)
	}
	// Untouched fields keep their defaults.
	if s.SlotMinutes != DefaultBookingSlotMinutes {
		t.Errorf("SlotMinutes = %d", s.SlotMinutes)
	}
}

func TestNormalizeBookingSettingsNumericDecoding(t *testing.T) {
	// JSON bodies decode numbers as float64 and BSON as int32; both must land.
	doc := docstore.Document{
		"leadTimeDays": float64(3),
		"slotMinutes":  int32(45),
	}

	s := NormalizeBookingSettings(doc)

	if s.LeadTimeDays != 3 {
		t.Errorf("LeadTimeDays = %d, want 3", s.LeadTimeDays)
	}
	if s.SlotMinutes != 45 {
		t.Errorf("SlotMinutes = %d, want 45", s.SlotMinutes)
	}
}

func TestNormalizeBookingSettingsIdempotent(t *testing.T) {
	doc := docstore.Document{
		"enabled":      true,
		"contactEmail": "book@example.com",
		"openWeekdays": []any{"Mon", "Wed"},
	}

	once := NormalizeBookingSettings(doc)
	twice := NormalizeBookingSettings(once.Document())

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalize not idempotent:\nonce  = %+v\ntwice = %+v", once, twice)
	}
}
