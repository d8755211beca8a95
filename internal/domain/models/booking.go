// internal/domain/models/booking.go
package models

import (
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
)

// BookingSettings controls the appointment booking section of the site.
// A single document in the "booking_settings" collection holds them; when
// nothing has been saved yet, DefaultBookingSettings is what the site runs
// with.
type BookingSettings struct {
	Enabled             bool     `json:"enabled"`
	EmbedURL            string   `json:"embedUrl"`
	ContactEmail        string   `json:"contactEmail"`
	LeadTimeDays        int      `json:"leadTimeDays"`
	SlotMinutes         int      `json:"slotMinutes"`
	OpenWeekdays        []string `json:"openWeekdays"`
	ConfirmationMessage string   `json:"confirmationMessage"`

	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// BookingSettingsID is the fixed id of the singleton settings document.
const BookingSettingsID = "settings"

// Booking defaults applied when no settings document exists yet.
const (
	DefaultBookingLeadTimeDays = 2
	DefaultBookingSlotMinutes  = 60
	DefaultBookingConfirmation = "Thanks for booking. We will confirm your appointment by email."
)

// DefaultBookingWeekdays is the default set of days appointments can be
// booked on.
var DefaultBookingWeekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// DefaultBookingSettings returns the settings used before an admin has
// saved any.
func DefaultBookingSettings() BookingSettings {
	return BookingSettings{
		Enabled:             false,
		LeadTimeDays:        DefaultBookingLeadTimeDays,
		SlotMinutes:         DefaultBookingSlotMinutes,
		OpenWeekdays:        append([]string(nil), DefaultBookingWeekdays...),
		ConfirmationMessage: DefaultBookingConfirmation,
	}
}

// NormalizeBookingSettings fills a stored settings document out to a
// complete BookingSettings, defaulting each absent field the same way
// DefaultBookingSettings does.
func NormalizeBookingSettings(doc docstore.Document) BookingSettings {
	s := BookingSettings{
		Enabled:             docBool(doc, "enabled"),
		EmbedURL:            docString(doc, "embedUrl", ""),
		ContactEmail:        docString(doc, "contactEmail", ""),
		LeadTimeDays:        docInt(doc, "leadTimeDays", DefaultBookingLeadTimeDays),
		SlotMinutes:         docInt(doc, "slotMinutes", DefaultBookingSlotMinutes),
		OpenWeekdays:        docStrings(doc, "openWeekdays"),
		ConfirmationMessage: docString(doc, "confirmationMessage", DefaultBookingConfirmation),
		UpdatedAt:           docTime(doc, docstore.FieldUpdatedAt),
	}
	if _, ok := doc["openWeekdays"]; !ok {
		s.OpenWeekdays = append([]string(nil), DefaultBookingWeekdays...)
	}
	return s
}

// Document renders the settings for the gateway write path.
func (s BookingSettings) Document() docstore.Document {
	return docstore.Document{
		"enabled":             s.Enabled,
		"embedUrl":            s.EmbedURL,
		"contactEmail":        s.ContactEmail,
		"leadTimeDays":        s.LeadTimeDays,
		"slotMinutes":         s.SlotMinutes,
		"openWeekdays":        s.OpenWeekdays,
		"confirmationMessage": s.ConfirmationMessage,
	}
}
