package models

import (
	"time"

	"github.com/google/uuid"
)

// Venues that club events can take place at. The event store enforces the
// same set through its column constraint; this list exists so callers can be
// rejected before a round trip.
var Venues = []string{
	"Area 49",
	"The Cloudmaker",
	"Nukebase",
}

// IsValidVenue reports whether field names one of the known venues
func IsValidVenue(field string) bool {
	for _, v := range Venues {
		if v == field {
			return true
		}
	}
	return false
}

// Event represents a calendar event row in the authoritative event store.
// DiscordMessageID is the only bridge to the mirrored Discord message: it is
// empty until a create sync succeeds, and losing it permanently detaches the
// event from its external message.
type Event struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Field            string    `json:"field"`
	StartTime        time.Time `json:"start_time"`
	Description      string    `json:"description,omitempty"`
	CreatedBy        string    `json:"created_by,omitempty"`
	DiscordMessageID string    `json:"discord_message_id,omitempty"`
}

// HasMessageReference reports whether the event is linked to an external
// Discord message
func (e *Event) HasMessageReference() bool {
	return e.DiscordMessageID != ""
}

// EventChanges holds the mutable fields of an event for update calls.
// Nil pointers mean "leave unchanged".
type EventChanges struct {
	Title       *string    `json:"title,omitempty"`
	Field       *string    `json:"field,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	Description *string    `json:"description,omitempty"`
}
