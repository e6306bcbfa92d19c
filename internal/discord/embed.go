package discord

import (
	"time"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/models"
)

// Embed colors per lifecycle action
const (
	colorCreate = 0x3b82f6
	colorUpdate = 0xfacc15
)

// Footers per lifecycle action
const (
	footerCreate = "HRG Airsoft – Upcoming Game"
	footerUpdate = "HRG Airsoft – Event Updated"
)

const noDescriptionPlaceholder = "No description provided."

// displayTimeFormat renders start times for humans in the channel. The event
// itself keeps RFC 3339; only the message display is formatted.
const displayTimeFormat = "Monday, 02 Jan 2006 15:04 MST"

// Embed mirrors the subset of Discord's embed object the relay uses
type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []EmbedField `json:"fields"`
	Footer      EmbedFooter  `json:"footer"`
	Timestamp   string       `json:"timestamp"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// BuildEventEmbed constructs the channel message embed for an event. Create
// and update announcements differ only in color and footer.
func BuildEventEmbed(event *models.Event, action models.SyncAction) Embed {
	description := event.Description
	if description == "" {
		description = noDescriptionPlaceholder
	}

	color := colorCreate
	footer := footerCreate
	if action == models.SyncActionUpdate {
		color = colorUpdate
		footer = footerUpdate
	}

	return Embed{
		Title:       "📅 " + event.Title,
		Description: description,
		Color:       color,
		Fields: []EmbedField{
			{Name: "Field", Value: event.Field, Inline: true},
			{Name: "Time", Value: event.StartTime.UTC().Format(displayTimeFormat), Inline: true},
		},
		Footer:    EmbedFooter{Text: footer},
		Timestamp: event.StartTime.UTC().Format(time.RFC3339),
	}
}
