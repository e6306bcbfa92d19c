package models

// SyncIntent is the unit of work sent to the relay: one lifecycle action plus
// a snapshot of the event it applies to. Intents are ephemeral and never
// persisted.
type SyncIntent struct {
	Action SyncAction `json:"action"`
	Event  Event      `json:"event"`
}

// SyncResult is what the relay hands back for the caller to persist.
// DiscordMessageID is set only by a successful create. Skipped marks the
// update/delete no-op taken when the event carries no message reference.
type SyncResult struct {
	DiscordMessageID string `json:"discord_message_id,omitempty"`
	Skipped          bool   `json:"-"`
}
