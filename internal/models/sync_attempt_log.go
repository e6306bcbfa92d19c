package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome values for a sync attempt
const (
	AttemptOutcomeSucceeded = "succeeded"
	AttemptOutcomeSkipped   = "skipped"
	AttemptOutcomeFailed    = "failed"
)

// SyncAttemptLog records one relay attempt against the Discord channel.
// Written best-effort for operator forensics; never consulted by the relay
// itself.
type SyncAttemptLog struct {
	ID               int64     `gorm:"primary_key;autoIncrement" json:"id"`
	EventID          uuid.UUID `gorm:"type:uuid;not null" json:"event_id"`
	Action           string    `gorm:"not null" json:"action"`
	DiscordMessageID *string   `json:"discord_message_id"`
	HTTPStatus       *int      `gorm:"type:integer" json:"http_status"`
	LatencyMs        *int      `gorm:"type:integer" json:"latency_ms"`
	Outcome          string    `gorm:"not null" json:"outcome"`
	LastError        *string   `json:"last_error"`
	CreatedAt        time.Time `gorm:"default:now()" json:"created_at"`
}

func (SyncAttemptLog) TableName() string {
	return "sync_attempt_log"
}
