package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/models"
)

// Store is the authoritative event store surface the orchestrator writes to
type Store interface {
	CreateEvent(ctx context.Context, credential string, event *models.Event) (*models.Event, error)
	UpdateEvent(ctx context.Context, credential string, id uuid.UUID, changes *models.EventChanges) (*models.Event, error)
	SetMessageReference(ctx context.Context, credential string, id uuid.UUID, messageID string) error
	DeleteEvent(ctx context.Context, credential string, id uuid.UUID) error
}

// Relay mirrors event lifecycle actions onto the external messaging channel.
// Satisfied by the in-process relay and by the HTTP relay client.
type Relay interface {
	Synchronize(ctx context.Context, intent models.SyncIntent, credential string) (*models.SyncResult, error)
}

// SyncWarning reports that the authoritative write succeeded but the external
// mirror did not follow. It is advisory: the caller's operation is complete.
type SyncWarning struct {
	Action models.SyncAction
	Err    error
}

// Message returns the user-facing warning text
func (w *SyncWarning) Message() string {
	return fmt.Sprintf("event saved locally, Discord notification failed (%s)", w.Action)
}

// Orchestrator sequences the authoritative write and the relay call for each
// event lifecycle action. The event store is the source of truth; the
// messaging channel is a best-effort mirror, so relay failures surface as
// warnings and never roll back or block the store write.
type Orchestrator struct {
	store  Store
	relay  Relay
	logger *zap.Logger
}

// New creates a new orchestrator with dependencies
func New(store Store, relay Relay, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		relay:  relay,
		logger: logger,
	}
}

// CreateEvent writes a new event to the store, announces it on the channel
// and attaches the resulting message reference back onto the stored event.
// The returned warning is non-nil when the announcement or the reference
// write-back failed; the event itself is saved either way.
func (o *Orchestrator) CreateEvent(ctx context.Context, credential string, input *models.Event) (*models.Event, *SyncWarning, error) {
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}

	created, err := o.store.CreateEvent(ctx, credential, input)
	if err != nil {
		return nil, nil, err
	}

	result, err := o.relay.Synchronize(ctx, models.SyncIntent{
		Action: models.SyncActionCreate,
		Event:  *created,
	}, credential)
	if err != nil {
		o.logger.Warn("Create sync failed, event remains unsynchronized",
			zap.String("event_id", created.ID.String()),
			zap.Error(err),
		)
		return created, &SyncWarning{Action: models.SyncActionCreate, Err: err}, nil
	}

	if err := o.store.SetMessageReference(ctx, credential, created.ID, result.DiscordMessageID); err != nil {
		// The message exists but its reference was lost; later update/delete
		// syncs for this event will no-op
		o.logger.Warn("Failed to persist message reference",
			zap.String("event_id", created.ID.String()),
			zap.String("discord_message_id", result.DiscordMessageID),
			zap.Error(err),
		)
		return created, &SyncWarning{Action: models.SyncActionCreate, Err: err}, nil
	}

	created.DiscordMessageID = result.DiscordMessageID
	return created, nil, nil
}

// UpdateEvent patches the event in the store and re-announces it. Events that
// were never mirrored (no message reference) skip the relay call entirely.
func (o *Orchestrator) UpdateEvent(ctx context.Context, credential string, id uuid.UUID, changes *models.EventChanges) (*models.Event, *SyncWarning, error) {
	if changes != nil && changes.Field != nil && !models.IsValidVenue(*changes.Field) {
		return nil, nil, fmt.Errorf("unknown venue: %s", *changes.Field)
	}

	updated, err := o.store.UpdateEvent(ctx, credential, id, changes)
	if err != nil {
		return nil, nil, err
	}

	if !updated.HasMessageReference() {
		o.logger.Debug("Event has no message reference, skipping update sync",
			zap.String("event_id", updated.ID.String()),
		)
		return updated, nil, nil
	}

	if _, err := o.relay.Synchronize(ctx, models.SyncIntent{
		Action: models.SyncActionUpdate,
		Event:  *updated,
	}, credential); err != nil {
		o.logger.Warn("Update sync failed, channel message is stale",
			zap.String("event_id", updated.ID.String()),
			zap.Error(err),
		)
		return updated, &SyncWarning{Action: models.SyncActionUpdate, Err: err}, nil
	}

	return updated, nil, nil
}

// DeleteEvent removes the channel message, then deletes the event from the
// store. The authoritative delete always proceeds; if the channel call fails
// the external message is orphaned, which is logged and reported as a
// warning.
func (o *Orchestrator) DeleteEvent(ctx context.Context, credential string, event *models.Event) (*SyncWarning, error) {
	var warning *SyncWarning

	if event.HasMessageReference() {
		if _, err := o.relay.Synchronize(ctx, models.SyncIntent{
			Action: models.SyncActionDelete,
			Event:  *event,
		}, credential); err != nil {
			o.logger.Warn("Delete sync failed, channel message may be orphaned",
				zap.String("event_id", event.ID.String()),
				zap.String("discord_message_id", event.DiscordMessageID),
				zap.Error(err),
			)
			warning = &SyncWarning{Action: models.SyncActionDelete, Err: err}
		}
	}

	if err := o.store.DeleteEvent(ctx, credential, event.ID); err != nil {
		return warning, err
	}

	return warning, nil
}

// validateInput rejects malformed create input before any write
func validateInput(input *models.Event) error {
	if input.Title == "" {
		return fmt.Errorf("event title is required")
	}
	if input.StartTime.IsZero() {
		return fmt.Errorf("event start time is required")
	}
	if !models.IsValidVenue(input.Field) {
		return fmt.Errorf("unknown venue: %s", input.Field)
	}
	return nil
}
