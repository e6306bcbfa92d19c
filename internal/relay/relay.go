package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/auth"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/discord"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/models"
)

// ErrInvalidIntent means the sync intent is malformed: unknown action or an
// event snapshot missing required fields
var ErrInvalidIntent = errors.New("invalid sync intent")

// ExternalCallError wraps a failed call to the messaging channel. The
// authoritative write is unaffected; callers decide whether and when to
// retry.
type ExternalCallError struct {
	Action models.SyncAction
	Err    error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("external channel call failed for action %s: %v", e.Action, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// Authorizer resolves and authorizes a delegated credential
type Authorizer interface {
	Authorize(ctx context.Context, credential string) (*auth.Caller, error)
}

// Messenger is the external messaging channel surface the relay maps sync
// actions onto
type Messenger interface {
	CreateMessage(ctx context.Context, embed discord.Embed) (string, error)
	EditMessage(ctx context.Context, messageID string, embed discord.Embed) error
	DeleteMessage(ctx context.Context, messageID string) error
}

// AttemptRecorder persists attempt bookkeeping; implementations must never
// fail the caller
type AttemptRecorder interface {
	Record(ctx context.Context, entry *models.SyncAttemptLog)
}

// Relay translates one SyncIntent into at most one call against the external
// messaging channel. It holds no state between calls, performs no retries and
// never touches the event store; the returned SyncResult is the caller's to
// persist.
type Relay struct {
	gate      Authorizer
	messenger Messenger
	recorder  AttemptRecorder
	logger    *zap.Logger
}

// NewRelay creates a new relay with dependencies. recorder may be nil, in
// which case no attempt bookkeeping is written.
func NewRelay(gate Authorizer, messenger Messenger, recorder AttemptRecorder, logger *zap.Logger) *Relay {
	return &Relay{
		gate:      gate,
		messenger: messenger,
		recorder:  recorder,
		logger:    logger,
	}
}

// Synchronize authorizes the caller and mirrors the intent's lifecycle action
// onto the messaging channel.
//
// Authorization failures and malformed intents are returned before any
// external call. For update/delete intents whose event carries no message
// reference there is nothing to mirror, so the relay returns a skipped
// success with zero external calls. External failures come back as
// *ExternalCallError; the relay reports them once and leaves retry policy to
// the caller.
func (r *Relay) Synchronize(ctx context.Context, intent models.SyncIntent, credential string) (*models.SyncResult, error) {
	if _, err := r.gate.Authorize(ctx, credential); err != nil {
		return nil, err
	}

	if err := validateIntent(&intent); err != nil {
		return nil, err
	}

	// update/delete with no reference: the event was never mirrored (or its
	// create sync failed), so there is nothing to act on
	if intent.Action != models.SyncActionCreate && !intent.Event.HasMessageReference() {
		r.logger.Info("Skipping sync, event has no message reference",
			zap.String("event_id", intent.Event.ID.String()),
			zap.String("action", string(intent.Action)),
		)
		r.record(ctx, &intent, models.AttemptOutcomeSkipped, "", nil, 0, nil)
		return &models.SyncResult{Skipped: true}, nil
	}

	embed := discord.BuildEventEmbed(&intent.Event, intent.Action)
	startedAt := time.Now()

	var messageID string
	var err error
	switch intent.Action {
	case models.SyncActionCreate:
		messageID, err = r.messenger.CreateMessage(ctx, embed)
	case models.SyncActionUpdate:
		err = r.messenger.EditMessage(ctx, intent.Event.DiscordMessageID, embed)
	case models.SyncActionDelete:
		err = r.messenger.DeleteMessage(ctx, intent.Event.DiscordMessageID)
	}

	latency := time.Since(startedAt)

	if err != nil {
		r.logger.Error("External channel call failed",
			zap.String("event_id", intent.Event.ID.String()),
			zap.String("action", string(intent.Action)),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		r.record(ctx, &intent, models.AttemptOutcomeFailed, "", err, latency, httpStatusOf(err))
		return nil, &ExternalCallError{Action: intent.Action, Err: err}
	}

	reference := intent.Event.DiscordMessageID
	if intent.Action == models.SyncActionCreate {
		reference = messageID
	}
	r.record(ctx, &intent, models.AttemptOutcomeSucceeded, reference, nil, latency, nil)

	result := &models.SyncResult{}
	if intent.Action == models.SyncActionCreate {
		result.DiscordMessageID = messageID
	}
	return result, nil
}

// validateIntent rejects malformed intents at the boundary
func validateIntent(intent *models.SyncIntent) error {
	switch intent.Action {
	case models.SyncActionCreate, models.SyncActionUpdate, models.SyncActionDelete:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidIntent, intent.Action)
	}

	if intent.Action == models.SyncActionCreate {
		if intent.Event.Title == "" {
			return fmt.Errorf("%w: event title is required", ErrInvalidIntent)
		}
		if intent.Event.StartTime.IsZero() {
			return fmt.Errorf("%w: event start time is required", ErrInvalidIntent)
		}
	}

	return nil
}

// record writes one attempt log row if a recorder is configured
func (r *Relay) record(ctx context.Context, intent *models.SyncIntent, outcome, messageID string, callErr error, latency time.Duration, httpStatus *int) {
	if r.recorder == nil {
		return
	}

	entry := &models.SyncAttemptLog{
		EventID:    intent.Event.ID,
		Action:     string(intent.Action),
		Outcome:    outcome,
		HTTPStatus: httpStatus,
	}
	if messageID != "" {
		entry.DiscordMessageID = &messageID
	}
	if latency > 0 {
		latencyMs := int(latency.Milliseconds())
		entry.LatencyMs = &latencyMs
	}
	if callErr != nil {
		errMsg := callErr.Error()
		entry.LastError = &errMsg
	}

	r.recorder.Record(ctx, entry)
}

// httpStatusOf extracts the HTTP status from a Discord API error, if any
func httpStatusOf(err error) *int {
	var apiErr *discord.APIError
	if errors.As(err, &apiErr) {
		return &apiErr.StatusCode
	}
	return nil
}
