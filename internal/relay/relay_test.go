package relay_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/auth"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/discord"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/models"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/relay"
)

type fakeGate struct {
	caller *auth.Caller
	err    error
	calls  int
}

func (g *fakeGate) Authorize(ctx context.Context, credential string) (*auth.Caller, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.caller, nil
}

type fakeMessenger struct {
	createCalls int
	editCalls   int
	deleteCalls int

	createID      string
	err           error
	lastEmbed     discord.Embed
	lastMessageID string
}

func (m *fakeMessenger) CreateMessage(ctx context.Context, embed discord.Embed) (string, error) {
	m.createCalls++
	m.lastEmbed = embed
	if m.err != nil {
		return "", m.err
	}
	return m.createID, nil
}

func (m *fakeMessenger) EditMessage(ctx context.Context, messageID string, embed discord.Embed) error {
	m.editCalls++
	m.lastMessageID = messageID
	m.lastEmbed = embed
	return m.err
}

func (m *fakeMessenger) DeleteMessage(ctx context.Context, messageID string) error {
	m.deleteCalls++
	m.lastMessageID = messageID
	return m.err
}

func (m *fakeMessenger) totalCalls() int {
	return m.createCalls + m.editCalls + m.deleteCalls
}

type fakeRecorder struct {
	entries []*models.SyncAttemptLog
}

func (r *fakeRecorder) Record(ctx context.Context, entry *models.SyncAttemptLog) {
	r.entries = append(r.entries, entry)
}

func leaderGate() *fakeGate {
	return &fakeGate{caller: &auth.Caller{UserID: "user-1", Role: auth.RoleLeader}}
}

func syncEvent() models.Event {
	return models.Event{
		ID:        uuid.New(),
		Title:     "Summer Skirmish",
		Field:     "Nukebase",
		StartTime: time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC),
	}
}

func TestSynchronize_ForbiddenBeforeExternalCall(t *testing.T) {
	messenger := &fakeMessenger{}
	rly := relay.NewRelay(&fakeGate{err: auth.ErrForbidden}, messenger, nil, zap.NewNop())

	for _, action := range []models.SyncAction{models.SyncActionCreate, models.SyncActionUpdate, models.SyncActionDelete} {
		_, err := rly.Synchronize(context.Background(), models.SyncIntent{Action: action, Event: syncEvent()}, "member-token")
		require.ErrorIs(t, err, auth.ErrForbidden)
	}

	assert.Zero(t, messenger.totalCalls(), "no external call may precede authorization")
}

func TestSynchronize_Unauthenticated(t *testing.T) {
	messenger := &fakeMessenger{}
	rly := relay.NewRelay(&fakeGate{err: auth.ErrUnauthenticated}, messenger, nil, zap.NewNop())

	_, err := rly.Synchronize(context.Background(), models.SyncIntent{Action: models.SyncActionCreate, Event: syncEvent()}, "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Zero(t, messenger.totalCalls())
}

func TestSynchronize_CreateSuccess(t *testing.T) {
	messenger := &fakeMessenger{createID: "123"}
	recorder := &fakeRecorder{}
	rly := relay.NewRelay(leaderGate(), messenger, recorder, zap.NewNop())

	result, err := rly.Synchronize(context.Background(), models.SyncIntent{
		Action: models.SyncActionCreate,
		Event:  syncEvent(),
	}, "leader-token")
	require.NoError(t, err)
	assert.Equal(t, "123", result.DiscordMessageID)
	assert.False(t, result.Skipped)
	assert.Equal(t, 1, messenger.createCalls)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, models.AttemptOutcomeSucceeded, recorder.entries[0].Outcome)
	require.NotNil(t, recorder.entries[0].DiscordMessageID)
	assert.Equal(t, "123", *recorder.entries[0].DiscordMessageID)
}

func TestSynchronize_CreateFailure(t *testing.T) {
	messenger := &fakeMessenger{err: &discord.APIError{StatusCode: http.StatusBadGateway, Body: "upstream down"}}
	recorder := &fakeRecorder{}
	rly := relay.NewRelay(leaderGate(), messenger, recorder, zap.NewNop())

	result, err := rly.Synchronize(context.Background(), models.SyncIntent{
		Action: models.SyncActionCreate,
		Event:  syncEvent(),
	}, "leader-token")
	require.Error(t, err)
	assert.Nil(t, result, "no reference may be produced on failure")

	var extErr *relay.ExternalCallError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, models.SyncActionCreate, extErr.Action)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, models.AttemptOutcomeFailed, recorder.entries[0].Outcome)
	require.NotNil(t, recorder.entries[0].HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, *recorder.entries[0].HTTPStatus)
}

func TestSynchronize_UpdateWithoutReferenceIsNoOp(t *testing.T) {
	messenger := &fakeMessenger{}
	recorder := &fakeRecorder{}
	rly := relay.NewRelay(leaderGate(), messenger, recorder, zap.NewNop())

	result, err := rly.Synchronize(context.Background(), models.SyncIntent{
		Action: models.SyncActionUpdate,
		Event:  syncEvent(), // no DiscordMessageID
	}, "leader-token")
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, messenger.totalCalls(), "nothing to mirror, zero external calls")

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, models.AttemptOutcomeSkipped, recorder.entries[0].Outcome)
}

func TestSynchronize_DeleteWithoutReferenceIsNoOp(t *testing.T) {
	messenger := &fakeMessenger{}
	rly := relay.NewRelay(leaderGate(), messenger, nil, zap.NewNop())

	result, err := rly.Synchronize(context.Background(), models.SyncIntent{
		Action: models.SyncActionDelete,
		Event:  syncEvent(),
	}, "leader-token")
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, messenger.totalCalls())
}

func TestSynchronize_UpdateTargetsExistingReference(t *testing.T) {
	messenger := &fakeMessenger{}
	rly := relay.NewRelay(leaderGate(), messenger, nil, zap.NewNop())

	event := syncEvent()
	event.DiscordMessageID = "123"

	result, err := rly.Synchronize(context.Background(), models.SyncIntent{
		Action: models.SyncActionUpdate,
		Event:  event,
	}, "leader-token")
	require.NoError(t, err)
	assert.Empty(t, result.DiscordMessageID, "update produces no new reference")
	assert.Equal(t, 1, messenger.editCalls)
	assert.Equal(t, "123", messenger.lastMessageID)

	// The embed shows the start time display-formatted; the event keeps its
	// ISO representation
	require.Len(t, messenger.lastEmbed.Fields, 2)
	assert.Equal(t, "Time", messenger.lastEmbed.Fields[1].Name)
	assert.Equal(t, "Tuesday, 01 Jul 2025 18:00 UTC", messenger.lastEmbed.Fields[1].Value)
	assert.Equal(t, "2025-07-01T18:00:00Z", messenger.lastEmbed.Timestamp)
}

func TestSynchronize_DeleteTwiceDoesNotPanicOrMisclassify(t *testing.T) {
	messenger := &fakeMessenger{}
	rly := relay.NewRelay(leaderGate(), messenger, nil, zap.NewNop())

	event := syncEvent()
	event.DiscordMessageID = "123"
	intent := models.SyncIntent{Action: models.SyncActionDelete, Event: event}

	_, err := rly.Synchronize(context.Background(), intent, "leader-token")
	require.NoError(t, err)

	// Second delete: the message is already gone
	messenger.err = &discord.APIError{StatusCode: http.StatusNotFound, Body: "Unknown Message"}
	_, err = rly.Synchronize(context.Background(), intent, "leader-token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrForbidden)
	assert.NotErrorIs(t, err, auth.ErrUnauthenticated)

	var extErr *relay.ExternalCallError
	assert.ErrorAs(t, err, &extErr)
	assert.Equal(t, 2, messenger.deleteCalls)
}

func TestSynchronize_UnknownAction(t *testing.T) {
	messenger := &fakeMessenger{}
	rly := relay.NewRelay(leaderGate(), messenger, nil, zap.NewNop())

	_, err := rly.Synchronize(context.Background(), models.SyncIntent{
		Action: models.SyncAction("upsert"),
		Event:  syncEvent(),
	}, "leader-token")
	require.ErrorIs(t, err, relay.ErrInvalidIntent)
	assert.Zero(t, messenger.totalCalls())
}

func TestSynchronize_CreateRequiresTitleAndStartTime(t *testing.T) {
	messenger := &fakeMessenger{}
	rly := relay.NewRelay(leaderGate(), messenger, nil, zap.NewNop())

	event := syncEvent()
	event.Title = ""
	_, err := rly.Synchronize(context.Background(), models.SyncIntent{Action: models.SyncActionCreate, Event: event}, "leader-token")
	require.ErrorIs(t, err, relay.ErrInvalidIntent)

	event = syncEvent()
	event.StartTime = time.Time{}
	_, err = rly.Synchronize(context.Background(), models.SyncIntent{Action: models.SyncActionCreate, Event: event}, "leader-token")
	require.ErrorIs(t, err, relay.ErrInvalidIntent)

	assert.Zero(t, messenger.totalCalls())
}

func TestSynchronize_NetworkErrorWrapped(t *testing.T) {
	netErr := fmt.Errorf("HTTP request failed: %w", errors.New("connection refused"))
	messenger := &fakeMessenger{err: netErr}
	rly := relay.NewRelay(leaderGate(), messenger, nil, zap.NewNop())

	event := syncEvent()
	event.DiscordMessageID = "123"
	_, err := rly.Synchronize(context.Background(), models.SyncIntent{Action: models.SyncActionUpdate, Event: event}, "leader-token")

	var extErr *relay.ExternalCallError
	require.ErrorAs(t, err, &extErr)
	assert.ErrorIs(t, err, netErr)
}
