package eventstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/models"
)

// Client talks to the authoritative event store's REST interface. Every call
// carries the caller's delegated token alongside the anon API key, so the
// store's own row-level rules stay in force; the client adds no authority of
// its own.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new event store client with dependencies
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// CreateEvent inserts a new event and returns the stored row, including the
// id the store assigned
func (c *Client) CreateEvent(ctx context.Context, credential string, event *models.Event) (*models.Event, error) {
	payload := map[string]interface{}{
		"title":      event.Title,
		"field":      event.Field,
		"start_time": event.StartTime.UTC().Format(time.RFC3339),
		"created_by": event.CreatedBy,
	}
	if event.Description != "" {
		payload["description"] = event.Description
	}

	body, err := c.do(ctx, credential, http.MethodPost, c.eventsURL(""), payload, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	created, err := decodeSingleEvent(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Event created",
		zap.String("event_id", created.ID.String()),
		zap.String("title", created.Title),
	)
	return created, nil
}

// UpdateEvent patches the mutable fields of an event and returns the updated
// row
func (c *Client) UpdateEvent(ctx context.Context, credential string, id uuid.UUID, changes *models.EventChanges) (*models.Event, error) {
	body, err := c.do(ctx, credential, http.MethodPatch, c.eventsURL(id.String()), changes, true)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", id, err)
	}

	return decodeSingleEvent(body)
}

// SetMessageReference attaches the external message id to an event after a
// successful create sync
func (c *Client) SetMessageReference(ctx context.Context, credential string, id uuid.UUID, messageID string) error {
	payload := map[string]string{"discord_message_id": messageID}

	if _, err := c.do(ctx, credential, http.MethodPatch, c.eventsURL(id.String()), payload, false); err != nil {
		return fmt.Errorf("failed to set message reference on event %s: %w", id, err)
	}

	c.logger.Info("Message reference attached to event",
		zap.String("event_id", id.String()),
		zap.String("discord_message_id", messageID),
	)
	return nil
}

// DeleteEvent removes an event from the store
func (c *Client) DeleteEvent(ctx context.Context, credential string, id uuid.UUID) error {
	if _, err := c.do(ctx, credential, http.MethodDelete, c.eventsURL(id.String()), nil, false); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}

	c.logger.Info("Event deleted",
		zap.String("event_id", id.String()),
	)
	return nil
}

// GetEvent fetches a single event by id
func (c *Client) GetEvent(ctx context.Context, credential string, id uuid.UUID) (*models.Event, error) {
	body, err := c.do(ctx, credential, http.MethodGet, c.eventsURL(id.String()), nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event %s: %w", id, err)
	}

	return decodeSingleEvent(body)
}

// ListEvents returns all events ordered by start time ascending
func (c *Client) ListEvents(ctx context.Context, credential string) ([]models.Event, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/events?select=*&order=start_time.asc", c.baseURL)

	body, err := c.do(ctx, credential, http.MethodGet, endpoint, nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var events []models.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// eventsURL builds the events endpoint, optionally filtered to one id
func (c *Client) eventsURL(id string) string {
	if id == "" {
		return c.baseURL + "/rest/v1/events"
	}
	return fmt.Sprintf("%s/rest/v1/events?id=eq.%s", c.baseURL, url.QueryEscape(id))
}

// do performs one request against the store. wantRepresentation asks the
// store to echo the affected rows back.
func (c *Client) do(ctx context.Context, credential, method, endpoint string, payload interface{}, wantRepresentation bool) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+credential)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if wantRepresentation {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("event store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

// decodeSingleEvent unwraps the one-row array the store returns for filtered
// reads and representation echoes
func decodeSingleEvent(body []byte) (*models.Event, error) {
	var events []models.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode event response: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event not found")
	}
	return &events[0], nil
}
