package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseBodySize caps how much of a Discord response is read; error
// bodies beyond this are truncated in logs
const maxResponseBodySize = 64 * 1024

// APIError is returned when Discord answers with a non-success status
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord API returned status %d: %s", e.StatusCode, e.Body)
}

// Client posts, edits and deletes messages in a single fixed channel using a
// bot credential. It keeps no state between calls.
type Client struct {
	baseURL    string
	botToken   string
	channelID  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Discord channel client with dependencies
func NewClient(baseURL, botToken, channelID string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		botToken:  botToken,
		channelID: channelID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// CreateMessage posts a new embed message to the channel and returns the id
// Discord assigned to it
func (c *Client) CreateMessage(ctx context.Context, embed Embed) (string, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, c.channelID)

	body, err := c.do(ctx, http.MethodPost, endpoint, &messagePayload{Embeds: []Embed{embed}})
	if err != nil {
		return "", err
	}

	var msg struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", fmt.Errorf("failed to decode message response: %w", err)
	}
	if msg.ID == "" {
		return "", fmt.Errorf("message response contained no id")
	}

	c.logger.Info("Discord message created",
		zap.String("channel_id", c.channelID),
		zap.String("message_id", msg.ID),
	)
	return msg.ID, nil
}

// EditMessage replaces the embed of an existing message
func (c *Client) EditMessage(ctx context.Context, messageID string, embed Embed) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, c.channelID, messageID)

	if _, err := c.do(ctx, http.MethodPatch, endpoint, &messagePayload{Embeds: []Embed{embed}}); err != nil {
		return err
	}

	c.logger.Info("Discord message edited",
		zap.String("channel_id", c.channelID),
		zap.String("message_id", messageID),
	)
	return nil
}

// DeleteMessage removes a message from the channel. Deleting an already
// deleted message yields an APIError from Discord, which callers may treat
// as benign.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, c.channelID, messageID)

	if _, err := c.do(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return err
	}

	c.logger.Info("Discord message deleted",
		zap.String("channel_id", c.channelID),
		zap.String("message_id", messageID),
	)
	return nil
}

type messagePayload struct {
	Embeds []Embed `json:"embeds"`
}

// do performs one request against the Discord API and returns the response
// body for 2xx statuses
func (c *Client) do(ctx context.Context, method, endpoint string, payload *messagePayload) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if readErr != nil {
		c.logger.Warn("Failed to read Discord response body",
			zap.Error(readErr),
			zap.String("endpoint", endpoint),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}
