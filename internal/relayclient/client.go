package relayclient

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

	"github.com/JoeBambaIsTaken/HRG-Project/internal/auth"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/models"
	"github.com/JoeBambaIsTaken/HRG-Project/internal/relay"
)

// maxResponseBodySize caps how much of a relay response is read
const maxResponseBodySize = 64 * 1024

// Client invokes a remotely deployed relay over HTTP. It satisfies the
// orchestrator's Relay interface so deployments can run the orchestrator and
// relay in separate processes without changing call sites.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new relay HTTP client with dependencies
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger,
	}
}

// Synchronize posts the intent to the relay endpoint with the caller's
// delegated credential and maps HTTP statuses back onto the relay's error
// taxonomy.
func (c *Client) Synchronize(ctx context.Context, intent models.SyncIntent, credential string) (*models.SyncResult, error) {
	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sync intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sync", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &relay.ExternalCallError{Action: intent.Action, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if readErr != nil {
		c.logger.Warn("Failed to read relay response body",
			zap.Error(readErr),
		)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, auth.ErrUnauthenticated
	case resp.StatusCode == http.StatusForbidden:
		return nil, auth.ErrForbidden
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", relay.ErrInvalidIntent, strings.TrimSpace(string(body)))
	default:
		return nil, &relay.ExternalCallError{
			Action: intent.Action,
			Err:    fmt.Errorf("relay returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var result models.SyncResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode relay response: %w", err)
	}
	return &result, nil
}
