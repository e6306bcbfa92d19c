package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnauthenticated means the delegated credential is missing, invalid
	// or expired
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the caller is authenticated but its role is not
	// privileged
	ErrForbidden = errors.New("forbidden")
)

// Roles recognized by the profile store
const (
	RoleMember = "member"
	RoleLeader = "leader"
	RoleAdmin  = "admin"
)

// Caller is the resolved identity behind a delegated credential
type Caller struct {
	UserID string
	Role   string
}

// IsPrivileged reports whether the caller may trigger event synchronization
func (c *Caller) IsPrivileged() bool {
	return c.Role == RoleLeader || c.Role == RoleAdmin
}

// Gate validates delegated credentials against the identity provider and
// resolves the caller's role from the profile store. The role lookup always
// uses the service-role key rather than the caller's own token, so a caller
// cannot influence the role it is assigned. Nothing is cached: every request
// re-resolves identity and role.
type Gate struct {
	projectURL     string
	anonKey        string
	serviceRoleKey string
	httpClient     *http.Client
	logger         *zap.Logger
}

// NewGate creates a new authorization gate with dependencies
func NewGate(projectURL, anonKey, serviceRoleKey string, logger *zap.Logger) *Gate {
	return &Gate{
		projectURL:     strings.TrimRight(projectURL, "/"),
		anonKey:        anonKey,
		serviceRoleKey: serviceRoleKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Authorize resolves the caller behind the given credential and permits the
// request only for privileged roles. Returns ErrUnauthenticated for a
// missing or invalid credential and ErrForbidden for a valid identity with an
// unprivileged role.
func (g *Gate) Authorize(ctx context.Context, credential string) (*Caller, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrUnauthenticated
	}

	userID, err := g.resolveUser(ctx, credential)
	if err != nil {
		return nil, err
	}

	role, err := g.lookupRole(ctx, userID)
	if err != nil {
		return nil, err
	}

	caller := &Caller{UserID: userID, Role: role}
	if !caller.IsPrivileged() {
		g.logger.Info("Caller role is not privileged",
			zap.String("user_id", userID),
			zap.String("role", role),
		)
		return nil, ErrForbidden
	}

	return caller, nil
}

// resolveUser exchanges the delegated credential for a user identity via the
// identity provider's user endpoint
func (g *Gate) resolveUser(ctx context.Context, credential string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.projectURL+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("user lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Debug("Credential rejected by identity provider",
			zap.Int("status", resp.StatusCode),
		)
		return "", ErrUnauthenticated
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return "", fmt.Errorf("failed to decode user response: %w", err)
	}
	if user.ID == "" {
		return "", ErrUnauthenticated
	}

	return user.ID, nil
}

// lookupRole fetches the caller's role from the profiles table using the
// elevated service credential
func (g *Gate) lookupRole(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/profiles?id=eq.%s&select=role",
		g.projectURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("apikey", g.serviceRoleKey)
	req.Header.Set("Authorization", "Bearer "+g.serviceRoleKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("role lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("role lookup returned status %d", resp.StatusCode)
	}

	var profiles []struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&profiles); err != nil {
		return "", fmt.Errorf("failed to decode profile response: %w", err)
	}

	// No profile row means the user exists in auth but has never been
	// admitted to the club
	if len(profiles) == 0 || profiles[0].Role == "" {
		return "", ErrForbidden
	}

	return profiles[0].Role, nil
}
