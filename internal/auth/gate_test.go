package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JoeBambaIsTaken/HRG-Project/internal/auth"
)

// fakeIdentityProvider stands in for the Supabase auth and profile endpoints.
// validTokens maps delegated credentials to user ids; roles maps user ids to
// profile roles.
type fakeIdentityProvider struct {
	validTokens map[string]string
	roles       map[string]string

	userCalls    int
	profileCalls int

	lastUserAuth    string
	lastUserAPIKey  string
	lastProfileAuth string
	lastProfileKey  string
}

func (f *fakeIdentityProvider) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		f.userCalls++
		f.lastUserAuth = r.Header.Get("Authorization")
		f.lastUserAPIKey = r.Header.Get("apikey")

		token := f.lastUserAuth
		userID, ok := f.validTokens[trimBearer(token)]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"id":%q,"aud":"authenticated"}`, userID)
	})

	mux.HandleFunc("/rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		f.profileCalls++
		f.lastProfileAuth = r.Header.Get("Authorization")
		f.lastProfileKey = r.Header.Get("apikey")

		userID := r.URL.Query().Get("id")
		role, ok := f.roles[trimQueryEq(userID)]
		if !ok {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprintf(w, `[{"role":%q}]`, role)
	})

	return mux
}

func trimBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) {
		return header[len(prefix):]
	}
	return ""
}

func trimQueryEq(filter string) string {
	const prefix = "eq."
	if len(filter) > len(prefix) {
		return filter[len(prefix):]
	}
	return ""
}

func newTestGate(t *testing.T, provider *fakeIdentityProvider) *auth.Gate {
	t.Helper()
	srv := httptest.NewServer(provider.handler())
	t.Cleanup(srv.Close)
	return auth.NewGate(srv.URL, "anon-key", "service-key", zap.NewNop())
}

func TestAuthorize_MissingCredential(t *testing.T) {
	provider := &fakeIdentityProvider{}
	gate := newTestGate(t, provider)

	_, err := gate.Authorize(context.Background(), "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Zero(t, provider.userCalls, "no network call for an empty credential")
}

func TestAuthorize_InvalidCredential(t *testing.T) {
	provider := &fakeIdentityProvider{validTokens: map[string]string{}}
	gate := newTestGate(t, provider)

	_, err := gate.Authorize(context.Background(), "expired-token")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Equal(t, 1, provider.userCalls)
	assert.Zero(t, provider.profileCalls, "role lookup skipped for invalid credential")
}

func TestAuthorize_MemberIsForbidden(t *testing.T) {
	provider := &fakeIdentityProvider{
		validTokens: map[string]string{"member-token": "user-1"},
		roles:       map[string]string{"user-1": "member"},
	}
	gate := newTestGate(t, provider)

	_, err := gate.Authorize(context.Background(), "member-token")
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestAuthorize_MissingProfileIsForbidden(t *testing.T) {
	provider := &fakeIdentityProvider{
		validTokens: map[string]string{"tok": "user-ghost"},
		roles:       map[string]string{},
	}
	gate := newTestGate(t, provider)

	_, err := gate.Authorize(context.Background(), "tok")
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestAuthorize_PrivilegedRoles(t *testing.T) {
	provider := &fakeIdentityProvider{
		validTokens: map[string]string{
			"leader-token": "user-1",
			"admin-token":  "user-2",
		},
		roles: map[string]string{
			"user-1": "leader",
			"user-2": "admin",
		},
	}
	gate := newTestGate(t, provider)

	caller, err := gate.Authorize(context.Background(), "leader-token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", caller.UserID)
	assert.Equal(t, auth.RoleLeader, caller.Role)
	assert.True(t, caller.IsPrivileged())

	caller, err = gate.Authorize(context.Background(), "admin-token")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, caller.Role)
}

// TestAuthorize_CredentialSeparation verifies the user lookup runs under the
// caller's token with the anon key, while the role lookup runs under the
// service key only. A caller-supplied role claim can never reach the role
// decision.
func TestAuthorize_CredentialSeparation(t *testing.T) {
	provider := &fakeIdentityProvider{
		validTokens: map[string]string{"leader-token": "user-1"},
		roles:       map[string]string{"user-1": "leader"},
	}
	gate := newTestGate(t, provider)

	_, err := gate.Authorize(context.Background(), "leader-token")
	require.NoError(t, err)

	assert.Equal(t, "Bearer leader-token", provider.lastUserAuth)
	assert.Equal(t, "anon-key", provider.lastUserAPIKey)
	assert.Equal(t, "Bearer service-key", provider.lastProfileAuth)
	assert.Equal(t, "service-key", provider.lastProfileKey)
}

// TestAuthorize_NoCaching verifies the gate re-resolves identity and role on
// every call.
func TestAuthorize_NoCaching(t *testing.T) {
	provider := &fakeIdentityProvider{
		validTokens: map[string]string{"leader-token": "user-1"},
		roles:       map[string]string{"user-1": "leader"},
	}
	gate := newTestGate(t, provider)

	for i := 0; i < 3; i++ {
		_, err := gate.Authorize(context.Background(), "leader-token")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, provider.userCalls)
	assert.Equal(t, 3, provider.profileCalls)
}
