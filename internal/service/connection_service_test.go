package service

import (
	"context"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
	"github.com/dnlflores/starter-ios-app-backend/internal/registry"
	"github.com/dnlflores/starter-ios-app-backend/pkg/jwt"
)

const testSecret = "connection-secret"

type memRegistry struct {
	registry.NoopRegistry
	mu     sync.Mutex
	online map[int64]bool
}

func newMemRegistry() *memRegistry {
	return &memRegistry{online: map[int64]bool{}}
}

func (r *memRegistry) MarkOnline(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online[userID] = true
	return nil
}

func (r *memRegistry) MarkOffline(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.online, userID)
	return nil
}

func (r *memRegistry) IsOnline(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online[userID]
}

func signToken(t *testing.T, secret string, claims gojwt.MapClaims) string {
	t.Helper()
	s, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newConnectionFixture(t *testing.T) (*hub.Hub, ConnectionService, *memRegistry) {
	t.Helper()
	v, err := jwt.NewVerifier(jwt.Options{Secret: testSecret})
	require.NoError(t, err)
	h := hub.NewHub()
	reg := newMemRegistry()
	return h, NewConnectionService(h, v, reg), reg
}

func newClient(h *hub.Hub) *hub.Client {
	c := hub.NewClient(uuid.NewString(), h, nil, config.WebSocketConfig{SendBuffer: 8})
	h.Track(c)
	return c
}

func TestHandleAuthSuccess(t *testing.T) {
	h, svc, reg := newConnectionFixture(t)
	c := newClient(h)

	token := signToken(t, testSecret, gojwt.MapClaims{"id": 42, "username": "ada", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, svc.HandleAuth(context.Background(), c, token))

	frames := drain(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, "auth_success", frames[0]["type"])
	assert.Equal(t, float64(42), frames[0]["userId"])

	got, ok := h.Lookup(42)
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.True(t, c.Session.IsAuthenticated())
	assert.True(t, reg.IsOnline(42))
}

func TestHandleAuthRejections(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{name: "expired", token: func(t *testing.T) string {
			return signToken(t, testSecret, gojwt.MapClaims{"id": 42, "exp": time.Now().Add(-time.Minute).Unix()})
		}},
		{name: "bad signature", token: func(t *testing.T) string {
			return signToken(t, "someone-else", gojwt.MapClaims{"id": 42})
		}},
		{name: "missing", token: func(*testing.T) string { return "" }},
		{name: "garbage", token: func(*testing.T) string { return "abc.def.ghi" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, svc, reg := newConnectionFixture(t)
			c := newClient(h)

			require.Error(t, svc.HandleAuth(context.Background(), c, tc.token(t)))

			frames := drain(t, c)
			require.Len(t, frames, 1)
			assert.Equal(t, "auth_error", frames[0]["type"])
			assert.Equal(t, "Invalid token", frames[0]["message"])
			assert.True(t, c.IsClosed())
			assert.True(t, c.Session.IsClosed())
			assert.False(t, h.IsOnline(42))
			assert.False(t, reg.IsOnline(42))
		})
	}
}

func TestReauthenticateAsAnotherUser(t *testing.T) {
	h, svc, reg := newConnectionFixture(t)
	c := newClient(h)
	ctx := context.Background()

	require.NoError(t, svc.HandleAuth(ctx, c, signToken(t, testSecret, gojwt.MapClaims{"id": 1})))
	require.NoError(t, svc.HandleAuth(ctx, c, signToken(t, testSecret, gojwt.MapClaims{"id": 2})))

	assert.False(t, h.IsOnline(1))
	assert.True(t, h.IsOnline(2))
	assert.False(t, reg.IsOnline(1))
	assert.True(t, reg.IsOnline(2))
	assert.Equal(t, int64(2), c.Session.GetUserID())
}

func TestFailedReauthDropsRegistration(t *testing.T) {
	h, svc, reg := newConnectionFixture(t)
	c := newClient(h)
	ctx := context.Background()

	require.NoError(t, svc.HandleAuth(ctx, c, signToken(t, testSecret, gojwt.MapClaims{"id": 1})))
	require.Error(t, svc.HandleAuth(ctx, c, "nope"))

	assert.False(t, h.IsOnline(1))
	assert.False(t, reg.IsOnline(1))
	assert.True(t, c.IsClosed())
}

func TestHandleDisconnect(t *testing.T) {
	h, svc, reg := newConnectionFixture(t)
	ctx := context.Background()
	first := newClient(h)
	second := newClient(h)
	token := signToken(t, testSecret, gojwt.MapClaims{"id": 9})

	require.NoError(t, svc.HandleAuth(ctx, first, token))
	require.NoError(t, svc.HandleAuth(ctx, second, token))

	// The replaced connection closing late must not evict the newer one.
	svc.HandleDisconnect(ctx, first)
	got, ok := h.Lookup(9)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.True(t, reg.IsOnline(9))

	svc.HandleDisconnect(ctx, second)
	assert.False(t, h.IsOnline(9))
	assert.False(t, reg.IsOnline(9))
}

func TestHandleAuthTimeout(t *testing.T) {
	h, svc, _ := newConnectionFixture(t)
	ctx := context.Background()

	idle := newClient(h)
	svc.HandleAuthTimeout(ctx, idle)
	frames := drain(t, idle)
	require.Len(t, frames, 1)
	assert.Equal(t, "auth_error", frames[0]["type"])
	assert.Equal(t, "Authentication timeout", frames[0]["message"])
	assert.True(t, idle.IsClosed())

	authed := newClient(h)
	require.NoError(t, svc.HandleAuth(ctx, authed, signToken(t, testSecret, gojwt.MapClaims{"id": 3})))
	drain(t, authed)
	svc.HandleAuthTimeout(ctx, authed)
	assert.False(t, authed.IsClosed())
	assert.True(t, h.IsOnline(3))
}

func TestHandleAuthAfterCloseIsIgnored(t *testing.T) {
	h, svc, _ := newConnectionFixture(t)
	c := newClient(h)
	c.Close()

	err := svc.HandleAuth(context.Background(), c, signToken(t, testSecret, gojwt.MapClaims{"id": 5}))
	assert.ErrorIs(t, err, hub.ErrClientClosed)
	assert.False(t, h.IsOnline(5))
}

func TestAuthAfterTimeoutIsRefused(t *testing.T) {
	h, svc, reg := newConnectionFixture(t)
	ctx := context.Background()
	c := newClient(h)

	svc.HandleAuthTimeout(ctx, c)
	err := svc.HandleAuth(ctx, c, signToken(t, testSecret, gojwt.MapClaims{"id": 4}))
	assert.ErrorIs(t, err, hub.ErrClientClosed)

	frames := drain(t, c)
	require.Len(t, frames, 1)
	assert.Equal(t, "auth_error", frames[0]["type"])
	assert.False(t, h.IsOnline(4))
	assert.False(t, reg.IsOnline(4))
}

func TestAuthTimeoutRacingAuthSendsOneOutcome(t *testing.T) {
	for i := 0; i < 50; i++ {
		h, svc, _ := newConnectionFixture(t)
		ctx := context.Background()
		c := newClient(h)
		token := signToken(t, testSecret, gojwt.MapClaims{"id": 6})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.HandleAuth(ctx, c, token)
		}()
		go func() {
			defer wg.Done()
			svc.HandleAuthTimeout(ctx, c)
		}()
		wg.Wait()

		frames := drain(t, c)
		require.Len(t, frames, 1)
		if frames[0]["type"] == "auth_success" {
			assert.False(t, c.IsClosed())
			assert.True(t, h.IsOnline(6))
		} else {
			assert.Equal(t, "auth_error", frames[0]["type"])
			assert.True(t, c.IsClosed())
			assert.False(t, h.IsOnline(6))
		}
	}
}
