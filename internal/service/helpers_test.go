package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
	"github.com/dnlflores/starter-ios-app-backend/internal/push"
	"github.com/dnlflores/starter-ios-app-backend/internal/repository"
	"github.com/dnlflores/starter-ios-app-backend/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel:     "silent",
		// One connection keeps the shared in-memory database alive and serializes access.
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &domain.DeviceTokenModel{}, &domain.IdentityModel{}))
	t.Cleanup(func() { database.Close(db) })
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type providerCall struct {
	n      push.Notification
	tokens []string
}

// fakeProvider records calls and fails the devices listed in failures.
type fakeProvider struct {
	name     string
	mu       sync.Mutex
	calls    []providerCall
	failures map[string]push.Failure
	err      error
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{name: name, failures: map[string]push.Failure{}}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Send(_ context.Context, n push.Notification, tokens []string) (*push.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, providerCall{n: n, tokens: append([]string(nil), tokens...)})
	if p.err != nil {
		return nil, p.err
	}
	res := &push.Result{}
	for _, t := range tokens {
		if f, ok := p.failures[t]; ok {
			f.Device = t
			res.Failed = append(res.Failed, f)
			continue
		}
		res.Sent++
	}
	return res, nil
}

func (p *fakeProvider) Fail(token string, status int, reason string) {
	p.mu.Lock()
	p.failures[token] = push.Failure{Status: status, Reason: reason}
	p.mu.Unlock()
}

func (p *fakeProvider) Calls() []providerCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]providerCall(nil), p.calls...)
}

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	hub      *hub.Hub
	tokens   TokenService
	idents   IdentityService
	apns     *fakeProvider
	fcm      *fakeProvider
	push     PushService
	bcast    BroadcastService
	notifier NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:    newTestDB(t),
		clock: newFakeClock(),
		hub:   hub.NewHub(),
		apns:  newFakeProvider("apns"),
		fcm:   newFakeProvider("fcm"),
	}
	f.tokens = NewTokenService(repository.NewGormDeviceTokenRepository(f.db), f.clock.Now)
	f.idents = NewIdentityService(repository.NewGormIdentityRepository(f.db), nil, 0)
	f.push = NewPushService(f.tokens, f.idents, map[domain.Platform]push.Provider{
		domain.PlatformIOS:     f.apns,
		domain.PlatformAndroid: f.fcm,
	}, f.clock.Now)
	f.bcast = NewBroadcastService(f.hub)
	f.notifier = NewNotificationService(f.bcast, f.push, time.Second)
	return f
}

func (f *fixture) addUser(t *testing.T, id int64, username, first, last string) {
	t.Helper()
	require.NoError(t, f.db.Create(&domain.IdentityModel{ID: id, Username: username, FirstName: first, LastName: last}).Error)
}

func (f *fixture) connect(userID int64) *hub.Client {
	c := hub.NewClient(uuid.NewString(), f.hub, nil, config.WebSocketConfig{SendBuffer: 8})
	c.Session.Authenticate(userID, "")
	f.hub.Register(userID, c)
	return c
}

func (f *fixture) activeTokens(t *testing.T, userID int64) []string {
	t.Helper()
	tokens, err := f.tokens.ActiveTokens(context.Background(), userID)
	require.NoError(t, err)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Token)
	}
	return out
}

// drain returns every frame queued on c without blocking.
func drain(t *testing.T, c *hub.Client) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	for {
		select {
		case raw, ok := <-c.Send:
			if !ok {
				return frames
			}
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &m))
			frames = append(frames, m)
		default:
			return frames
		}
	}
}
