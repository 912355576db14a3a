package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
	"github.com/dnlflores/starter-ios-app-backend/internal/registry"
	"github.com/dnlflores/starter-ios-app-backend/internal/repository"
	"github.com/dnlflores/starter-ios-app-backend/internal/service"
	"github.com/dnlflores/starter-ios-app-backend/pkg/database"
	"github.com/dnlflores/starter-ios-app-backend/pkg/jwt"
	"github.com/dnlflores/starter-ios-app-backend/pkg/middleware"
)

const (
	testSecret      = "handler-secret"
	testInternalKey = "internal-key"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	hub      *hub.Hub
	tokens   service.TokenService
	notifier service.NotificationService
	engine   *gin.Engine
	server   *httptest.Server
}

func newTestServer(t *testing.T, wsCfg config.WebSocketConfig) *testServer {
	t.Helper()

	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel:     "silent",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &domain.DeviceTokenModel{}, &domain.IdentityModel{}))
	t.Cleanup(func() { database.Close(db) })

	verifier, err := jwt.NewVerifier(jwt.Options{Secret: testSecret})
	require.NoError(t, err)

	h := hub.NewHub()
	tokens := service.NewTokenService(repository.NewGormDeviceTokenRepository(db), nil)
	idents := service.NewIdentityService(repository.NewGormIdentityRepository(db), nil, 0)
	pushSvc := service.NewPushService(tokens, idents, nil, nil)
	notifier := service.NewNotificationService(service.NewBroadcastService(h), pushSvc, time.Second)
	conns := service.NewConnectionService(h, verifier, registry.NoopRegistry{})

	ws := NewWSHandler(h, conns, wsCfg)
	r := gin.New()
	NewHandler(tokens, notifier, pushSvc, h, ws, middleware.NewAuthMiddleware(verifier), testInternalKey).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		h.CloseAll()
		srv.Close()
		notifier.Wait()
	})

	return &testServer{hub: h, tokens: tokens, notifier: notifier, engine: r, server: srv}
}

func defaultWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   time.Second,
		PongWait:       5 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     16,
	}
}

func signToken(t *testing.T, secret string, claims gojwt.MapClaims) string {
	t.Helper()
	s, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func bearer(t *testing.T, userID int64) string {
	return "Bearer " + signToken(t, testSecret, gojwt.MapClaims{"id": userID, "username": "user"})
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m map[string]interface{}
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func authenticate(t *testing.T, s *testServer, userID int64) *websocket.Conn {
	t.Helper()
	conn := s.dial(t)
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":  "auth",
		"token": signToken(t, testSecret, gojwt.MapClaims{"id": userID}),
	}))
	frame := readFrame(t, conn)
	require.Equal(t, "auth_success", frame["type"])
	return conn
}
