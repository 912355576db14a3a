package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
	"github.com/dnlflores/starter-ios-app-backend/internal/service"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
	"github.com/dnlflores/starter-ios-app-backend/pkg/middleware"
	"github.com/dnlflores/starter-ios-app-backend/pkg/response"
)

// Handler handles HTTP requests for the realtime delivery service.
type Handler struct {
	tokens         service.TokenService
	notifier       service.NotificationService
	push           service.PushService
	hub            *hub.Hub
	ws             *WSHandler
	authMiddleware *middleware.AuthMiddleware
	internalKey    string
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	tokens service.TokenService,
	notifier service.NotificationService,
	push service.PushService,
	h *hub.Hub,
	ws *WSHandler,
	authMiddleware *middleware.AuthMiddleware,
	internalKey string,
) *Handler {
	return &Handler{
		tokens:         tokens,
		notifier:       notifier,
		push:           push,
		hub:            h,
		ws:             ws,
		authMiddleware: authMiddleware,
		internalKey:    internalKey,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	if h.ws != nil {
		r.GET("/ws", gin.WrapF(h.ws.HandleWebSocket))
	}

	api := r.Group("/api/v1")
	api.Use(h.authMiddleware.RequireAuth())
	{
		devices := api.Group("/devices")
		{
			devices.POST("", h.RegisterDevice)
			devices.DELETE("/:token", h.UnregisterDevice)
		}

		presence := api.Group("/presence")
		{
			presence.GET("/online", h.OnlineUsers)
			presence.GET("/users/:id", h.UserPresence)
		}
	}

	internal := r.Group("/internal/v1")
	internal.Use(middleware.RequireInternalKey(h.internalKey))
	{
		internal.POST("/chat-events", h.ChatEventCreated)
	}
}

// Health reports liveness and registry size.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, domain.HealthResponse{
		Status:      "ok",
		Connections: h.hub.ConnectionCount(),
		OnlineUsers: h.hub.Count(),
		Push:        h.push.Enabled(),
	})
}

// RegisterDevice stores a push token for the authenticated user.
func (h *Handler) RegisterDevice(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register device request")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.tokens.Register(ctx, userID, req.Token, req.Platform); err != nil {
		if errors.Is(err, service.ErrInvalidPlatform) || errors.Is(err, service.ErrInvalidToken) {
			response.BadRequest(c, err.Error())
			return
		}
		l.Error().Err(err).Msg("register device failed")
		response.InternalError(c, "failed to register device token")
		return
	}

	platform, _ := domain.ParsePlatform(req.Platform)
	response.Created(c, domain.DeviceResponse{Token: req.Token, Platform: platform, Active: true})
}

// UnregisterDevice deactivates a push token. Unknown tokens succeed.
func (h *Handler) UnregisterDevice(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	if err := h.tokens.Unregister(ctx, middleware.GetUserID(c), c.Param("token")); err != nil {
		l.Error().Err(err).Msg("unregister device failed")
		response.InternalError(c, "failed to unregister device token")
		return
	}

	response.Success(c, gin.H{"message": "device token unregistered"})
}

func (h *Handler) OnlineUsers(c *gin.Context) {
	users := h.hub.OnlineUsers()
	response.Success(c, domain.OnlineUsersResponse{Users: users, Count: len(users)})
}

func (h *Handler) UserPresence(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid user id")
		return
	}
	response.Success(c, domain.PresenceResponse{UserID: id, Online: h.hub.IsOnline(id)})
}

// ChatEventCreated is the storage layer's hook after a chat row is inserted.
// Delivery continues after the 202 is written.
func (h *Handler) ChatEventCreated(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var event domain.ChatEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		l.Warn().Err(err).Msg("invalid chat event")
		response.BadRequest(c, err.Error())
		return
	}
	if err := event.Validate(); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	h.notifier.OnChatEventCreated(ctx, &event)

	response.Accepted(c, gin.H{"id": event.ID})
}
