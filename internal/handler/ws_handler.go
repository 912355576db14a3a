package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
	"github.com/dnlflores/starter-ios-app-backend/internal/service"
	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.ConnectionService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ConnectionService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.Ctx(r.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	// The request context ends when this handler returns; keep only its values.
	baseCtx := context.WithoutCancel(r.Context())

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	h.hub.Track(client)

	var authTimer *time.Timer
	if h.wsCfg.AuthTimeout > 0 {
		authTimer = time.AfterFunc(h.wsCfg.AuthTimeout, func() {
			h.service.HandleAuthTimeout(log.WithConn(baseCtx, client.ID, 0), client)
		})
	}

	l := log.Ctx(baseCtx)
	l.Debug().Str(log.FieldConnID, client.ID).Msg("websocket connected")

	go client.WritePump()
	go client.ReadPump(
		func(c *hub.Client, message []byte) {
			h.handleMessage(log.WithConn(baseCtx, c.ID, c.Session.GetUserID()), c, message)
		},
		func(c *hub.Client) {
			if authTimer != nil {
				authTimer.Stop()
			}
			h.service.HandleDisconnect(log.WithConn(baseCtx, c.ID, c.Session.GetUserID()), c)
		},
	)
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	l := log.Ctx(ctx)

	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrTextInvalidFormat))
		return
	}

	switch base.Type {
	case domain.MsgTypeAuth:
		var msg domain.AuthMessage
		// A token of the wrong JSON type is treated as missing.
		_ = json.Unmarshal(message, &msg)
		if err := h.service.HandleAuth(ctx, client, msg.Token); err != nil {
			l.Info().Err(err).Msg("websocket auth failed")
		}

	case domain.MsgTypePing:
		client.SendMessage(domain.NewPong())

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrTextUnknownMessage))
	}
}
