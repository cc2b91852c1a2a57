package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	wshub "github.com/JAYDOLAR/GreenCommunity-sub001/internal/server/websocket"
	"github.com/JAYDOLAR/GreenCommunity-sub001/pkg/config"
)

type WebSocketHandler struct {
	hub      *wshub.WsHub
	upgrader websocket.Upgrader
	cfg      config.WebSocketConfig
	logger   zerolog.Logger
}

func NewWebSocketHandler(hub *wshub.WsHub, cfg config.WebSocketConfig, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return !cfg.CheckOrigin
			},
		},
		cfg:    cfg,
		logger: logger,
	}
}

// HandleConnection upgrades the request and registers the connection with
// the feed hub. The feed is write-only; inbound frames are drained only to
// detect the close.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register <- conn

	go h.keepAlive(conn)
	go func() {
		defer func() { h.hub.Unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *WebSocketHandler) keepAlive(conn *websocket.Conn) {
	period := h.cfg.PingPeriod
	if period == 0 {
		period = 30 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			return
		}
	}
}
