package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/terminal-bench/triagedesk/internal/models"
	"github.com/terminal-bench/triagedesk/internal/services/notification"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ObserverHandler streams broadcast events to websocket observers
type ObserverHandler struct {
	hub      *notification.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewObserverHandler creates a websocket observer handler
func NewObserverHandler(hub *notification.Hub, allowedOrigins []string, logger *zap.Logger) *ObserverHandler {
	return &ObserverHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// Connect upgrades the request and subscribes the connection to every event
func (h *ObserverHandler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	id, events, cleanup := h.hub.Subscribe()
	h.logger.Info("Observer connected",
		zap.String("observer_id", id.String()),
		zap.String("client_ip", c.ClientIP()),
	)

	done := make(chan struct{})
	go h.readPump(conn, done)
	go h.writePump(id, conn, events, done, cleanup)
}

// readPump discards inbound frames; it only exists to notice disconnects and answer pings
func (h *ObserverHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ObserverHandler) writePump(id uuid.UUID, conn *websocket.Conn, events <-chan models.Event, done <-chan struct{}, cleanup func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cleanup()
		conn.Close()
		h.logger.Info("Observer disconnected", zap.String("observer_id", id.String()))
	}()

	for {
		select {
		case evt, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				h.logger.Debug("Observer write failed",
					zap.String("observer_id", id.String()),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || containsOrigin(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || containsOrigin(allowed, origin)
	}
}

func containsOrigin(origins []string, origin string) bool {
	for _, o := range origins {
		if o == origin {
			return true
		}
	}
	return false
}
