package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
	"AprSight/internal/usecase"
	xlogger "AprSight/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeTimeout = 5 * time.Second

// LiveHub pushes each cycle's signal batch and trade lifecycle events to
// connected WebSocket clients. Slow clients are dropped rather than
// allowed to back up a broadcast.
type LiveHub struct {
	upgrader websocket.Upgrader
	logger   *xlogger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

var (
	_ usecase.SignalSink     = (*LiveHub)(nil)
	_ domrepo.EventPublisher = (*LiveHub)(nil)
)

func NewLiveHub(logger *xlogger.Logger) *LiveHub {
	return &LiveHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Dashboard is served from another origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the connection and keeps it registered until the
// client goes away.
func (h *LiveHub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return conn.Close()
	}
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client connected", xlogger.Int("clients", n))

	// Reads are discarded; the read loop only detects disconnects and
	// answers control frames.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

type liveEnvelope struct {
	Type string      `json:"type"`
	TS   time.Time   `json:"ts"`
	Data interface{} `json:"data"`
}

// BroadcastSignals sends one cycle's signal batch to every client.
func (h *LiveHub) BroadcastSignals(signals []*models.Signal) {
	h.broadcast(liveEnvelope{Type: "signals", TS: time.Now().UTC(), Data: signals})
}

// PublishTradeEvent mirrors trade opens and closes onto the socket so
// the hub can sit next to the Kafka publisher behind one fanout.
func (h *LiveHub) PublishTradeEvent(_ context.Context, ev *models.TradeEvent) error {
	h.broadcast(liveEnvelope{Type: "trade", TS: time.Now().UTC(), Data: ev})
	return nil
}

func (h *LiveHub) broadcast(env liveEnvelope) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(env); err != nil {
			h.logger.Warn("ws write failed, dropping client", xlogger.Error(err))
			h.drop(conn)
		}
	}
}

func (h *LiveHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Close disconnects every client and refuses new ones.
func (h *LiveHub) Close() error {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
	return nil
}
