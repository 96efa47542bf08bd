package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"folio.dev/internal/services"
	"folio.dev/internal/theme"
)

const (
	liveWriteTimeout = 5 * time.Second
	livePingInterval = 30 * time.Second
	liveSendBuffer   = 8
)

// LiveEvent is pushed to open pages
type LiveEvent struct {
	Type    string `json:"type"`
	Version uint64 `json:"version,omitempty"`
	Theme   string `json:"theme,omitempty"`
	CSS     string `json:"css,omitempty"`
}

type liveClient struct {
	send chan []byte
}

// LiveHub fans content reloads and theme changes out to websocket clients
type LiveHub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*liveClient]struct{}
	closed  bool
	done    chan struct{}
}

// NewLiveHub creates an idle hub
func NewLiveHub(logger *zap.Logger) *LiveHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveHub{
		logger:  logger.Named("live"),
		clients: make(map[*liveClient]struct{}),
		done:    make(chan struct{}),
	}
}

// Run forwards snapshots and theme changes as events until ctx is done,
// then disconnects every client
func (h *LiveHub) Run(ctx context.Context, snapshots <-chan *services.Snapshot, themes <-chan theme.Theme) {
	defer h.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			h.Broadcast(LiveEvent{Type: "reload", Version: snap.Version})
		case t, ok := <-themes:
			if !ok {
				themes = nil
				continue
			}
			h.Broadcast(LiveEvent{Type: "theme", Theme: string(t), CSS: theme.PaletteFor(t).CSSVariables()})
		}
	}
}

// Broadcast queues ev for every client. Clients whose buffer is full miss it.
func (h *LiveHub) Broadcast(ev LiveEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to encode live event", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("Live client lagging, dropping event", zap.String("type", ev.Type))
		}
	}
}

// Clients returns the number of connected clients
func (h *LiveHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *LiveHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
}

func (h *LiveHub) register() (*liveClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &liveClient{send: make(chan []byte, liveSendBuffer)}
	h.clients[c] = struct{}{}
	return c, true
}

func (h *LiveHub) unregister(c *liveClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and streams events until either side
// goes away
func (h *LiveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	client, ok := h.register()
	if !ok {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.unregister(client)

	// clients only listen; CloseRead handles control frames
	ctx := conn.CloseRead(r.Context())
	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case msg := <-client.send:
			wctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				h.logger.Debug("Live write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
