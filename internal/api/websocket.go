package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// BroadcastInterval is how often snapshots are pushed to clients
	BroadcastInterval = 100 * time.Millisecond

	wsWriteWait    = 2 * time.Second
	wsMaxReadBytes = 4096
)

// errUnknownCommand is returned for WebSocket commands the hub does not route
var errUnknownCommand = errors.New("unknown command")

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn *websocket.Conn
	ip   string
}

// wsCommand is a control message sent by a client
type wsCommand struct {
	Command string  `json:"command"` // start_game, fire, thrust, turn
	Value   float64 `json:"value"`
}

// WebSocketHub manages all WebSocket connections with DoS protection
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	maxClients int
	wsLimiter  *WebSocketRateLimiter
	upgrader   websocket.Upgrader
	auth       *TokenAuth
	engine     EngineInterface
}

// NewWebSocketHub creates a hub. Clients may send commands to engine when
// they pass auth; origins are checked against origins.
func NewWebSocketHub(engine EngineInterface, maxClients int, origins *OriginPolicy, auth *TokenAuth) *WebSocketHub {
	h := &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		maxClients: maxClients,
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		auth:       auth,
		engine:     engine,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins == nil || origins.Allow(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run processes registrations and broadcasts until Stop
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.remove(conn)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()

			UpdateWSConnections(count)
			IncrementWSMessages()
		}
	}
}

// remove drops conn; h.mu must be held
func (h *WebSocketHub) remove(conn *websocket.Conn) {
	if client, ok := h.clients[conn]; ok {
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		h.remove(conn)
	}
	UpdateWSConnections(0)
}

// Stop closes every client and ends Run
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg := map[string]interface{}{
		"event": event,
		"data":  data,
	}

	jsonBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes snapshots to clients and engine counters to
// metrics every BroadcastInterval
func (h *WebSocketHub) StartBroadcastLoop(stats *StatsRecorder) {
	ticker := time.NewTicker(BroadcastInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			if stats != nil {
				stats.Record(h.engine.Stats())
				evStats := h.engine.GetEventLogStats()
				total, _ := evStats["total"].(uint64)
				dropped, _ := evStats["dropped"].(uint64)
				stats.RecordEventLog(total, dropped)
			}

			if h.ClientCount() == 0 {
				continue
			}
			h.Broadcast("sim:snapshot", h.engine.CopySnapshot())
		}
	}()
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); h.maxClients > 0 && total >= h.maxClients {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	// Browsers cannot set headers on upgrade requests
	canCommand := h.auth.Check(r) || h.auth.checkToken(r.URL.Query().Get("token"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}
	conn.SetReadLimit(wsMaxReadBytes)

	select {
	case h.register <- &wsClient{conn: conn, ip: ip}:
	case <-h.stopChan:
		conn.Close()
		h.wsLimiter.Release(ip)
		return
	}

	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.stopChan:
			}
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			var cmd wsCommand
			if err := json.Unmarshal(message, &cmd); err != nil {
				continue
			}
			if !canCommand {
				continue
			}
			if err := h.dispatch(cmd); err != nil {
				log.Printf("⚠️ WebSocket command %q from %s failed: %v", cmd.Command, ip, err)
			}
		}
	}()
}

func (h *WebSocketHub) dispatch(cmd wsCommand) error {
	switch cmd.Command {
	case "start_game":
		return h.engine.StartGame()
	case "fire":
		return h.engine.Fire(cmd.Value != 0)
	case "thrust":
		return h.engine.Thrust(cmd.Value)
	case "turn":
		return h.engine.Turn(cmd.Value)
	}
	return errors.Wrapf(errUnknownCommand, "%q", cmd.Command)
}
