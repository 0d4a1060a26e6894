package plot

import (
	"net/http"
	"sync"
	"time"

	"github.com/firedash/firedash/core"

	"github.com/gorilla/websocket"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WebSocketManager handles WebSocket connections
type WebSocketManager struct {
	sync.RWMutex
	clients       map[*websocket.Conn]struct{}
	upgrader      websocket.Upgrader
	broadcastChan chan WebSocketMessage
	log           core.Logger
	chart         *Chart // Reference to the chart instance
}

// NewWebSocketManager creates a new WebSocket manager
func NewWebSocketManager(log core.Logger, chart *Chart) *WebSocketManager {
	manager := &WebSocketManager{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		broadcastChan: make(chan WebSocketMessage, 100),
		log:           log,
		chart:         chart,
	}

	// Start broadcast handler
	go manager.handleBroadcasts()

	return manager
}

// handleBroadcasts processes messages from the broadcast channel
func (m *WebSocketManager) handleBroadcasts() {
	for msg := range m.broadcastChan {
		m.RLock()
		for conn := range m.clients {
			if err := conn.WriteJSON(msg); err != nil {
				m.log.Error("Error sending WebSocket message: ", err)
				conn.Close()
				// Removal happens in the client handler once the closed
				// connection is detected; the read lock forbids it here.
			}
		}
		m.RUnlock()
	}
}

// HandleWebSocket handles WebSocket connections
func (m *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Error("Failed to upgrade connection to WebSocket: ", err)
		return
	}

	// Register client
	m.Lock()
	m.clients[conn] = struct{}{}
	clientCount := len(m.clients)
	m.Unlock()

	m.log.Info("New WebSocket client connected, total: ", clientCount)

	// Send initial data
	go m.sendInitialData(conn)

	// Handle client messages
	go m.handleClient(conn)
}

// handleClient processes messages from a client
func (m *WebSocketManager) handleClient(conn *websocket.Conn) {
	defer func() {
		// Remove client on disconnect
		m.Lock()
		delete(m.clients, conn)
		m.log.Info("WebSocket client disconnected, remaining: ", len(m.clients))
		m.Unlock()
		conn.Close()
	}()

	// Keep connection alive with ping/pong
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte{}, time.Now().Add(10*time.Second))
	})

	// Read messages (we don't expect any, but need to handle disconnects)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.Error("WebSocket read error: ", err)
			}
			break
		}
	}
}

// sendInitialData sends the current trigger state and chart documents
// to a newly connected client.
func (m *WebSocketManager) sendInitialData(conn *websocket.Conn) {
	msg := WebSocketMessage{
		Type: "initialData",
		Payload: dashboardPayload{
			State:  m.chart.CurrentState(),
			Charts: m.chart.CurrentDocs(),
		},
	}

	if err := conn.WriteJSON(msg); err != nil {
		m.log.Error("Error sending initial data: ", err)
	}
}

// BroadcastDocs broadcasts refreshed chart documents to all clients
func (m *WebSocketManager) BroadcastDocs(docs []*ChartDoc) {
	m.broadcastChan <- WebSocketMessage{
		Type:    "charts",
		Payload: map[string]any{"charts": docs},
	}
}

// BroadcastState broadcasts a trigger state change to all clients
func (m *WebSocketManager) BroadcastState(event string, state RunState) {
	m.broadcastChan <- WebSocketMessage{
		Type:    event,
		Payload: map[string]any{"state": state},
	}
}
