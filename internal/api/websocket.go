package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/junco466/animatronics-bridge/internal/command"
	"github.com/junco466/animatronics-bridge/internal/device"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/config"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/logging"
	"github.com/junco466/animatronics-bridge/internal/presence"
)

// WebSocket message types.
const (
	// Outbound event types.
	WSTypeDeviceStatus   = "device_status"
	WSTypeDeviceResponse = "device_response"
	WSTypeCommandSent    = "command_sent"
	WSTypePong           = "pong"
	WSTypeError          = "error"

	// Inbound request types.
	WSTypeSendCommand = "send_command"
	WSTypePingDevice  = "ping_device"
	WSTypePing        = "ping"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256
)

// WSMessage represents a message sent to or from a WebSocket client.
type WSMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSCommandPayload is the payload of inbound send_command and
// ping_device requests.
type WSCommandPayload struct {
	DeviceID string `json:"device_id"`
	Action   string `json:"action,omitempty"`
}

// WSCommandResult is the payload of the command_sent reply, delivered
// only to the client that issued the command.
type WSCommandResult struct {
	DeviceID string `json:"device_id"`
	Action   string `json:"action"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Hub manages WebSocket connections and broadcasts presence events.
//
// It implements presence.Notifier: the tracker calls DeviceStatus and
// DeviceResponse under its own mutex, which is what keeps per-device
// event order intact all the way to the wire buffers.
type Hub struct {
	cfg      config.WebSocketConfig
	registry *device.Registry
	commands *command.Router
	logger   *logging.Logger
	clients  map[*WSClient]struct{}
	mu       sync.RWMutex
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a new WebSocket hub.
func NewHub(cfg config.WebSocketConfig, registry *device.Registry, commands *command.Router, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:      cfg,
		registry: registry,
		commands: commands,
		logger:   logger,
		clients:  make(map[*WSClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub and replays the full registry
// snapshot to it, one device_status event per catalog device in catalog
// order, so late joiners see consistent state without a separate query.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "connection_id", client.id, "clients", h.ClientCount())

	for _, d := range h.registry.All() {
		data, err := marshalEvent(WSTypeDeviceStatus, notificationFor(d))
		if err != nil {
			h.logger.Error("failed to marshal snapshot event", "error", err)
			continue
		}
		client.trySend(data)
	}
}

// Unregister removes a client from the hub.
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during shutdown.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "connection_id", client.id, "clients", h.ClientCount())
}

// DeviceStatus broadcasts a presence notification to all clients.
func (h *Hub) DeviceStatus(n presence.Notification) {
	h.broadcast(WSTypeDeviceStatus, n)
}

// DeviceResponse broadcasts a device response event to all clients.
func (h *Hub) DeviceResponse(r presence.Response) {
	h.broadcast(WSTypeDeviceResponse, r)
}

// broadcast sends an event to every connected client. The client list
// is snapshotted under the hub lock, then released before sending.
func (h *Hub) broadcast(eventType string, payload any) {
	data, err := marshalEvent(eventType, payload)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.trySend(data)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// marshalEvent builds the wire form of one outbound event.
func marshalEvent(eventType string, payload any) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
}

// notificationFor converts a registry device into the notification
// shape used on the WebSocket channel.
func notificationFor(d device.Device) presence.Notification {
	return presence.Notification{
		ID:        d.ID,
		Name:      d.Name,
		Icon:      d.Icon,
		Connected: d.Connected,
		LastSeen:  d.LastSeen,
	}
}

// handleWebSocket upgrades the HTTP connection to a WebSocket connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		id:   uuid.NewString(),
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, wsSendBufferSize),
	}

	s.hub.Register(client)

	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

// readPump reads messages from the WebSocket connection.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "connection_id", c.id, "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "connection_id", c.id, "error", err)
			}
			return
		}
		// Any client message resets the read deadline (keeps connection
		// alive even if the browser doesn't answer protocol-level pings).
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming WebSocket message.
func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSendCommand:
		c.handleSendCommand(msg)
	case WSTypePingDevice:
		c.handlePingDevice(msg)
	case WSTypePing:
		c.sendEvent(WSTypePong, nil)
	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

// handleSendCommand routes a command request through the command router
// and replies with command_sent to this client only.
func (c *WSClient) handleSendCommand(msg WSMessage) {
	req, err := parseCommandPayload(msg)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if req.DeviceID == "" || req.Action == "" {
		c.sendError("send_command requires device_id and action")
		return
	}

	result := WSCommandResult{
		DeviceID: req.DeviceID,
		Action:   req.Action,
		Success:  true,
	}
	if err := c.hub.commands.Send(req.DeviceID, req.Action); err != nil {
		result.Success = false
		result.Error = err.Error()
		c.hub.logger.Warn("websocket command rejected",
			"connection_id", c.id,
			"device_id", req.DeviceID,
			"action", req.Action,
			"error", err,
		)
	}

	c.sendEvent(WSTypeCommandSent, result)
}

// handlePingDevice triggers an unconditional ping publish. No direct
// reply: the device answers on its response topic, which reaches the
// client as a broadcast device_response event.
func (c *WSClient) handlePingDevice(msg WSMessage) {
	req, err := parseCommandPayload(msg)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if req.DeviceID == "" {
		c.sendError("ping_device requires device_id")
		return
	}

	if err := c.hub.commands.Ping(req.DeviceID); err != nil {
		c.hub.logger.Warn("websocket ping rejected",
			"connection_id", c.id,
			"device_id", req.DeviceID,
			"error", err,
		)
	}
}

// parseCommandPayload extracts the command payload from an inbound message.
func parseCommandPayload(msg WSMessage) (WSCommandPayload, error) {
	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return WSCommandPayload{}, errInvalidPayload
	}
	var req WSCommandPayload
	if err := json.Unmarshal(payloadBytes, &req); err != nil {
		return WSCommandPayload{}, errInvalidPayload
	}
	return req, nil
}

// trySend attempts to send data to the client's send channel.
// It silently handles closed channels (client disconnected during broadcast)
// and full buffers (slow client).
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}

// sendEvent sends one event to this client only.
func (c *WSClient) sendEvent(eventType string, payload any) {
	data, err := marshalEvent(eventType, payload)
	if err != nil {
		return
	}
	c.trySend(data)
}

// sendError sends an error message to the client.
func (c *WSClient) sendError(message string) {
	c.sendEvent(WSTypeError, map[string]string{"message": message})
}
