// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ic-control/internal/model"
	"ic-control/internal/service"
	"ic-control/internal/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// WebSocketHandler streams session log batches and events to browsers
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	session     *service.DeviceSession
	logger      *utils.ServiceLogger
	eventBus    *EventBus
}

// NewWebSocketHandler creates a new WebSocket handler. The bus must already
// receive the session's events.
func NewWebSocketHandler(session *service.DeviceSession, bus *EventBus, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	h := &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		session:     session,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
		eventBus:    bus,
	}

	go h.forward(bus.Subscribe())
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/log", h.HandleLogConnection)
	router.GET("/events", h.HandleEventConnection)
}

// Close disconnects every client
func (h *WebSocketHandler) Close() {
	h.connections.Close()
}

// HandleLogConnection streams log batches, starting with the current log
// @Summary Stream communication log
// @Tags websocket
// @Router /ws/log [get]
func (h *WebSocketHandler) HandleLogConnection(c *gin.Context) {
	client, ok := h.accept(c, ClientTypeLog)
	if !ok {
		return
	}
	h.sendMessage(client, &WebSocketMessage{
		Type:      "log_snapshot",
		Data:      h.session.Transport().Entries(),
		Timestamp: time.Now(),
	})
}

// HandleEventConnection streams session events, starting with a snapshot
// @Summary Stream session events
// @Tags websocket
// @Router /ws/events [get]
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	client, ok := h.accept(c, ClientTypeEvents)
	if !ok {
		return
	}
	h.sendMessage(client, &WebSocketMessage{
		Type:      "session_snapshot",
		Data:      h.session.Snapshot(),
		Timestamp: time.Now(),
	})
}

func (h *WebSocketHandler) accept(c *gin.Context, clientType string) (*Client, bool) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return nil, false
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Type:        clientType,
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("type", clientType),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
	return client, true
}

// forward turns bus events into broadcasts
func (h *WebSocketHandler) forward(events <-chan model.SessionEvent) {
	for event := range events {
		payload, err := json.Marshal(&WebSocketMessage{
			Type:      string(event.Type),
			Data:      event.Data,
			Timestamp: event.Timestamp,
		})
		if err != nil {
			h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
			continue
		}

		topic := string(event.Type)
		if event.Type == model.EventLogFlushed || event.Type == model.EventLogCleared {
			h.warnDropped(h.connections.Broadcast(ClientTypeLog, topic, payload))
		}
		h.warnDropped(h.connections.Broadcast(ClientTypeEvents, topic, payload))
	}
}

func (h *WebSocketHandler) warnDropped(ids []string) {
	for _, id := range ids {
		h.logger.Warn("Client send channel full during broadcast", zap.String("client_id", id))
	}
}

func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}
		h.handleClientMessage(client, &message)
	}
}

func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe", "unsubscribe":
		topic := topicOf(message)
		if topic == "" {
			h.sendError(client, "topic is required")
			return
		}
		if message.Type == "subscribe" {
			client.Subscribe(topic)
		} else {
			client.Unsubscribe(topic)
		}
		h.sendMessage(client, &WebSocketMessage{
			Type:      message.Type + "_confirmed",
			Data:      map[string]interface{}{"topic": topic},
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
			RequestID: message.RequestID,
		})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
		h.sendError(client, "unknown message type: "+message.Type)
	}
}

func topicOf(message *WebSocketMessage) string {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	topic, _ := data["topic"].(string)
	return topic
}

// sendMessage queues a direct reply. It may race a concurrent unregister, so
// it goes through the manager's lock.
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}
	if !h.connections.SendTo(client, messageBytes) {
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
	})
}

// GetConnectionStats returns connection statistics
// @Summary WebSocket connection statistics
// @Tags websocket
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /ws/stats [get]
func (h *WebSocketHandler) GetConnectionStats(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "WebSocket statistics", h.connections.GetStats())
}
