package pipeline

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mukamba/internal/pkg/jwt"
	"mukamba/internal/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientMessage is what an agent may send over the socket
type clientMessage struct {
	Type string `json:"type"`
}

type serverMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// WSHandler streams pipeline events to connected agents
type WSHandler struct {
	hub        *Hub
	jwtService *jwt.Service
	logger     *zap.Logger
}

func NewWSHandler(hub *Hub, jwtService *jwt.Service, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:        hub,
		jwtService: jwtService,
		logger:     logger.Named("ws"),
	}
}

// RegisterRoutes mounts the socket endpoint. Browsers cannot set headers on
// the upgrade request, so it sits outside the JWT middleware.
func (h *WSHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/pipeline/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection
//
// @Summary Realtime pipeline events
// @Tags Pipeline
// @Param token query string true "Admin JWT"
// @Success 101
// @Failure 401 {object} map[string]interface{}
// @Router /pipeline/ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if claims.Role != "admin" {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	agentID := claims.AgentID
	cl := h.hub.Register(agentID, conn)
	h.logger.Info("agent connected", zap.String("agent_id", agentID))

	defer func() {
		h.hub.Unregister(agentID, conn)
		h.logger.Info("agent disconnected", zap.String("agent_id", agentID))
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.readLoop(cl, agentID)
}

func (c *client) reply(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err == nil {
		c.enqueue(data)
	}
}

// readLoop answers pings; events only flow server to client
func (h *WSHandler) readLoop(cl *client, agentID string) {
	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", zap.String("agent_id", agentID), zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			cl.reply(serverMessage{Type: "error", Code: "INVALID_JSON", Message: "Failed to parse message"})
			continue
		}

		switch msg.Type {
		case "ping":
			cl.reply(serverMessage{Type: "pong"})
		default:
			cl.reply(serverMessage{Type: "error", Code: "UNKNOWN_TYPE", Message: "Unknown message type: " + msg.Type})
		}
	}
}
