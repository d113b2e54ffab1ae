package websocket

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to a user id
type Authenticator interface {
	ValidateToken(token string) (string, error)
}

// Handler handles WebSocket HTTP upgrade requests
type Handler struct {
	hub            *Hub
	auth           Authenticator
	originPatterns []string
	skipOriginTest bool
}

// NewHandler creates a new WebSocket handler. origins are the allowed client
// origins as full URLs or bare hosts; "*" disables the origin check.
func NewHandler(hub *Hub, auth Authenticator, origins []string) *Handler {
	h := &Handler{hub: hub, auth: auth}
	for _, origin := range origins {
		if origin == "*" {
			h.skipOriginTest = true
			continue
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			h.originPatterns = append(h.originPatterns, u.Host)
		} else {
			h.originPatterns = append(h.originPatterns, origin)
		}
	}
	return h
}

// hijackableWriter returns the net/http writer under gin's wrapper. Accept
// writes the 101 status before hijacking, and gin refuses to hijack a
// response whose header was already written.
func hijackableWriter(w gin.ResponseWriter) http.ResponseWriter {
	var rw http.ResponseWriter = w
	if u, ok := rw.(interface{ Unwrap() http.ResponseWriter }); ok {
		return u.Unwrap()
	}
	return rw
}

// HandleWebSocket handles WebSocket upgrade requests.
// Authentication is done via JWT token in query param: ?token=...
// Or via Authorization header: Bearer <token>
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, err := h.authenticateRequest(c)
	if err != nil {
		logger.Log.Debug("WebSocket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, apperrors.Unauthorized("Not authorized, token failed"))
		return
	}

	conn, err := websocket.Accept(hijackableWriter(c.Writer), c.Request, &websocket.AcceptOptions{
		OriginPatterns:     h.originPatterns,
		InsecureSkipVerify: h.skipOriginTest,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, userID)
	client.RemoteAddr = c.ClientIP()

	h.hub.Connect(client)

	h.hub.SendTo(client, NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to UniConnect!",
		Data: map[string]interface{}{
			"user_id":     userID,
			"server_time": time.Now().UTC().UnixMilli(),
			"session_id":  client.ID(),
		},
	}))

	go client.WritePump()
	client.ReadPump() // This blocks until client disconnects
}

func (h *Handler) authenticateRequest(c *gin.Context) (string, error) {
	tokenString := c.Query("token")

	if auth := c.GetHeader("Authorization"); auth != "" {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	}

	if tokenString == "" {
		return "", errors.New("no authentication token provided")
	}
	return h.auth.ValidateToken(tokenString)
}
