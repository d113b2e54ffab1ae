package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB

	// Send buffer size
	sendBufferSize = 256
)

// Client is a Session backed by a WebSocket connection
type Client struct {
	id string

	// The websocket connection
	conn *websocket.Conn

	// Hub reference
	hub *Hub

	userID string

	// Buffered channel of outbound frames. Never closed; shutdown goes
	// through ctx so a late Deliver cannot panic.
	send chan []byte

	ConnectedAt time.Time
	RemoteAddr  string

	limiter *rate.Limiter

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := hub.rateLimitConfig

	return &Client{
		id:          uuid.NewString(),
		hub:         hub,
		conn:        conn,
		userID:      userID,
		send:        make(chan []byte, sendBufferSize),
		ConnectedAt: time.Now(),
		limiter:     rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.BurstSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the session id
func (c *Client) ID() string { return c.id }

// UserID returns the authenticated user id
func (c *Client) UserID() string { return c.userID }

// Deliver enqueues a frame without blocking
func (c *Client) Deliver(frame []byte) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close cancels the client context and closes the connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			c.conn.Close(websocket.StatusNormalClosure, "closing")
		}
	})
}

// Done is closed once the client shuts down
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// ReadPump reads frames until the connection ends. Idle connections are kept
// alive by the write pump's pings rather than a read deadline.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Log.Debug("Client disconnected normally", logger.WithUserID(c.userID))
			} else if c.ctx.Err() == nil {
				logger.Log.Warn("Read error for client", logger.WithUserID(c.userID), zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			if m := metrics.Get(); m != nil {
				m.SocketRateLimited.Inc()
			}
			c.hub.SendTo(c, NewErrorMessage(string(apperrors.ErrRateLimited), "Too many messages, please slow down"))
			continue
		}

		c.hub.Dispatch(c.ctx, c, data)
	}
}

// WritePump writes queued frames and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case frame := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				if c.ctx.Err() == nil {
					logger.Log.Warn("Write error for client", logger.WithUserID(c.userID), zap.Error(err))
				}
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				logger.Log.Debug("Ping failed for client", logger.WithUserID(c.userID), zap.Error(err))
				return
			}
		}
	}
}

// Dispatch decodes one inbound frame and routes it to its handler. Failures
// are reported to the session as error frames; the session stays open.
func (h *Hub) Dispatch(ctx context.Context, s Session, data []byte) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		logger.Log.Debug("WebSocket JSON parse error", logger.WithUserID(s.UserID()), zap.Error(err))
		h.SendTo(s, NewErrorMessage(string(apperrors.ErrBadRequest), "Failed to parse message"))
		return
	}

	if message.Timestamp.IsZero() {
		message.Timestamp = FlexibleTime{Time: time.Now().UTC()}
	}

	h.stats.EventsReceived.Add(1)
	if m := metrics.Get(); m != nil {
		m.SocketEventsReceived.WithLabelValues(message.Type).Inc()
	}

	switch message.Type {
	case MessageTypePing, "heartbeat":
		h.handlePing(s, &message)
		return
	}

	handler, ok := h.GetHandler(message.Type)
	if !ok {
		h.SendTo(s, NewReply(&message, MessageTypeError, ErrorPayload{
			Code:    string(apperrors.ErrBadRequest),
			Message: fmt.Sprintf("Unknown message type: %s", message.Type),
		}))
		return
	}

	if err := handler(ctx, s, &message); err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) {
			h.SendTo(s, NewReply(&message, MessageTypeError, ErrorPayload{
				Code:    string(apiErr.Code),
				Message: apiErr.Message,
			}))
			return
		}
		logger.Log.Error("Handler error",
			zap.String("type", message.Type),
			logger.WithUserID(s.UserID()),
			zap.Error(err))
		h.SendTo(s, NewReply(&message, MessageTypeError, ErrorPayload{
			Code:    string(apperrors.ErrInternal),
			Message: fmt.Sprintf("Failed to process %s", message.Type),
		}))
	}
}

func (h *Hub) handlePing(s Session, message *Message) {
	var ping PingPayload
	if err := message.ParsePayload(&ping); err != nil {
		ping.ClientTime = 0
	}

	serverTime := time.Now().UnixMilli()
	pong := NewReply(message, MessageTypePong, PongPayload{
		ClientTime: ping.ClientTime,
		ServerTime: serverTime,
		Latency:    serverTime - ping.ClientTime,
	})
	h.SendTo(s, pong)
}
