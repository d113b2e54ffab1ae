// Package websocket provides the real-time fan-out layer: sessions grouped
// into named rooms, with events published to every session in a room.
package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/metrics"
	"go.uber.org/zap"
)

// Session is one live bidirectional connection. Deliver must not block; it
// returns false when the frame was dropped.
type Session interface {
	ID() string
	UserID() string
	Deliver(frame []byte) bool
	Close()
}

// MessageHandler handles one inbound event type. Returning an
// *errors.APIError sends an error frame to the session.
type MessageHandler func(ctx context.Context, s Session, msg *Message) error

// Hub maintains room membership and publishes events to rooms.
type Hub struct {
	// room name -> session id -> session
	rooms map[string]map[string]Session

	// session id -> joined rooms, used to clean up on disconnect
	sessionRooms map[string]map[string]struct{}

	sessions map[string]Session

	// Mutex for room and session maps. Publish delivers while holding it so
	// frames to one room are enqueued in publish order.
	mu sync.Mutex

	handlers   map[string]MessageHandler
	handlersMu sync.RWMutex

	stats *Stats

	rateLimitConfig RateLimitConfig

	closed atomic.Bool
}

// Stats tracks hub counters for the health endpoint
type Stats struct {
	TotalConnections atomic.Int64
	EventsReceived   atomic.Int64
	EventsPublished  atomic.Int64
	FramesDropped    atomic.Int64
}

// RateLimitConfig defines per-session inbound rate limiting
type RateLimitConfig struct {
	// MessagesPerSecond is the sustained rate
	MessagesPerSecond float64
	// BurstSize allows short bursts above the rate
	BurstSize int
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MessagesPerSecond: 10,
		BurstSize:         20,
	}
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		rooms:           make(map[string]map[string]Session),
		sessionRooms:    make(map[string]map[string]struct{}),
		sessions:        make(map[string]Session),
		handlers:        make(map[string]MessageHandler),
		stats:           &Stats{},
		rateLimitConfig: DefaultRateLimitConfig(),
	}
}

// RegisterHandler registers a handler for an inbound event type
func (h *Hub) RegisterHandler(msgType string, handler MessageHandler) {
	h.handlersMu.Lock()
	defer h.handlersMu.Unlock()
	h.handlers[msgType] = handler
}

// GetHandler returns the handler for an event type
func (h *Hub) GetHandler(msgType string) (MessageHandler, bool) {
	h.handlersMu.RLock()
	defer h.handlersMu.RUnlock()
	handler, ok := h.handlers[msgType]
	return handler, ok
}

// Connect registers a session and joins it to its personal user room.
func (h *Hub) Connect(s Session) {
	if h.closed.Load() {
		s.Close()
		return
	}

	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.sessionRooms[s.ID()] = make(map[string]struct{})
	h.joinLocked(s, UserRoom(s.UserID()))
	h.updateGaugesLocked()
	h.mu.Unlock()

	h.stats.TotalConnections.Add(1)
	logger.Log.Debug("Session connected",
		logger.WithUserID(s.UserID()),
		zap.String("session_id", s.ID()),
	)
}

// Disconnect removes a session from every room it joined. Calling it twice is
// harmless.
func (h *Hub) Disconnect(s Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID()]; !ok {
		h.mu.Unlock()
		return
	}
	for room := range h.sessionRooms[s.ID()] {
		h.removeFromRoomLocked(s.ID(), room)
	}
	delete(h.sessionRooms, s.ID())
	delete(h.sessions, s.ID())
	h.updateGaugesLocked()
	h.mu.Unlock()

	logger.Log.Debug("Session disconnected",
		logger.WithUserID(s.UserID()),
		zap.String("session_id", s.ID()),
	)
}

// Join adds a connected session to a room. Joining twice is a no-op.
func (h *Hub) Join(s Session, room string) bool {
	if room == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.ID()]; !ok {
		return false
	}
	h.joinLocked(s, room)
	h.updateGaugesLocked()
	return true
}

// Leave removes a session from a room.
func (h *Hub) Leave(s Session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if joined, ok := h.sessionRooms[s.ID()]; ok {
		delete(joined, room)
	}
	h.removeFromRoomLocked(s.ID(), room)
	h.updateGaugesLocked()
}

func (h *Hub) joinLocked(s Session, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]Session)
		h.rooms[room] = members
	}
	members[s.ID()] = s
	h.sessionRooms[s.ID()][room] = struct{}{}
}

func (h *Hub) removeFromRoomLocked(sessionID, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) updateGaugesLocked() {
	if m := metrics.Get(); m != nil {
		m.SocketSessionsActive.Set(float64(len(h.sessions)))
		m.SocketRoomsActive.Set(float64(len(h.rooms)))
	}
}

// Publish sends an event to every session currently in room and returns the
// number of sessions the frame was enqueued for. Publishing to an empty or
// unknown room is a no-op.
func (h *Hub) Publish(room string, event string, payload interface{}) int {
	frame, err := json.Marshal(NewMessage(event, payload))
	if err != nil {
		logger.Log.Error("Failed to marshal event",
			zap.String("event", event),
			logger.WithRoom(room),
			zap.Error(err),
		)
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	if len(members) == 0 {
		return 0
	}

	delivered := 0
	for _, s := range members {
		if s.Deliver(frame) {
			delivered++
			continue
		}
		h.stats.FramesDropped.Add(1)
		if m := metrics.Get(); m != nil {
			m.SocketDeliveriesDrop.Inc()
		}
		logger.Log.Warn("Session send buffer full, dropping frame",
			logger.WithUserID(s.UserID()),
			logger.WithRoom(room),
			zap.String("event", event),
		)
	}

	h.stats.EventsPublished.Add(1)
	if m := metrics.Get(); m != nil {
		m.SocketEventsPublished.WithLabelValues(event).Inc()
	}
	return delivered
}

// PublishToUser sends an event to every session of a user
func (h *Hub) PublishToUser(userID string, event string, payload interface{}) int {
	return h.Publish(UserRoom(userID), event, payload)
}

// SendTo delivers a message to a single session
func (h *Hub) SendTo(s Session, msg *Message) bool {
	frame, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("Failed to marshal message", zap.String("type", msg.Type), zap.Error(err))
		return false
	}
	return s.Deliver(frame)
}

// RoomSize returns the number of sessions in a room
func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// InRoom reports whether a session is a member of a room
func (h *Hub) InRoom(s Session, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.rooms[room][s.ID()]
	return ok
}

// SessionCount returns the number of connected sessions
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// IsUserOnline checks if a user has at least one connected session
func (h *Hub) IsUserOnline(userID string) bool {
	return h.RoomSize(UserRoom(userID)) > 0
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() map[string]interface{} {
	h.mu.Lock()
	sessions, rooms := len(h.sessions), len(h.rooms)
	h.mu.Unlock()

	return map[string]interface{}{
		"active_sessions":   sessions,
		"active_rooms":      rooms,
		"total_connections": h.stats.TotalConnections.Load(),
		"events_received":   h.stats.EventsReceived.Load(),
		"events_published":  h.stats.EventsPublished.Load(),
		"frames_dropped":    h.stats.FramesDropped.Load(),
	}
}

// Shutdown notifies and closes every session. New sessions are refused
// afterwards.
func (h *Hub) Shutdown(ctx context.Context) error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	logger.Log.Info("Shutting down WebSocket hub")

	frame, _ := json.Marshal(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "shutdown",
		Message: "Server is shutting down",
	}))

	h.mu.Lock()
	sessions := make([]Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.Deliver(frame)
	}

	// Give write pumps a moment to flush the shutdown notice
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
	}

	for _, s := range sessions {
		s.Close()
		h.Disconnect(s)
	}
	return ctx.Err()
}

// UserRoom is the personal room every session of a user auto-joins
func UserRoom(userID string) string {
	return userID
}
