package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON accepts Unix milliseconds or an RFC3339 string
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON always outputs RFC3339
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Frame types
const (
	// System frames
	MessageTypeSystem = "system"
	MessageTypePing   = "ping"
	MessageTypePong   = "pong"
	MessageTypeError  = "error"

	// Client to server
	MessageTypeJoinChat         = "join_chat"
	MessageTypeSendMessage      = "send_message"
	MessageTypeJoinGroup        = "join_group"
	MessageTypeSendGroupMessage = "send_group_message"
	MessageTypeLeaveRoom        = "leave_room"

	// Server to client
	MessageTypeReceiveMessage      = "receive_message"
	MessageTypeReceiveGroupMessage = "receive_group_message"
	MessageTypeNewNotification     = "new_notification"
	MessageTypeGroupUpdated        = "group_updated"
	MessageTypeJoined              = "joined"
)

// Message is the envelope of every frame in both directions
type Message struct {
	// Type identifies the event for routing
	Type string `json:"type"`

	// Payload contains the event-specific data
	Payload interface{} `json:"payload,omitempty"`

	// ID is an optional client-chosen identifier echoed in replies
	ID string `json:"id,omitempty"`

	// ReplyTo references the original message ID for responses
	ReplyTo string `json:"reply_to,omitempty"`

	Timestamp FlexibleTime `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewReply creates a reply to an inbound message
func NewReply(original *Message, msgType string, payload interface{}) *Message {
	msg := NewMessage(msgType, payload)
	msg.ReplyTo = original.ID
	return msg
}

// NewErrorMessage creates an error frame
func NewErrorMessage(code string, message string) *Message {
	return NewMessage(MessageTypeError, ErrorPayload{Code: code, Message: message})
}

// ParsePayload unmarshals the payload into target
func (m *Message) ParsePayload(target interface{}) error {
	if m.Payload == nil {
		return fmt.Errorf("missing payload")
	}
	data, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// ErrorPayload is the payload of an error frame
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SystemPayload is sent on connect and shutdown
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// PingPayload is sent by clients to measure latency
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload answers a ping
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// JoinChatPayload asks to join a direct-message room. Clients may also send
// the room id as a bare string payload.
type JoinChatPayload struct {
	Room string `json:"room" validate:"required"`
}

// SendMessagePayload is a direct message. SenderID defaults to the session's
// user and Room defaults to the sorted pair id.
type SendMessagePayload struct {
	SenderID   string `json:"senderId,omitempty"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Text       string `json:"text" validate:"required_without=FileURL,max=5000"`
	FileURL    string `json:"fileUrl,omitempty" validate:"omitempty,url"`
	FileType   string `json:"fileType,omitempty" validate:"omitempty,oneof=image video pdf ppt none"`
	FileName   string `json:"fileName,omitempty"`
	Room       string `json:"room,omitempty"`
}

// JoinGroupPayload asks to join a group room. A bare string payload is
// accepted as the group id.
type JoinGroupPayload struct {
	GroupID string `json:"groupId" validate:"required"`
}

// SendGroupMessagePayload is a group chat message
type SendGroupMessagePayload struct {
	SenderID string `json:"senderId,omitempty"`
	GroupID  string `json:"groupId" validate:"required"`
	Text     string `json:"text" validate:"required_without=FileURL,max=5000"`
	FileURL  string `json:"fileUrl,omitempty" validate:"omitempty,url"`
	FileType string `json:"fileType,omitempty" validate:"omitempty,oneof=image video pdf ppt none"`
	FileName string `json:"fileName,omitempty"`
}

// LeaveRoomPayload asks to leave a previously joined room
type LeaveRoomPayload struct {
	Room string `json:"room" validate:"required"`
}

// JoinedPayload confirms a join
type JoinedPayload struct {
	Room string `json:"room"`
}

// GroupUpdatedPayload tells group room members that group state changed and
// should be re-fetched
type GroupUpdatedPayload struct {
	GroupID string `json:"groupId"`
	Event   string `json:"event"`
	UserID  string `json:"userId,omitempty"`
}
