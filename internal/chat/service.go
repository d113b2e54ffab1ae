// Package chat implements the socket events for direct and group messaging.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/uniconnect/backend/internal/cache"
	"github.com/uniconnect/backend/internal/dto"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/repository"
	"github.com/uniconnect/backend/internal/validation"
	"github.com/uniconnect/backend/internal/websocket"
	"go.uber.org/zap"
)

// Service handles chat events arriving over the socket
type Service struct {
	hub      *websocket.Hub
	messages repository.MessageRepository
	groups   repository.GroupRepository
	cache    *cache.Cache
}

// NewService creates a chat service. Call Register to attach it to the hub.
func NewService(hub *websocket.Hub, messages repository.MessageRepository, groups repository.GroupRepository, c *cache.Cache) *Service {
	return &Service{hub: hub, messages: messages, groups: groups, cache: c}
}

// Register installs the chat event handlers on the hub
func (s *Service) Register() {
	s.hub.RegisterHandler(websocket.MessageTypeJoinChat, s.handleJoinChat)
	s.hub.RegisterHandler(websocket.MessageTypeSendMessage, s.handleSendMessage)
	s.hub.RegisterHandler(websocket.MessageTypeJoinGroup, s.handleJoinGroup)
	s.hub.RegisterHandler(websocket.MessageTypeSendGroupMessage, s.handleSendGroupMessage)
	s.hub.RegisterHandler(websocket.MessageTypeLeaveRoom, s.handleLeaveRoom)
}

// handleJoinChat joins a direct-message room. The room must be the caller's
// own room or a pair id that includes the caller.
func (s *Service) handleJoinChat(ctx context.Context, sess websocket.Session, msg *websocket.Message) error {
	var p websocket.JoinChatPayload
	if err := decode(msg, &p, func(v string) { p.Room = v }); err != nil {
		return err
	}

	if !canJoinDirectRoom(sess.UserID(), p.Room) {
		return apperrors.Forbidden("Not a participant of this chat")
	}

	s.hub.Join(sess, p.Room)
	s.hub.SendTo(sess, websocket.NewReply(msg, websocket.MessageTypeJoined, websocket.JoinedPayload{Room: p.Room}))
	return nil
}

// handleSendMessage persists a direct message then publishes it to the pair room
func (s *Service) handleSendMessage(ctx context.Context, sess websocket.Session, msg *websocket.Message) error {
	var p websocket.SendMessagePayload
	if err := decode(msg, &p, nil); err != nil {
		return err
	}
	if err := checkSender(sess, &p.SenderID); err != nil {
		return err
	}

	room := models.DirectRoomID(p.SenderID, p.ReceiverID)
	if p.Room != "" && p.Room != room {
		return apperrors.Forbidden("Room does not match participants")
	}

	receiverID := p.ReceiverID
	stored := &models.Message{
		SenderID:   p.SenderID,
		ReceiverID: &receiverID,
		Text:       p.Text,
		FileURL:    p.FileURL,
		FileType:   p.FileType,
		FileName:   p.FileName,
	}
	out, err := s.persist(ctx, stored)
	if err != nil {
		return err
	}

	s.hub.Publish(room, websocket.MessageTypeReceiveMessage, out)
	return nil
}

// handleJoinGroup joins a group room. Private groups require membership.
func (s *Service) handleJoinGroup(ctx context.Context, sess websocket.Session, msg *websocket.Message) error {
	var p websocket.JoinGroupPayload
	if err := decode(msg, &p, func(v string) { p.GroupID = v }); err != nil {
		return err
	}

	group, err := s.groups.GetGroup(ctx, p.GroupID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Group")
	} else if err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}

	if group.IsPrivate() {
		member, err := s.groups.IsMember(ctx, group.ID, sess.UserID())
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if !member {
			return apperrors.Forbidden("Not a member of this group")
		}
	}

	s.hub.Join(sess, group.ID)
	s.hub.SendTo(sess, websocket.NewReply(msg, websocket.MessageTypeJoined, websocket.JoinedPayload{Room: group.ID}))
	return nil
}

// handleSendGroupMessage persists a group message, invalidates the cached
// history and publishes the message to the group room
func (s *Service) handleSendGroupMessage(ctx context.Context, sess websocket.Session, msg *websocket.Message) error {
	var p websocket.SendGroupMessagePayload
	if err := decode(msg, &p, nil); err != nil {
		return err
	}
	if err := checkSender(sess, &p.SenderID); err != nil {
		return err
	}

	member, err := s.groups.IsMember(ctx, p.GroupID, p.SenderID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return apperrors.Forbidden("Not a member of this group")
	}

	groupID := p.GroupID
	out, err := s.persist(ctx, &models.Message{
		SenderID: p.SenderID,
		GroupID:  &groupID,
		Text:     p.Text,
		FileURL:  p.FileURL,
		FileType: p.FileType,
		FileName: p.FileName,
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.GroupMessagePosted, cache.Subjects{GroupID: groupID, ActorID: p.SenderID})
	s.hub.Publish(groupID, websocket.MessageTypeReceiveGroupMessage, out)
	return nil
}

func (s *Service) handleLeaveRoom(ctx context.Context, sess websocket.Session, msg *websocket.Message) error {
	var p websocket.LeaveRoomPayload
	if err := decode(msg, &p, func(v string) { p.Room = v }); err != nil {
		return err
	}
	if p.Room == websocket.UserRoom(sess.UserID()) {
		return apperrors.BadRequest("Cannot leave your own room")
	}
	s.hub.Leave(sess, p.Room)
	return nil
}

// persist stores the message and reloads it with its sender populated
func (s *Service) persist(ctx context.Context, m *models.Message) (dto.MessageResponse, error) {
	if err := s.messages.CreateMessage(ctx, m); err != nil {
		return dto.MessageResponse{}, fmt.Errorf("failed to save message: %w", err)
	}
	stored, err := s.messages.GetMessage(ctx, m.ID)
	if err != nil {
		logger.Log.Warn("Failed to reload message, publishing without sender",
			zap.String("message_id", m.ID),
			zap.Error(err),
		)
		return dto.ToMessageResponse(m), nil
	}
	return dto.ToMessageResponse(stored), nil
}

// decode parses and validates an event payload. bare, when set, receives a
// plain string payload.
func decode(msg *websocket.Message, target interface{}, bare func(string)) error {
	if str, ok := msg.Payload.(string); ok && bare != nil {
		bare(str)
	} else if err := msg.ParsePayload(target); err != nil {
		return apperrors.BadRequest("Invalid payload")
	}
	return validation.Struct(target)
}

// checkSender defaults an empty sender id to the session user and rejects
// impersonation
func checkSender(sess websocket.Session, senderID *string) error {
	if *senderID == "" {
		*senderID = sess.UserID()
		return nil
	}
	if *senderID != sess.UserID() {
		return apperrors.Forbidden("Cannot send as another user")
	}
	return nil
}

func canJoinDirectRoom(userID, room string) bool {
	if room == websocket.UserRoom(userID) {
		return true
	}
	a, b, ok := models.ParseDirectRoomID(room)
	if !ok {
		return false
	}
	return (a == userID || b == userID) && models.DirectRoomID(a, b) == room
}
