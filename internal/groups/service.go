// Package groups implements group membership, join requests and the cached
// group reads. Every mutation deletes the cache entries listed for it in
// cache.Policy before returning and tells the group room what changed.
package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/uniconnect/backend/internal/cache"
	"github.com/uniconnect/backend/internal/dto"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/notifications"
	"github.com/uniconnect/backend/internal/repository"
	"github.com/uniconnect/backend/internal/websocket"
	"go.uber.org/zap"
)

// Events carried in group_updated payloads
const (
	EventJoinRequested   = "join_requested"
	EventMemberJoined    = "member_joined"
	EventMemberLeft      = "member_left"
	EventRequestAccepted = "request_accepted"
	EventRequestRejected = "request_rejected"
	EventGroupDeleted    = "group_deleted"
)

// Join request actions
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// Publisher delivers an event to every session joined to a room
type Publisher interface {
	Publish(room string, event string, payload interface{}) int
}

// Notifier creates notifications for group activity
type Notifier interface {
	NotifyMany(ctx context.Context, reqs []notifications.Request) error
}

// CreateInput describes a new group
type CreateInput struct {
	Name        string
	Description string
	Privacy     string
	Image       string
}

// HandleRequestInput is an admin decision on a pending join request
type HandleRequestInput struct {
	GroupID     string `json:"groupId" binding:"required"`
	RequesterID string `json:"requesterId" binding:"required"`
	Action      string `json:"action" binding:"required,oneof=accept reject"`
}

// Service implements group operations
type Service struct {
	groups    repository.GroupRepository
	users     repository.UserRepository
	messages  repository.MessageRepository
	cache     *cache.Cache
	publisher Publisher
	notifier  Notifier
}

// NewService creates a group service. cache, publisher and notifier may be nil.
func NewService(
	groups repository.GroupRepository,
	users repository.UserRepository,
	messages repository.MessageRepository,
	c *cache.Cache,
	publisher Publisher,
	notifier Notifier,
) *Service {
	return &Service{
		groups:    groups,
		users:     users,
		messages:  messages,
		cache:     c,
		publisher: publisher,
		notifier:  notifier,
	}
}

// Create makes a group with the creator as its only admin and member.
// Private groups are scoped to the creator's institute.
func (s *Service) Create(ctx context.Context, creator *models.User, in CreateInput) (*dto.GroupDetail, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.MissingField("name")
	}

	privacy := strings.ToLower(strings.TrimSpace(in.Privacy))
	switch privacy {
	case "":
		privacy = models.PrivacyPublic
	case models.PrivacyPublic, models.PrivacyPrivate:
	default:
		return nil, apperrors.BadRequest("privacy must be public or private")
	}

	group := &models.Group{
		Name:        name,
		Description: in.Description,
		Privacy:     privacy,
		Image:       in.Image,
	}
	if privacy == models.PrivacyPrivate {
		group.Institute = creator.Institute
	}

	if err := s.groups.CreateGroup(ctx, group, creator.ID); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.cache.Invalidate(ctx, cache.GroupCreated, cache.Subjects{GroupID: group.ID, ActorID: creator.ID})

	logger.Log.Info("Group created",
		logger.WithGroupID(group.ID),
		logger.WithUserID(creator.ID),
		zap.String("privacy", privacy),
	)
	return s.detail(ctx, group)
}

// List returns the groups visible to user with membership flags, read
// through the user's list cache entry
func (s *Service) List(ctx context.Context, user *models.User) ([]byte, bool, error) {
	key := cache.KeyOf(cache.GroupList, user.ID)
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		groups, err := s.groups.ListVisibleGroups(ctx, user.ID, user.Institute)
		if err != nil {
			return nil, err
		}

		ids := make([]string, len(groups))
		for i, g := range groups {
			ids[i] = g.ID
		}
		rels, err := s.groups.GetRelationsBatch(ctx, ids)
		if err != nil {
			return nil, err
		}

		var adminIDs []string
		for _, r := range rels {
			adminIDs = append(adminIDs, r.AdminIDs...)
		}
		admins, err := s.summaries(ctx, unique(adminIDs))
		if err != nil {
			return nil, err
		}

		items := make([]dto.GroupListItem, 0, len(groups))
		for _, g := range groups {
			r := rels[g.ID]
			items = append(items, dto.GroupListItem{
				Group:        *g,
				Admins:       pick(admins, r.AdminIDs),
				Members:      r.MemberIDs,
				JoinRequests: r.RequestIDs,
				IsMember:     r.IsMember(user.ID),
				IsAdmin:      r.IsAdmin(user.ID),
			})
		}
		return items, nil
	})
}

// Get returns one group with admins, members and join requests populated
func (s *Service) Get(ctx context.Context, groupID string) ([]byte, bool, error) {
	key := cache.KeyOf(cache.GroupDetail, groupID)
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		group, err := s.load(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return s.detail(ctx, group)
	})
}

// RequestJoin records a pending join request from user and notifies the admins
func (s *Service) RequestJoin(ctx context.Context, user *models.User, groupID string) error {
	group, rels, err := s.loadWithRelations(ctx, groupID)
	if err != nil {
		return err
	}

	if rels.IsMember(user.ID) || rels.IsAdmin(user.ID) {
		return apperrors.Conflict("You are already a member of this group")
	}
	if rels.HasRequest(user.ID) {
		return apperrors.Conflict("Request is already pending")
	}

	if err := s.groups.AddJoinRequest(ctx, groupID, user.ID); err != nil {
		return fmt.Errorf("failed to add join request: %w", err)
	}
	s.cache.Invalidate(ctx, cache.JoinRequested, cache.Subjects{GroupID: groupID, ActorID: user.ID})

	reqs := make([]notifications.Request, 0, len(rels.AdminIDs))
	for _, adminID := range rels.AdminIDs {
		reqs = append(reqs, notifications.Request{
			RecipientID: adminID,
			SenderID:    user.ID,
			Type:        models.NotificationGroupJoinRequest,
			Message:     fmt.Sprintf("%s requested to join %q", user.Name, group.Name),
			RelatedID:   groupID,
		})
	}
	s.notifyMany(ctx, reqs)

	s.publish(groupID, EventJoinRequested, user.ID)
	return nil
}

// JoinPublic adds user directly to a group. Private groups only admit users
// of the same institute.
func (s *Service) JoinPublic(ctx context.Context, user *models.User, groupID string) error {
	group, rels, err := s.loadWithRelations(ctx, groupID)
	if err != nil {
		return err
	}

	if rels.IsMember(user.ID) {
		return apperrors.Conflict("Already a member")
	}
	if group.IsPrivate() && group.Institute != user.Institute {
		return apperrors.Forbidden("This group is private to its institute")
	}

	if err := s.groups.AddMember(ctx, groupID, user.ID); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	s.cache.Invalidate(ctx, cache.GroupJoined, cache.Subjects{GroupID: groupID, ActorID: user.ID})

	s.publish(groupID, EventMemberJoined, user.ID)
	return nil
}

// HandleRequest accepts or rejects a pending join request. Only admins may
// decide. The returned action is past tense for the response message.
func (s *Service) HandleRequest(ctx context.Context, admin *models.User, in HandleRequestInput) (string, error) {
	if in.Action != ActionAccept && in.Action != ActionReject {
		return "", apperrors.BadRequest("action must be accept or reject")
	}

	group, rels, err := s.loadWithRelations(ctx, in.GroupID)
	if err != nil {
		return "", err
	}
	if !rels.IsAdmin(admin.ID) {
		return "", apperrors.Forbidden("Only admins can manage requests")
	}
	if !rels.HasRequest(in.RequesterID) {
		return "", apperrors.BadRequest("Request not found or already handled")
	}

	subjects := cache.Subjects{GroupID: in.GroupID, ActorID: admin.ID, SubjectID: in.RequesterID}

	if in.Action == ActionAccept {
		if err := s.groups.AddMember(ctx, in.GroupID, in.RequesterID); err != nil {
			return "", fmt.Errorf("failed to add member: %w", err)
		}
	}
	if err := s.groups.RemoveJoinRequest(ctx, in.GroupID, in.RequesterID); err != nil {
		return "", fmt.Errorf("failed to remove join request: %w", err)
	}

	if in.Action == ActionAccept {
		s.cache.Invalidate(ctx, cache.JoinRequestAccepted, subjects)
		s.notifyMany(ctx, []notifications.Request{{
			RecipientID: in.RequesterID,
			SenderID:    admin.ID,
			Type:        models.NotificationGroupApproved,
			Message:     fmt.Sprintf("Your request to join %q was approved!", group.Name),
			RelatedID:   in.GroupID,
		}})
		s.publish(in.GroupID, EventRequestAccepted, in.RequesterID)
		return "accepted", nil
	}

	s.cache.Invalidate(ctx, cache.JoinRequestRejected, subjects)
	s.publish(in.GroupID, EventRequestRejected, in.RequesterID)
	return "rejected", nil
}

// Requests lists the pending join requests of a group. Admin rights are
// checked against the store before the cache is consulted.
func (s *Service) Requests(ctx context.Context, user *models.User, groupID string) ([]byte, bool, error) {
	_, rels, err := s.loadWithRelations(ctx, groupID)
	if err != nil {
		return nil, false, err
	}
	if !rels.IsAdmin(user.ID) {
		return nil, false, apperrors.Forbidden("Access denied. Admins only.")
	}

	key := cache.KeyOf(cache.GroupRequests, groupID)
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		fresh, err := s.groups.GetRelations(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return s.summaries(ctx, fresh.RequestIDs)
	})
}

// Messages returns a group's chat history oldest first, read through the cache
func (s *Service) Messages(ctx context.Context, groupID string) ([]byte, bool, error) {
	key := cache.KeyOf(cache.GroupMessages, groupID)
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		msgs, err := s.messages.ListGroupMessages(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return dto.ToMessageResponses(msgs), nil
	})
}

// Media returns the group's messages that carry a file, newest first
func (s *Service) Media(ctx context.Context, groupID string) ([]dto.MessageResponse, error) {
	msgs, err := s.messages.ListGroupMedia(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return dto.ToMessageResponses(msgs), nil
}

// Leave removes user from a group. The last admin cannot leave.
func (s *Service) Leave(ctx context.Context, user *models.User, groupID string) error {
	_, rels, err := s.loadWithRelations(ctx, groupID)
	if err != nil {
		return err
	}
	if !rels.IsMember(user.ID) && !rels.IsAdmin(user.ID) {
		return apperrors.BadRequest("You are not a member of this group")
	}
	if rels.IsAdmin(user.ID) {
		if len(rels.AdminIDs) == 1 {
			return apperrors.BadRequest("The last admin cannot leave the group")
		}
		if err := s.groups.RemoveAdmin(ctx, groupID, user.ID); err != nil {
			return fmt.Errorf("failed to remove admin: %w", err)
		}
	}
	if err := s.groups.RemoveMember(ctx, groupID, user.ID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.cache.Invalidate(ctx, cache.GroupLeft, cache.Subjects{GroupID: groupID, ActorID: user.ID})
	s.publish(groupID, EventMemberLeft, user.ID)
	return nil
}

// Delete removes a group with its messages and related notifications.
// Only admins may delete.
func (s *Service) Delete(ctx context.Context, user *models.User, groupID string) error {
	_, rels, err := s.loadWithRelations(ctx, groupID)
	if err != nil {
		return err
	}
	if !rels.IsAdmin(user.ID) {
		return apperrors.Forbidden("Only admins can delete the group")
	}

	if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	// Other members' list entries expire on their own
	s.cache.Invalidate(ctx, cache.GroupDeleted, cache.Subjects{GroupID: groupID, ActorID: user.ID})
	s.publish(groupID, EventGroupDeleted, user.ID)

	logger.Log.Info("Group deleted", logger.WithGroupID(groupID), logger.WithUserID(user.ID))
	return nil
}

func (s *Service) load(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Group")
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *Service) loadWithRelations(ctx context.Context, groupID string) (*models.Group, *repository.GroupRelations, error) {
	if groupID == "" {
		return nil, nil, apperrors.MissingField("groupId")
	}
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	rels, err := s.groups.GetRelations(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	return group, rels, nil
}

func (s *Service) detail(ctx context.Context, group *models.Group) (*dto.GroupDetail, error) {
	rels, err := s.groups.GetRelations(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	ids := unique(append(append(append([]string{}, rels.AdminIDs...), rels.MemberIDs...), rels.RequestIDs...))
	users, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &dto.GroupDetail{
		Group:        *group,
		Admins:       pick(users, rels.AdminIDs),
		Members:      pick(users, rels.MemberIDs),
		JoinRequests: pick(users, rels.RequestIDs),
	}, nil
}

// summaries loads the users behind ids, keeping the order of ids
func (s *Service) summaries(ctx context.Context, ids []string) ([]*dto.UserSummary, error) {
	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	return dto.ToUserSummaries(users), nil
}

func (s *Service) notifyMany(ctx context.Context, reqs []notifications.Request) {
	if s.notifier == nil || len(reqs) == 0 {
		return
	}
	if err := s.notifier.NotifyMany(ctx, reqs); err != nil {
		logger.Log.Warn("Group notification failed", zap.Error(err))
	}
}

func (s *Service) publish(groupID, event, userID string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(groupID, websocket.MessageTypeGroupUpdated, websocket.GroupUpdatedPayload{
		GroupID: groupID,
		Event:   event,
		UserID:  userID,
	})
}

// pick returns the summaries of ids in order, skipping users that no longer exist
func pick(users []*dto.UserSummary, ids []string) []*dto.UserSummary {
	byID := make(map[string]*dto.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]*dto.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
