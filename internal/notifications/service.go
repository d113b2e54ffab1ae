// Package notifications persists user notifications and pushes them to the
// recipient's live sessions.
package notifications

import (
	"context"
	"fmt"

	"github.com/uniconnect/backend/internal/cache"
	"github.com/uniconnect/backend/internal/dto"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/repository"
	"github.com/uniconnect/backend/internal/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ListLimit is the number of notifications returned by List
const ListLimit = 20

// Publisher pushes an event to every session of a user
type Publisher interface {
	PublishToUser(userID string, event string, payload interface{}) int
}

// Request describes a notification to create
type Request struct {
	RecipientID string
	SenderID    string
	Type        string
	Message     string
	Link        string
	RelatedID   string
}

// Service creates, lists and marks notifications
type Service struct {
	repo      repository.NotificationRepository
	cache     *cache.Cache
	publisher Publisher
}

// NewService creates a notification service. cache and publisher may be nil.
func NewService(repo repository.NotificationRepository, c *cache.Cache, publisher Publisher) *Service {
	return &Service{repo: repo, cache: c, publisher: publisher}
}

// Create persists a notification, invalidates the recipient's cached list and
// emits new_notification to the recipient with the sender populated.
func (s *Service) Create(ctx context.Context, req Request) (*dto.NotificationResponse, error) {
	if req.RecipientID == "" {
		return nil, apperrors.MissingField("recipientId")
	}
	if !models.ValidNotificationType(req.Type) {
		return nil, apperrors.BadRequest(fmt.Sprintf("Unknown notification type: %s", req.Type))
	}

	n := &models.Notification{
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Message:     req.Message,
		Link:        req.Link,
	}
	if req.SenderID != "" {
		n.SenderID = &req.SenderID
	}
	if req.RelatedID != "" {
		n.RelatedID = &req.RelatedID
	}

	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	populated, err := s.repo.GetNotification(ctx, n.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}

	s.cache.Invalidate(ctx, cache.NotificationCreated, cache.Subjects{SubjectID: req.RecipientID})

	resp := dto.ToNotificationResponse(populated)
	if s.publisher != nil {
		s.publisher.PublishToUser(req.RecipientID, websocket.MessageTypeNewNotification, resp)
	}
	return &resp, nil
}

// NotifyMany creates notifications concurrently. Failures are logged and the
// first one is returned after every request has been attempted.
func (s *Service) NotifyMany(ctx context.Context, reqs []Request) error {
	var g errgroup.Group
	g.SetLimit(8)
	for _, req := range reqs {
		g.Go(func() error {
			if _, err := s.Create(ctx, req); err != nil {
				logger.Log.Warn("Failed to create notification",
					logger.WithUserID(req.RecipientID),
					zap.String("type", req.Type),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// List returns the recipient's newest notifications as JSON, read through the
// cache. hit reports whether the body came from the cache.
func (s *Service) List(ctx context.Context, userID string) ([]byte, bool, error) {
	key := cache.KeyOf(cache.Notifications, userID)
	return s.cache.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		ns, err := s.repo.ListForRecipient(ctx, userID, ListLimit)
		if err != nil {
			return nil, err
		}
		return dto.ToNotificationResponses(ns), nil
	})
}

// MarkAllRead flags every notification of userID as read. Repeating it is a
// no-op apart from the cache invalidation.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	changed, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	logger.Log.Debug("Marked notifications read", logger.WithUserID(userID), zap.Int64("changed", changed))
	s.cache.Invalidate(ctx, cache.NotificationsRead, cache.Subjects{ActorID: userID})
	return nil
}

// UnreadCount returns the number of unread notifications
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
