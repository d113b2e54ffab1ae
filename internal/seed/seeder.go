package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account
const DefaultPassword = "password123"

// SeedEmailDomain marks seeded accounts so Clean can find them
const SeedEmailDomain = "@seed.uniconnect.test"

var (
	institutes    = []string{"MIT", "Stanford", "IIT Bombay", "ETH Zurich", "University of Toronto"}
	groupSuffixes = []string{"Club", "Society", "Study Group", "Circle"}
)

// Counts controls how much data SeedDev creates
type Counts struct {
	Users         int
	Posts         int
	Comments      int
	Likes         int
	Connections   int
	Groups        int
	GroupMessages int
	DirectMessage int
}

// DevCounts is a realistic development dataset
func DevCounts() Counts {
	return Counts{
		Users:         60,
		Posts:         150,
		Comments:      300,
		Likes:         600,
		Connections:   120,
		Groups:        12,
		GroupMessages: 400,
		DirectMessage: 200,
	}
}

// SmallCounts is a minimal dataset for smoke tests
func SmallCounts() Counts {
	return Counts{
		Users:         5,
		Posts:         5,
		Comments:      5,
		Likes:         5,
		Connections:   3,
		Groups:        2,
		GroupMessages: 5,
		DirectMessage: 5,
	}
}

// Seeder handles database seeding operations
type Seeder struct {
	db            *gorm.DB
	users         repository.UserRepository
	posts         repository.PostRepository
	connections   repository.ConnectionRepository
	groups        repository.GroupRepository
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	rng           *rand.Rand
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	seed := time.Now().UnixNano()
	_ = gofakeit.Seed(seed)
	return &Seeder{
		db:            db,
		users:         repository.NewUserRepository(db),
		posts:         repository.NewPostRepository(db),
		connections:   repository.NewConnectionRepository(db),
		groups:        repository.NewGroupRepository(db),
		messages:      repository.NewMessageRepository(db),
		notifications: repository.NewNotificationRepository(db),
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context) error {
	return s.Seed(ctx, DevCounts())
}

// SeedTest seeds a minimal dataset
func (s *Seeder) SeedTest(ctx context.Context) error {
	return s.Seed(ctx, SmallCounts())
}

// Seed creates the requested amount of each kind of record
func (s *Seeder) Seed(ctx context.Context, n Counts) error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(ctx, n.Users)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if len(users) < 2 {
		return fmt.Errorf("need at least 2 users, have %d", len(users))
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(ctx, users, n.Posts)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating comments and likes...")
	if err := s.seedEngagement(ctx, users, posts, n.Comments, n.Likes); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	logger.Log.Info("Creating connections...")
	if err := s.seedConnections(ctx, users, n.Connections); err != nil {
		return fmt.Errorf("failed to seed connections: %w", err)
	}

	logger.Log.Info("Creating groups...")
	groups, err := s.seedGroups(ctx, users, n.Groups)
	if err != nil {
		return fmt.Errorf("failed to seed groups: %w", err)
	}

	logger.Log.Info("Creating messages...")
	if err := s.seedGroupMessages(ctx, groups, n.GroupMessages); err != nil {
		return fmt.Errorf("failed to seed group messages: %w", err)
	}
	if err := s.seedDirectMessages(ctx, users, n.DirectMessage); err != nil {
		return fmt.Errorf("failed to seed direct messages: %w", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", len(users)),
		zap.Int("posts", len(posts)),
		zap.Int("groups", len(groups)),
	)
	return nil
}

// Clean removes every seeded account and everything attached to it
func (s *Seeder) Clean(ctx context.Context) error {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email LIKE ?", "%"+SeedEmailDomain).
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("failed to find seed users: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var groupIDs []string
		if err := tx.Model(&models.GroupAdmin{}).Where("user_id IN ?", ids).Distinct().Pluck("group_id", &groupIDs).Error; err != nil {
			return err
		}

		steps := []struct {
			name  string
			query *gorm.DB
		}{
			{"group messages", tx.Where("group_id IN ?", groupIDs).Delete(&models.Message{})},
			{"group admins", tx.Where("group_id IN ? OR user_id IN ?", groupIDs, ids).Delete(&models.GroupAdmin{})},
			{"group members", tx.Where("group_id IN ? OR user_id IN ?", groupIDs, ids).Delete(&models.GroupMember{})},
			{"join requests", tx.Where("group_id IN ? OR user_id IN ?", groupIDs, ids).Delete(&models.GroupJoinRequest{})},
			{"groups", tx.Where("id IN ?", groupIDs).Delete(&models.Group{})},
			{"messages", tx.Where("sender_id IN ? OR receiver_id IN ?", ids, ids).Delete(&models.Message{})},
			{"notifications", tx.Where("recipient_id IN ? OR sender_id IN ?", ids, ids).Delete(&models.Notification{})},
			{"connections", tx.Where("requester_id IN ? OR recipient_id IN ?", ids, ids).Delete(&models.Connection{})},
			{"comments", tx.Where("user_id IN ? OR post_id IN (?)", ids, tx.Model(&models.Post{}).Select("id").Where("user_id IN ?", ids)).Delete(&models.PostComment{})},
			{"likes", tx.Where("user_id IN ? OR post_id IN (?)", ids, tx.Model(&models.Post{}).Select("id").Where("user_id IN ?", ids)).Delete(&models.PostLike{})},
			{"posts", tx.Where("user_id IN ?", ids).Delete(&models.Post{})},
			{"users", tx.Where("id IN ?", ids).Delete(&models.User{})},
		}
		for _, step := range steps {
			if step.query.Error != nil {
				return fmt.Errorf("failed to clean %s: %w", step.name, step.query.Error)
			}
		}
		logger.Log.Info("Removed seed data", zap.Int("users", len(ids)), zap.Int("groups", len(groupIDs)))
		return nil
	})
}

func (s *Seeder) seedUsers(ctx context.Context, count int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]*models.User, 0, count)
	seen := make(map[string]bool, count)
	for len(users) < count {
		username := strings.ToLower(gofakeit.Username())
		if seen[username] {
			continue
		}
		if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
			continue
		}
		seen[username] = true

		user := &models.User{
			Name:           gofakeit.Name(),
			Username:       username,
			Email:          username + SeedEmailDomain,
			PasswordHash:   string(hash),
			Institute:      institutes[s.rng.Intn(len(institutes))],
			IsVerified:     true,
			Headline:       gofakeit.JobTitle(),
			Location:       fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			ProfilePicture: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			Points:         s.rng.Intn(500),
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	now := time.Now()
	for i := 0; i < count; i++ {
		post := &models.Post{
			UserID:    s.pick(users).ID,
			Text:      gofakeit.HipsterSentence(),
			CreatedAt: gofakeit.DateRange(now.AddDate(0, 0, -30), now),
		}
		if s.rng.Float32() < 0.3 {
			post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID())
		}
		if err := s.posts.CreatePost(ctx, post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedEngagement(ctx context.Context, users []*models.User, posts []*models.Post, comments, likes int) error {
	if len(posts) == 0 {
		return nil
	}
	for i := 0; i < comments; i++ {
		post := posts[s.rng.Intn(len(posts))]
		comment := &models.PostComment{
			PostID:    post.ID,
			UserID:    s.pick(users).ID,
			Text:      gofakeit.HipsterSentence(),
			CreatedAt: gofakeit.DateRange(post.CreatedAt, time.Now()),
		}
		if err := s.posts.AddComment(ctx, comment); err != nil {
			return err
		}
	}

	liked := make(map[string]bool, likes)
	for i := 0; i < likes; i++ {
		post := posts[s.rng.Intn(len(posts))]
		user := s.pick(users)
		// ToggleLike would undo a repeated pair
		if liked[post.ID+user.ID] {
			continue
		}
		liked[post.ID+user.ID] = true
		if _, err := s.posts.ToggleLike(ctx, post.ID, user.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedConnections(ctx context.Context, users []*models.User, count int) error {
	for i := 0; i < count; i++ {
		a, b := s.pick(users), s.pick(users)
		if a.ID == b.ID {
			continue
		}
		if _, err := s.connections.FindBetween(ctx, a.ID, b.ID); err == nil {
			continue
		}

		status := models.ConnectionAccepted
		if s.rng.Float32() < 0.3 {
			status = models.ConnectionPending
		}
		conn := &models.Connection{RequesterID: a.ID, RecipientID: b.ID, Status: status}
		if err := s.connections.CreateConnection(ctx, conn); err != nil {
			return err
		}

		if status == models.ConnectionPending {
			sender := a.ID
			n := &models.Notification{
				RecipientID: b.ID,
				SenderID:    &sender,
				Type:        models.NotificationConnectionRequest,
				Message:     a.Name + " sent you a connection request",
				Link:        "/network",
			}
			if err := s.notifications.CreateNotification(ctx, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedGroups(ctx context.Context, users []*models.User, count int) ([]*models.Group, error) {
	groups := make([]*models.Group, 0, count)
	for i := 0; i < count; i++ {
		creator := s.pick(users)
		group := &models.Group{
			Name:        capitalize(gofakeit.Word()) + " " + groupSuffixes[s.rng.Intn(len(groupSuffixes))],
			Description: gofakeit.HipsterSentence(),
			Privacy:     models.PrivacyPublic,
		}
		if s.rng.Float32() < 0.4 {
			group.Privacy = models.PrivacyPrivate
			group.Institute = creator.Institute
		}
		if err := s.groups.CreateGroup(ctx, group, creator.ID); err != nil {
			return nil, err
		}

		for _, u := range users {
			if u.ID == creator.ID {
				continue
			}
			switch r := s.rng.Float32(); {
			case r < 0.25:
				if err := s.groups.AddMember(ctx, group.ID, u.ID); err != nil {
					return nil, err
				}
			case r < 0.3 && group.IsPrivate():
				if err := s.groups.AddJoinRequest(ctx, group.ID, u.ID); err != nil {
					return nil, err
				}
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (s *Seeder) seedGroupMessages(ctx context.Context, groups []*models.Group, count int) error {
	if len(groups) == 0 {
		return nil
	}
	members := make(map[string][]string, len(groups))
	for _, g := range groups {
		rels, err := s.groups.GetRelations(ctx, g.ID)
		if err != nil {
			return err
		}
		members[g.ID] = rels.MemberIDs
	}

	now := time.Now()
	for i := 0; i < count; i++ {
		g := groups[s.rng.Intn(len(groups))]
		ids := members[g.ID]
		if len(ids) == 0 {
			continue
		}
		groupID := g.ID
		msg := &models.Message{
			SenderID:  ids[s.rng.Intn(len(ids))],
			GroupID:   &groupID,
			Text:      gofakeit.HipsterSentence(),
			CreatedAt: gofakeit.DateRange(now.AddDate(0, 0, -14), now),
		}
		if err := s.messages.CreateMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedDirectMessages(ctx context.Context, users []*models.User, count int) error {
	now := time.Now()
	for i := 0; i < count; i++ {
		a, b := s.pick(users), s.pick(users)
		if a.ID == b.ID {
			continue
		}
		receiver := b.ID
		msg := &models.Message{
			SenderID:   a.ID,
			ReceiverID: &receiver,
			Text:       gofakeit.HipsterSentence(),
			CreatedAt:  gofakeit.DateRange(now.AddDate(0, 0, -7), now),
		}
		if err := s.messages.CreateMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) pick(users []*models.User) *models.User {
	return users[s.rng.Intn(len(users))]
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
