package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/testutil"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, username, institute string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         username,
		Username:     username,
		Email:        username + "@uni.test",
		PasswordHash: "x",
		Institute:    institute,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestUserRepository_GetUsersPreservesOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "ana", "MIT")
	b := seedUser(t, db, "ben", "MIT")
	c := seedUser(t, db, "cal", "MIT")

	users, err := repo.GetUsers(ctx, []string{c.ID, "missing", a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{users[0].ID, users[1].ID, users[2].ID})

	byEmail, err := repo.GetUserByEmail(ctx, "  ANA@uni.test ")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	_, err = repo.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupRepository_CreateAndRelations(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	creator := seedUser(t, db, "owner", "MIT")
	joiner := seedUser(t, db, "joiner", "MIT")

	g := &models.Group{Name: "Robotics"}
	require.NoError(t, repo.CreateGroup(ctx, g, creator.ID))
	assert.Equal(t, models.PrivacyPublic, g.Privacy)
	assert.Len(t, g.InviteCode, 8)

	rels, err := repo.GetRelations(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{creator.ID}, rels.AdminIDs)
	assert.Equal(t, []string{creator.ID}, rels.MemberIDs)
	assert.Empty(t, rels.RequestIDs)

	require.NoError(t, repo.AddJoinRequest(ctx, g.ID, joiner.ID))
	require.NoError(t, repo.AddJoinRequest(ctx, g.ID, joiner.ID))
	rels, err = repo.GetRelations(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{joiner.ID}, rels.RequestIDs)

	require.NoError(t, repo.AddMember(ctx, g.ID, joiner.ID))
	require.NoError(t, repo.AddMember(ctx, g.ID, joiner.ID))
	require.NoError(t, repo.RemoveJoinRequest(ctx, g.ID, joiner.ID))

	ok, err := repo.IsMember(ctx, g.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	rels, err = repo.GetRelations(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, rels.MemberIDs, 2)
	assert.Empty(t, rels.RequestIDs)
}

func TestGroupRepository_ListVisibleGroups(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	mit := seedUser(t, db, "mit", "MIT")
	cmu := seedUser(t, db, "cmu", "CMU")

	public := &models.Group{Name: "Public", Privacy: models.PrivacyPublic}
	require.NoError(t, repo.CreateGroup(ctx, public, cmu.ID))
	time.Sleep(2 * time.Millisecond)

	cmuPrivate := &models.Group{Name: "CMU only", Privacy: models.PrivacyPrivate, Institute: "CMU"}
	require.NoError(t, repo.CreateGroup(ctx, cmuPrivate, cmu.ID))
	time.Sleep(2 * time.Millisecond)

	mitPrivate := &models.Group{Name: "MIT only", Privacy: models.PrivacyPrivate, Institute: "MIT"}
	require.NoError(t, repo.CreateGroup(ctx, mitPrivate, mit.ID))

	groups, err := repo.ListVisibleGroups(ctx, mit.ID, "MIT")
	require.NoError(t, err)
	names := []string{}
	for _, g := range groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"MIT only", "Public"}, names)

	// membership makes a foreign private group visible
	require.NoError(t, repo.AddMember(ctx, cmuPrivate.ID, mit.ID))
	groups, err = repo.ListVisibleGroups(ctx, mit.ID, "MIT")
	require.NoError(t, err)
	assert.Len(t, groups, 3)
}

func TestGroupRepository_DeleteGroupCascades(t *testing.T) {
	db := testutil.NewDB(t)
	groups := NewGroupRepository(db)
	messages := NewMessageRepository(db)
	notifications := NewNotificationRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "MIT")
	g := &models.Group{Name: "Doomed"}
	require.NoError(t, groups.CreateGroup(ctx, g, owner.ID))

	gid := g.ID
	require.NoError(t, messages.CreateMessage(ctx, &models.Message{SenderID: owner.ID, GroupID: &gid, Text: "hi"}))
	require.NoError(t, notifications.CreateNotification(ctx, &models.Notification{
		RecipientID: owner.ID, Type: models.NotificationGroupJoinRequest, RelatedID: &gid,
	}))

	require.NoError(t, groups.DeleteGroup(ctx, g.ID))

	_, err := groups.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := messages.ListGroupMessages(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	ns, err := notifications.ListForRecipient(ctx, owner.ID, 20)
	require.NoError(t, err)
	assert.Empty(t, ns)
}

func TestPostRepository_ToggleLike(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author", "MIT")
	fan := seedUser(t, db, "fan", "MIT")

	post := &models.Post{UserID: author.ID, Text: "hello"}
	require.NoError(t, repo.CreatePost(ctx, post))

	liked, err := repo.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	ids, err := repo.GetLikerIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fan.ID}, ids)

	liked, err = repo.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	ids, err = repo.GetLikerIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, repo.AddComment(ctx, &models.PostComment{PostID: post.ID, UserID: fan.ID, Text: "nice"}))
	loaded, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 1)
	assert.Equal(t, "fan", loaded.Comments[0].User.Name)
	assert.Equal(t, "author", loaded.User.Name)
}

func TestConnectionRepository_FindBetweenIsSymmetric(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "a", "MIT")
	b := seedUser(t, db, "b", "MIT")

	_, err := repo.FindBetween(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.CreateConnection(ctx, &models.Connection{RequesterID: a.ID, RecipientID: b.ID}))

	conn, err := repo.FindBetween(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionPending, conn.Status)
	assert.Equal(t, b.ID, conn.Other(a.ID))

	pending, err := repo.ListPendingFor(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].Requester.Name)

	require.NoError(t, repo.SetStatus(ctx, conn.ID, models.ConnectionAccepted))
	accepted, err := repo.ListAccepted(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)
}

func TestNotificationRepository_MarkAllReadIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "u", "MIT")
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateNotification(ctx, &models.Notification{RecipientID: u.ID, Type: models.NotificationLike}))
	}

	n, err := repo.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = repo.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	count, err := repo.CountUnread(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMessageRepository_DirectAndMedia(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "a", "MIT")
	b := seedUser(t, db, "b", "MIT")
	c := seedUser(t, db, "c", "MIT")

	bID, aID, cID := b.ID, a.ID, c.ID
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: a.ID, ReceiverID: &bID, Text: "1"}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: b.ID, ReceiverID: &aID, Text: "2"}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: a.ID, ReceiverID: &cID, Text: "other"}))

	msgs, err := repo.ListDirectMessages(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].Text)
	assert.Equal(t, "2", msgs[1].Text)
	assert.Equal(t, models.FileTypeNone, msgs[0].FileType)

	gid := "g1"
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: a.ID, GroupID: &gid, Text: "plain"}))
	require.NoError(t, repo.CreateMessage(ctx, &models.Message{SenderID: a.ID, GroupID: &gid, FileURL: "https://cdn/x.pdf", FileType: models.FileTypePDF}))

	media, err := repo.ListGroupMedia(ctx, gid)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, models.FileTypePDF, media[0].FileType)
}
