package repository

import (
	"context"
	"errors"

	"github.com/uniconnect/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRelations holds the user references of one group
type GroupRelations struct {
	AdminIDs   []string
	MemberIDs  []string
	RequestIDs []string
}

// IsAdmin reports whether userID administers the group
func (g *GroupRelations) IsAdmin(userID string) bool {
	return contains(g.AdminIDs, userID)
}

// IsMember reports whether userID is a member of the group
func (g *GroupRelations) IsMember(userID string) bool {
	return contains(g.MemberIDs, userID)
}

// HasRequest reports whether userID has a pending join request
func (g *GroupRelations) HasRequest(userID string) bool {
	return contains(g.RequestIDs, userID)
}

// GroupRepository handles groups and their admin, member and join-request sets
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group, creatorID string) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListVisibleGroups(ctx context.Context, userID, institute string) ([]*models.Group, error)
	GetRelations(ctx context.Context, groupID string) (*GroupRelations, error)
	GetRelationsBatch(ctx context.Context, groupIDs []string) (map[string]*GroupRelations, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	RemoveAdmin(ctx context.Context, groupID, userID string) error
	AddJoinRequest(ctx context.Context, groupID, userID string) error
	RemoveJoinRequest(ctx context.Context, groupID, userID string) error
	DeleteGroup(ctx context.Context, groupID string) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// CreateGroup inserts the group with its creator as sole admin and member
func (r *groupRepository) CreateGroup(ctx context.Context, group *models.Group, creatorID string) error {
	if group == nil || creatorID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.GroupAdmin{GroupID: group.ID, UserID: creatorID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{GroupID: group.ID, UserID: creatorID}).Error
	})
}

func (r *groupRepository) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ListVisibleGroups returns public groups, private groups of the user's
// institute and every group the user belongs to, newest first
func (r *groupRepository) ListVisibleGroups(ctx context.Context, userID, institute string) ([]*models.Group, error) {
	db := r.db.WithContext(ctx)
	memberOf := db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)

	var groups []*models.Group
	err := db.Model(&models.Group{}).
		Where("privacy = ?", models.PrivacyPublic).
		Or("privacy = ? AND institute = ?", models.PrivacyPrivate, institute).
		Or("id IN (?)", memberOf).
		Order("created_at DESC").
		Find(&groups).Error
	return groups, err
}

func (r *groupRepository) GetRelations(ctx context.Context, groupID string) (*GroupRelations, error) {
	rels, err := r.GetRelationsBatch(ctx, []string{groupID})
	if err != nil {
		return nil, err
	}
	return rels[groupID], nil
}

// GetRelationsBatch loads admin, member and request ids for many groups.
// Every requested id has an entry, possibly empty.
func (r *groupRepository) GetRelationsBatch(ctx context.Context, groupIDs []string) (map[string]*GroupRelations, error) {
	out := make(map[string]*GroupRelations, len(groupIDs))
	for _, id := range groupIDs {
		out[id] = &GroupRelations{AdminIDs: []string{}, MemberIDs: []string{}, RequestIDs: []string{}}
	}
	if len(groupIDs) == 0 {
		return out, nil
	}
	db := r.db.WithContext(ctx)

	var admins []models.GroupAdmin
	if err := db.Where("group_id IN ?", groupIDs).Order("created_at ASC").Find(&admins).Error; err != nil {
		return nil, err
	}
	for _, a := range admins {
		out[a.GroupID].AdminIDs = append(out[a.GroupID].AdminIDs, a.UserID)
	}

	var members []models.GroupMember
	if err := db.Where("group_id IN ?", groupIDs).Order("created_at ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		out[m.GroupID].MemberIDs = append(out[m.GroupID].MemberIDs, m.UserID)
	}

	var requests []models.GroupJoinRequest
	if err := db.Where("group_id IN ?", groupIDs).Order("created_at ASC").Find(&requests).Error; err != nil {
		return nil, err
	}
	for _, jr := range requests {
		out[jr.GroupID].RequestIDs = append(out[jr.GroupID].RequestIDs, jr.UserID)
	}

	return out, nil
}

func (r *groupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// AddMember adds userID to the member set if absent
func (r *groupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.GroupMember{GroupID: groupID, UserID: userID}).Error
}

func (r *groupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

func (r *groupRepository) RemoveAdmin(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupAdmin{}).Error
}

// AddJoinRequest records a pending request if absent
func (r *groupRepository) AddJoinRequest(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.GroupJoinRequest{GroupID: groupID, UserID: userID}).Error
}

func (r *groupRepository) RemoveJoinRequest(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupJoinRequest{}).Error
}

// DeleteGroup removes a group with its messages, related notifications and
// membership rows
func (r *groupRepository) DeleteGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			model interface{}
			where string
		}{
			{&models.Message{}, "group_id = ?"},
			{&models.Notification{}, "related_id = ?"},
			{&models.GroupJoinRequest{}, "group_id = ?"},
			{&models.GroupMember{}, "group_id = ?"},
			{&models.GroupAdmin{}, "group_id = ?"},
			{&models.Group{}, "id = ?"},
		}
		for _, s := range steps {
			if err := tx.Where(s.where, groupID).Delete(s.model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
