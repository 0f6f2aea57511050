package repository

import (
	"context"

	"hospreq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupRepository resolves group membership. The workflow engine consumes it
// read-only for authorization and fan-out audience resolution.
type GroupRepository interface {
	FindByName(ctx context.Context, name string) (*model.Group, error)
	ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]model.Group, error)
	ListUsersInGroup(ctx context.Context, groupName string) ([]model.User, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) FindByName(ctx context.Context, name string) (*model.Group, error) {
	var group model.Group
	if err := GetDB(ctx, r.db).First(&group, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
	var groups []model.Group
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN group_users gu ON gu.group_id = groups.id").
		Where("gu.user_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) ListUsersInGroup(ctx context.Context, groupName string) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).
		Joins("INNER JOIN group_users gu ON gu.user_id = users.id").
		Joins("INNER JOIN groups g ON g.id = gu.group_id").
		Where("g.name = ?", groupName).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
