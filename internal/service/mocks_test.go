package service

import (
	"context"

	"hospreq/internal/model"
	"hospreq/internal/repository"

	"github.com/google/uuid"
)

// Function-field fakes for the read-side repositories. Only the methods a
// test configures are expected to run.

type mockNotificationRepo struct {
	CreateFn func(ctx context.Context, n *model.Notification) error
	created  []model.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, n); err != nil {
			return err
		}
	}
	m.created = append(m.created, *n)
	return nil
}

func (m *mockNotificationRepo) ListUnread(ctx context.Context, r model.Recipient) ([]model.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, r model.Recipient) error { return nil }

type mockGroupRepo struct {
	FindByNameFn        func(ctx context.Context, name string) (*model.Group, error)
	ListGroupsForUserFn func(ctx context.Context, userID uuid.UUID) ([]model.Group, error)
	ListUsersInGroupFn  func(ctx context.Context, groupName string) ([]model.User, error)
}

func (m *mockGroupRepo) FindByName(ctx context.Context, name string) (*model.Group, error) {
	return m.FindByNameFn(ctx, name)
}

func (m *mockGroupRepo) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
	return m.ListGroupsForUserFn(ctx, userID)
}

func (m *mockGroupRepo) ListUsersInGroup(ctx context.Context, groupName string) ([]model.User, error) {
	return m.ListUsersInGroupFn(ctx, groupName)
}

type mockOrgRepo struct {
	FindLocationByIDFn func(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error)
}

func (m *mockOrgRepo) FindLocationByID(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error) {
	return m.FindLocationByIDFn(ctx, kind, id)
}

type mockPusher struct {
	pushed []uuid.UUID
}

func (m *mockPusher) Push(userID uuid.UUID, payload []byte) {
	m.pushed = append(m.pushed, userID)
}
