package repository

import (
	"context"
	"testing"

	"hospreq/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func storeNotification(t *testing.T, repo NotificationRepository, r model.Recipient) *model.Notification {
	t.Helper()
	n := &model.Notification{
		Type:           model.NotifRequestUpdated,
		NotifiableID:   r.ID,
		NotifiableKind: r.Kind,
		Data:           `{"message":"ping"}`,
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestNotificationListUnreadScopedToRecipient(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	ctx := context.Background()

	alice := model.UserRecipient(uuid.New())
	bob := model.UserRecipient(uuid.New())
	// a group sharing alice's id must not leak into her user feed
	aliceGroup := model.GroupRecipient(alice.ID)

	storeNotification(t, repo, alice)
	storeNotification(t, repo, alice)
	storeNotification(t, repo, bob)
	storeNotification(t, repo, aliceGroup)

	forAlice, err := repo.ListUnread(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, forAlice, 2)

	forGroup, err := repo.ListUnread(ctx, aliceGroup)
	require.NoError(t, err)
	assert.Len(t, forGroup, 1)
}

func TestNotificationMarkRead(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	ctx := context.Background()

	alice := model.UserRecipient(uuid.New())
	n := storeNotification(t, repo, alice)

	require.NoError(t, repo.MarkRead(ctx, n.ID))

	unread, err := repo.ListUnread(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, unread)

	// a second read attempt finds no unread row
	assert.ErrorIs(t, repo.MarkRead(ctx, n.ID), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.MarkRead(ctx, uuid.New()), gorm.ErrRecordNotFound)
}

func TestNotificationMarkAllRead(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	ctx := context.Background()

	alice := model.UserRecipient(uuid.New())
	bob := model.UserRecipient(uuid.New())
	storeNotification(t, repo, alice)
	storeNotification(t, repo, alice)
	storeNotification(t, repo, bob)

	require.NoError(t, repo.MarkAllRead(ctx, alice))

	forAlice, err := repo.ListUnread(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, forAlice)

	// other recipients are untouched
	forBob, err := repo.ListUnread(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, forBob, 1)
}
