package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"hospreq/internal/database"
	"hospreq/internal/model"
	"hospreq/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// in-memory sqlite: every connection is its own database, so pin the pool
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// testEngine wires the real workflow engine (repositories, authorizer,
// notifier) against a test database.
type testEngine struct {
	db            *gorm.DB
	svc           RequestService
	notifications repository.NotificationRepository
	audits        repository.AuditRepository
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := newTestDB(t)

	requests := repository.NewRequestRepository(db)
	audits := repository.NewAuditRepository(db)
	groups := repository.NewGroupRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	notifications := repository.NewNotificationRepository(db)
	tx := repository.NewTransactionManager(db)

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := NewNotifier(notifications, groups, orgs, nil, discard)
	authorizer := NewAuthorizer(groups, orgs)

	return &testEngine{
		db:            db,
		svc:           NewRequestService(requests, audits, tx, authorizer, notifier),
		notifications: notifications,
		audits:        audits,
	}
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@hospital.local", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedGroup(t *testing.T, db *gorm.DB, name string, members ...*model.User) *model.Group {
	t.Helper()
	group := &model.Group{Name: name}
	require.NoError(t, db.Create(group).Error)
	for _, m := range members {
		require.NoError(t, db.Model(group).Association("Users").Append(m))
	}
	return group
}

func seedDepartment(t *testing.T, db *gorm.DB, name string) *model.Department {
	t.Helper()
	dept := &model.Department{Name: name}
	require.NoError(t, db.Create(dept).Error)
	return dept
}

func unreadFor(t *testing.T, e *testEngine, r model.Recipient) []model.Notification {
	t.Helper()
	list, err := e.notifications.ListUnread(context.Background(), r)
	require.NoError(t, err)
	return list
}
