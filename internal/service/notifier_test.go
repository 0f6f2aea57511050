package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"hospreq/internal/model"
	"hospreq/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recipientsOf(notifs []model.Notification) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(notifs))
	for _, n := range notifs {
		ids = append(ids, n.NotifiableID)
	}
	return ids
}

func TestRequestUpdatedDeduplicatesAudience(t *testing.T) {
	requester := model.User{ID: uuid.New(), Username: "maria"}
	actor := model.User{ID: uuid.New(), Username: "joao"}
	colleague := model.User{ID: uuid.New(), Username: "ana"}

	deptID := uuid.New()
	sectorID := uuid.New()
	req := &model.Request{
		ID:               uuid.New(),
		RequestNumber:    "REQ000042",
		Status:           model.RequestStatusInProgress,
		RequesterID:      &requester.ID,
		DestDepartmentID: &deptID,
		DestSectorID:     &sectorID,
	}

	orgs := &mockOrgRepo{
		FindLocationByIDFn: func(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error) {
			switch kind {
			case model.LocationDepartment:
				return &repository.Location{ID: id, Name: "Farmácia"}, nil
			case model.LocationSector:
				return &repository.Location{ID: id, Name: "Almoxarifado"}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	groups := &mockGroupRepo{
		ListUsersInGroupFn: func(ctx context.Context, groupName string) ([]model.User, error) {
			switch groupName {
			case "Department: Farmácia":
				// requester and actor are members too; colleague sits in both groups
				return []model.User{requester, actor, colleague}, nil
			case "Sector: Almoxarifado":
				return []model.User{colleague}, nil
			}
			return nil, nil
		},
	}
	notifRepo := &mockNotificationRepo{}
	pusher := &mockPusher{}

	n := NewNotifier(notifRepo, groups, orgs, pusher, discardLogger())
	n.RequestUpdated(context.Background(), req, actor.ID)

	// exactly one notification per distinct recipient, actor excluded
	require.Len(t, notifRepo.created, 2)
	assert.ElementsMatch(t, []uuid.UUID{requester.ID, colleague.ID}, recipientsOf(notifRepo.created))
	assert.ElementsMatch(t, []uuid.UUID{requester.ID, colleague.ID}, pusher.pushed)

	for _, created := range notifRepo.created {
		assert.Equal(t, model.NotifRequestUpdated, created.Type)
		assert.Equal(t, model.NotifiableUser, created.NotifiableKind)
		if created.NotifiableID == requester.ID {
			// the requester wording wins over group membership
			assert.Contains(t, created.Data, "sua requisição")
		} else {
			assert.Contains(t, created.Data, "no seu grupo")
		}
		assert.Contains(t, created.Data, "REQ000042")
	}
}

func TestRequestUpdatedSkipsDanglingDestination(t *testing.T) {
	requester := model.User{ID: uuid.New()}
	deptID := uuid.New()
	req := &model.Request{
		ID:               uuid.New(),
		RequestNumber:    "REQ000007",
		Status:           model.RequestStatusCancelled,
		RequesterID:      &requester.ID,
		DestDepartmentID: &deptID,
	}

	orgs := &mockOrgRepo{
		FindLocationByIDFn: func(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error) {
			return nil, gorm.ErrRecordNotFound // unit deleted after the request was filed
		},
	}
	groups := &mockGroupRepo{
		ListUsersInGroupFn: func(ctx context.Context, groupName string) ([]model.User, error) {
			t.Fatalf("no group should be resolved for a dangling destination")
			return nil, nil
		},
	}
	notifRepo := &mockNotificationRepo{}

	n := NewNotifier(notifRepo, groups, orgs, nil, discardLogger())
	n.RequestUpdated(context.Background(), req, uuid.New())

	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, requester.ID, notifRepo.created[0].NotifiableID)
}

func TestRequestUpdatedBestEffortDispatch(t *testing.T) {
	requester := model.User{ID: uuid.New()}
	colleague := model.User{ID: uuid.New()}
	deptID := uuid.New()
	req := &model.Request{
		ID:               uuid.New(),
		RequestNumber:    "REQ000010",
		Status:           model.RequestStatusInProgress,
		RequesterID:      &requester.ID,
		DestDepartmentID: &deptID,
	}

	orgs := &mockOrgRepo{
		FindLocationByIDFn: func(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error) {
			return &repository.Location{ID: id, Name: "Farmácia"}, nil
		},
	}
	groups := &mockGroupRepo{
		ListUsersInGroupFn: func(ctx context.Context, groupName string) ([]model.User, error) {
			return []model.User{colleague}, nil
		},
	}
	notifRepo := &mockNotificationRepo{
		CreateFn: func(ctx context.Context, n *model.Notification) error {
			if n.NotifiableID == requester.ID {
				return errors.New("write failed")
			}
			return nil
		},
	}
	pusher := &mockPusher{}

	n := NewNotifier(notifRepo, groups, orgs, pusher, discardLogger())
	n.RequestUpdated(context.Background(), req, uuid.New())

	// the failed recipient is logged and skipped; the rest still go out
	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, colleague.ID, notifRepo.created[0].NotifiableID)
	assert.Equal(t, []uuid.UUID{colleague.ID}, pusher.pushed)
}

func TestRequestApprovedNotifiesFulfillmentGroup(t *testing.T) {
	group := model.Group{ID: uuid.New(), Name: FulfillmentGroupName}
	req := &model.Request{
		ID:            uuid.New(),
		RequestNumber: "REQ000003",
		Status:        model.RequestStatusApproved,
	}

	groups := &mockGroupRepo{
		FindByNameFn: func(ctx context.Context, name string) (*model.Group, error) {
			require.Equal(t, FulfillmentGroupName, name)
			return &group, nil
		},
	}
	notifRepo := &mockNotificationRepo{}
	pusher := &mockPusher{}

	n := NewNotifier(notifRepo, groups, &mockOrgRepo{}, pusher, discardLogger())
	n.RequestApproved(context.Background(), req, uuid.New())

	require.Len(t, notifRepo.created, 1)
	created := notifRepo.created[0]
	assert.Equal(t, model.NotifRequestApproved, created.Type)
	assert.Equal(t, model.NotifiableGroup, created.NotifiableKind)
	assert.Equal(t, group.ID, created.NotifiableID)
	assert.Contains(t, created.Data, "aguarda atendimento")

	// group recipients are never pushed over the socket directly
	assert.Empty(t, pusher.pushed)
}

func TestRequestApprovedMissingGroupIsSkipped(t *testing.T) {
	groups := &mockGroupRepo{
		FindByNameFn: func(ctx context.Context, name string) (*model.Group, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	notifRepo := &mockNotificationRepo{}

	n := NewNotifier(notifRepo, groups, &mockOrgRepo{}, nil, discardLogger())
	n.RequestApproved(context.Background(), &model.Request{ID: uuid.New(), RequestNumber: "REQ000004"}, uuid.New())

	assert.Empty(t, notifRepo.created)
}

func TestRequestAcceptedExcludesActor(t *testing.T) {
	requesterID := uuid.New()
	approverID := uuid.New()
	req := &model.Request{
		ID:            uuid.New(),
		RequestNumber: "REQ000005",
		Status:        model.RequestStatusCompleted,
		RequesterID:   &requesterID,
		ApprovedBy:    &approverID,
	}

	notifRepo := &mockNotificationRepo{}
	n := NewNotifier(notifRepo, &mockGroupRepo{}, &mockOrgRepo{}, nil, discardLogger())

	// the approver performs the acceptance themselves
	n.RequestAccepted(context.Background(), req, approverID)

	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, requesterID, notifRepo.created[0].NotifiableID)
	assert.Contains(t, notifRepo.created[0].Data, "concluída")
}
