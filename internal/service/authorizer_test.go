package service

import (
	"context"
	"errors"
	"testing"

	"hospreq/internal/model"
	"hospreq/internal/repository"
	"hospreq/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestCanTransitionRequesterShortCircuits(t *testing.T) {
	requesterID := uuid.New()
	req := &model.Request{RequesterID: &requesterID}

	// no repository should ever be consulted for the requester
	a := NewAuthorizer(&mockGroupRepo{}, &mockOrgRepo{})

	assert.NoError(t, a.CanTransition(context.Background(), requesterID, req))
}

func TestCanTransitionDestinationGroupMember(t *testing.T) {
	actorID := uuid.New()
	deptID := uuid.New()
	req := &model.Request{DestDepartmentID: &deptID}

	orgs := &mockOrgRepo{
		FindLocationByIDFn: func(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error) {
			return &repository.Location{ID: id, Name: "Farmácia"}, nil
		},
	}
	groups := &mockGroupRepo{
		ListGroupsForUserFn: func(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
			return []model.Group{{Name: "Department: Farmácia"}}, nil
		},
	}

	a := NewAuthorizer(groups, orgs)
	assert.NoError(t, a.CanTransition(context.Background(), actorID, req))
}

func TestCanTransitionOutsiderForbidden(t *testing.T) {
	deptID := uuid.New()
	req := &model.Request{DestDepartmentID: &deptID}

	orgs := &mockOrgRepo{
		FindLocationByIDFn: func(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error) {
			return &repository.Location{ID: id, Name: "Farmácia"}, nil
		},
	}
	groups := &mockGroupRepo{
		ListGroupsForUserFn: func(ctx context.Context, userID uuid.UUID) ([]model.Group, error) {
			return []model.Group{{Name: "Department: Radiologia"}}, nil
		},
	}

	a := NewAuthorizer(groups, orgs)
	err := a.CanTransition(context.Background(), uuid.New(), req)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden), "got %v", err)
}

func TestCanTransitionNoDestination(t *testing.T) {
	// a request with no destination refs admits nobody but the requester
	a := NewAuthorizer(&mockGroupRepo{}, &mockOrgRepo{})
	err := a.CanTransition(context.Background(), uuid.New(), &model.Request{})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden), "got %v", err)
}

func TestCanTransitionDanglingDestination(t *testing.T) {
	deptID := uuid.New()
	req := &model.Request{DestDepartmentID: &deptID}

	orgs := &mockOrgRepo{
		FindLocationByIDFn: func(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	a := NewAuthorizer(&mockGroupRepo{}, orgs)
	err := a.CanTransition(context.Background(), uuid.New(), req)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden), "got %v", err)
}

func TestCanTransitionStoreFailure(t *testing.T) {
	deptID := uuid.New()
	req := &model.Request{DestDepartmentID: &deptID}

	orgs := &mockOrgRepo{
		FindLocationByIDFn: func(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*repository.Location, error) {
			return nil, errors.New("connection reset")
		},
	}

	a := NewAuthorizer(&mockGroupRepo{}, orgs)
	err := a.CanTransition(context.Background(), uuid.New(), req)
	assert.True(t, apperror.IsKind(err, apperror.KindStore), "got %v", err)
}
