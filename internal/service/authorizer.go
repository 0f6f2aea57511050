package service

import (
	"context"
	"errors"

	"hospreq/internal/model"
	"hospreq/internal/repository"
	"hospreq/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Authorizer decides whether an actor may transition a request
type Authorizer interface {
	CanTransition(ctx context.Context, actorID uuid.UUID, req *model.Request) error
}

type destinationAuthorizer struct {
	groups repository.GroupRepository
	orgs   repository.OrganizationRepository
}

// NewAuthorizer returns the destination-group authorizer: the requester may
// always transition their own request; anyone else must belong to a group
// named after one of the request's destination units ("<Kind>: <Name>").
func NewAuthorizer(groups repository.GroupRepository, orgs repository.OrganizationRepository) Authorizer {
	return &destinationAuthorizer{groups: groups, orgs: orgs}
}

func (a *destinationAuthorizer) CanTransition(ctx context.Context, actorID uuid.UUID, req *model.Request) error {
	if req.RequesterID != nil && *req.RequesterID == actorID {
		return nil
	}

	destNames, err := destinationGroupNames(ctx, a.orgs, req)
	if err != nil {
		return apperror.Store("failed to resolve destination groups", err)
	}
	if len(destNames) == 0 {
		return apperror.Forbidden("you are not allowed to update this request")
	}

	memberships, err := a.groups.ListGroupsForUser(ctx, actorID)
	if err != nil {
		return apperror.Store("failed to resolve group memberships", err)
	}

	wanted := make(map[string]bool, len(destNames))
	for _, name := range destNames {
		wanted[name] = true
	}
	for _, group := range memberships {
		if wanted[group.Name] {
			return nil
		}
	}

	return apperror.Forbidden("you are not allowed to update this request")
}

// destinationGroupNames maps each non-nil destination reference to its
// synthetic group name. Dangling references (organizational unit deleted
// since the request was created) are skipped.
func destinationGroupNames(ctx context.Context, orgs repository.OrganizationRepository, req *model.Request) ([]string, error) {
	var names []string
	for _, ref := range req.DestinationRefs() {
		loc, err := orgs.FindLocationByID(ctx, ref.Kind, ref.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		names = append(names, model.GroupNameFor(ref.Kind, loc.Name))
	}
	return names, nil
}
