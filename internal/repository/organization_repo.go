package repository

import (
	"context"
	"fmt"

	"hospreq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is the resolved name of one organizational unit
type Location struct {
	ID   uuid.UUID
	Name string
}

// OrganizationRepository reads the organizational hierarchy. The workflow
// engine only needs to resolve destination references to display names.
type OrganizationRepository interface {
	FindLocationByID(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*Location, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) FindLocationByID(ctx context.Context, kind model.LocationKind, id uuid.UUID) (*Location, error) {
	db := GetDB(ctx, r.db)

	var name string
	var err error
	switch kind {
	case model.LocationDirection:
		var m model.Direction
		err = db.First(&m, "id = ?", id).Error
		name = m.Name
	case model.LocationDepartment:
		var m model.Department
		err = db.First(&m, "id = ?", id).Error
		name = m.Name
	case model.LocationService:
		var m model.Service
		err = db.First(&m, "id = ?", id).Error
		name = m.Name
	case model.LocationSector:
		var m model.Sector
		err = db.First(&m, "id = ?", id).Error
		name = m.Name
	case model.LocationRepartition:
		var m model.Repartition
		err = db.First(&m, "id = ?", id).Error
		name = m.Name
	default:
		return nil, fmt.Errorf("unknown location kind: %s", kind)
	}

	if err != nil {
		return nil, err
	}
	return &Location{ID: id, Name: name}, nil
}
