package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationKind identifies a level of the organizational hierarchy
type LocationKind string

const (
	LocationDirection   LocationKind = "Direction"
	LocationDepartment  LocationKind = "Department"
	LocationService     LocationKind = "Service"
	LocationSector      LocationKind = "Sector"
	LocationRepartition LocationKind = "Repartition"
)

// LocationRef points at one organizational unit of a given kind
type LocationRef struct {
	Kind LocationKind
	ID   uuid.UUID
}

// GroupNameFor builds the synthetic group name that encodes a destination
// organizational unit, e.g. "Department: Farmácia". Groups following this
// naming convention authorize non-requester transitions and receive fan-out.
func GroupNameFor(kind LocationKind, name string) string {
	return string(kind) + ": " + name
}

// Direction is the top level of the hierarchy (direction → department →
// service → sector → repartition)
type Direction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Department struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null;index" json:"name"`
	DirectionID *uuid.UUID `gorm:"type:uuid;index" json:"direction_id"`
	Direction   *Direction `gorm:"foreignKey:DirectionID" json:"direction,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type Service struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string      `gorm:"type:varchar(255);not null;index" json:"name"`
	DepartmentID *uuid.UUID  `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type Sector struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null;index" json:"name"`
	ServiceID *uuid.UUID `gorm:"type:uuid;index" json:"service_id"`
	Service   *Service   `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type Repartition struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null;index" json:"name"`
	SectorID  *uuid.UUID `gorm:"type:uuid;index" json:"sector_id"`
	Sector    *Sector    `gorm:"foreignKey:SectorID" json:"sector,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Direction) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (s *Service) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Sector) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (r *Repartition) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
