package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Group represents an access-control group. A group whose name follows the
// "<Kind>: <Name>" convention (see GroupNameFor) encodes an organizational
// destination and is used for routing and transition authorization.
type Group struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Users       []User       `gorm:"many2many:group_users;" json:"users,omitempty"`
	Permissions []Permission `gorm:"many2many:group_permissions;" json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Permission represents a single named permission that can be assigned to groups
type Permission struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "requests.approve"
	Name string    `gorm:"type:varchar(255);not null" json:"name"`
}

func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
