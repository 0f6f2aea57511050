package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Requisition workflow actions
const (
	ActionCreateRequest       = "CREATE_REQUEST"
	ActionUpdateRequestStatus = "UPDATE_REQUEST_STATUS"
	ActionApproveRequest      = "APPROVE_REQUEST"
	ActionAcceptRequest       = "ACCEPT_REQUEST"
	ActionDeleteRequests      = "DELETE_REQUESTS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for guest submissions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/request number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
