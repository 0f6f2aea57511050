package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification type tags
const (
	NotifRequestUpdated  = "RequestUpdated"
	NotifRequestApproved = "RequestApproved"
	NotifRequestAccepted = "RequestAccepted"
)

// NotifiableKind discriminates the polymorphic notification recipient
type NotifiableKind string

const (
	NotifiableUser  NotifiableKind = "User"
	NotifiableGroup NotifiableKind = "Group"
)

// Recipient is the tagged recipient reference: a user or a group
type Recipient struct {
	Kind NotifiableKind
	ID   uuid.UUID
}

func UserRecipient(id uuid.UUID) Recipient  { return Recipient{Kind: NotifiableUser, ID: id} }
func GroupRecipient(id uuid.UUID) Recipient { return Recipient{Kind: NotifiableGroup, ID: id} }

// Notification is a per-recipient fan-out record for a request state change.
// Mutated only to set ReadAt; never deleted by the engine.
type Notification struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Type           string         `gorm:"type:varchar(50);not null;index" json:"type"`
	NotifiableID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_recipient" json:"notifiable_id"`
	NotifiableKind NotifiableKind `gorm:"type:varchar(10);not null;index:idx_notifications_recipient" json:"notifiable_kind"`
	Data           string         `gorm:"type:jsonb;not null" json:"data"` // message text plus contextual ids
	ReadAt         *time.Time     `gorm:"index" json:"read_at"`            // nil means unread
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Recipient returns the tagged recipient of the notification
func (n *Notification) Recipient() Recipient {
	return Recipient{Kind: n.NotifiableKind, ID: n.NotifiableID}
}
