package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestType enum constants
const (
	RequestTypeRequisition  = "REQUISITION"
	RequestTypeReturn       = "RETURN"
	RequestTypeSubstitution = "SUBSTITUTION"
)

// RequestStatus enum constants
const (
	RequestStatusPending    = "PENDING"
	RequestStatusApproved   = "APPROVED"
	RequestStatusRejected   = "REJECTED"
	RequestStatusInProgress = "IN_PROGRESS"
	RequestStatusCompleted  = "COMPLETED"
	RequestStatusCancelled  = "CANCELLED"
)

// RequestNumberPrefix + zero-padded 6-digit sequence, e.g. REQ000007
const RequestNumberPrefix = "REQ"

// DefaultUnit is the unit-of-measure symbol used when an item omits one
const DefaultUnit = "UN"

// ValidRequestType reports whether t is one of the three recognized request types
func ValidRequestType(t string) bool {
	return t == RequestTypeRequisition || t == RequestTypeReturn || t == RequestTypeSubstitution
}

// ValidRequestStatus reports whether s is one of the six recognized statuses
func ValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected,
		RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// TerminalStatus reports whether s admits no further transition
func TerminalStatus(s string) bool {
	return s == RequestStatusRejected || s == RequestStatusCompleted || s == RequestStatusCancelled
}

// statusLabels maps statuses to the Portuguese labels shown in notifications
var statusLabels = map[string]string{
	RequestStatusPending:    "Pendente",
	RequestStatusApproved:   "Aprovado",
	RequestStatusRejected:   "Rejeitado",
	RequestStatusInProgress: "Em Progresso",
	RequestStatusCompleted:  "Concluído",
	RequestStatusCancelled:  "Cancelado",
}

// StatusLabel returns the human-readable translated label for a status.
// Unknown statuses fall back to the raw value.
func StatusLabel(s string) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return s
}

// Request represents a supply/equipment requisition, return or substitution
// submitted by a requester and routed to a destination organizational unit.
type Request struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestNumber string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"request_number"`
	Type          string    `gorm:"type:varchar(20);not null;index" json:"type"`   // REQUISITION, RETURN, SUBSTITUTION
	Status        string    `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	RequesterID   *uuid.UUID `gorm:"type:uuid;index" json:"requester_id"` // nil for guest submissions
	Requester     *User      `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	RequesterName string     `gorm:"type:varchar(255);not null" json:"requester_name"`
	ApprovedBy    *uuid.UUID `gorm:"type:uuid" json:"approved_by"`
	Approver      *User      `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`

	// Origin: where the requester is based. All levels optional.
	DirectionID   *uuid.UUID `gorm:"type:uuid" json:"direction_id"`
	DepartmentID  *uuid.UUID `gorm:"type:uuid" json:"department_id"`
	ServiceID     *uuid.UUID `gorm:"type:uuid" json:"service_id"`
	SectorID      *uuid.UUID `gorm:"type:uuid" json:"sector_id"`
	RepartitionID *uuid.UUID `gorm:"type:uuid" json:"repartition_id"`

	// Destination: where the request must be fulfilled. All levels optional.
	DestDirectionID   *uuid.UUID `gorm:"type:uuid" json:"dest_direction_id"`
	DestDepartmentID  *uuid.UUID `gorm:"type:uuid" json:"dest_department_id"`
	DestServiceID     *uuid.UUID `gorm:"type:uuid" json:"dest_service_id"`
	DestSectorID      *uuid.UUID `gorm:"type:uuid" json:"dest_sector_id"`
	DestRepartitionID *uuid.UUID `gorm:"type:uuid" json:"dest_repartition_id"`

	Comments string `gorm:"type:text" json:"comments"`

	Items []RequestItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// DestinationRefs returns the non-nil destination location references in
// hierarchy order. Used for routing and destination-group authorization.
func (r *Request) DestinationRefs() []LocationRef {
	var refs []LocationRef
	if r.DestDirectionID != nil {
		refs = append(refs, LocationRef{Kind: LocationDirection, ID: *r.DestDirectionID})
	}
	if r.DestDepartmentID != nil {
		refs = append(refs, LocationRef{Kind: LocationDepartment, ID: *r.DestDepartmentID})
	}
	if r.DestServiceID != nil {
		refs = append(refs, LocationRef{Kind: LocationService, ID: *r.DestServiceID})
	}
	if r.DestSectorID != nil {
		refs = append(refs, LocationRef{Kind: LocationSector, ID: *r.DestSectorID})
	}
	if r.DestRepartitionID != nil {
		refs = append(refs, LocationRef{Kind: LocationRepartition, ID: *r.DestRepartitionID})
	}
	return refs
}

// RequestItem is a line item exclusively owned by its parent Request
type RequestItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID   uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Unit        string    `gorm:"type:varchar(20);not null;default:'UN'" json:"unit"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *RequestItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
