package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"hospreq/internal/model"
	"hospreq/internal/repository"
	"hospreq/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

// LocationRefsDTO carries the optional five-level organizational reference set
type LocationRefsDTO struct {
	DirectionID   *string `json:"direction_id"`
	DepartmentID  *string `json:"department_id"`
	ServiceID     *string `json:"service_id"`
	SectorID      *string `json:"sector_id"`
	RepartitionID *string `json:"repartition_id"`
}

type CreateRequestDTO struct {
	Type          string           `json:"type" binding:"required,oneof=REQUISITION RETURN SUBSTITUTION"`
	RequesterName string           `json:"requester_name" binding:"required"`
	RequesterID   string           `json:"requester_id"` // empty for guest submissions
	Description   string           `json:"description" binding:"required"`
	Quantity      int              `json:"quantity" binding:"required,min=1"`
	Unit          string           `json:"unit"`
	Comments      string           `json:"comments"`
	Origin        *LocationRefsDTO `json:"origin"`
	Destination   *LocationRefsDTO `json:"destination"`
}

type UpdateStatusDTO struct {
	Status string `json:"status" binding:"required"`
}

type DeleteRequestsDTO struct {
	IDs []string `json:"ids" binding:"required"`
}

type RequestItemResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
}

type RequestResponse struct {
	ID            string                `json:"id"`
	RequestNumber string                `json:"request_number"`
	Type          string                `json:"type"`
	Status        string                `json:"status"`
	StatusLabel   string                `json:"status_label"`
	RequesterID   *string               `json:"requester_id"`
	RequesterName string                `json:"requester_name"`
	ApprovedBy    *string               `json:"approved_by"`
	ApproverName  string                `json:"approver_name,omitempty"`
	Comments      string                `json:"comments"`
	Items         []RequestItemResponse `json:"items"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
}

// --- Interface ---

// RequestService owns the request lifecycle: creation, status transitions,
// approval, acceptance and bulk deletion, with authorization gating and
// notification fan-out.
type RequestService interface {
	Create(ctx context.Context, req CreateRequestDTO) (*RequestResponse, error)
	GetByID(ctx context.Context, id string) (*RequestResponse, error)
	List(ctx context.Context, status string, page, limit int) ([]RequestResponse, int64, error)
	UpdateStatus(ctx context.Context, id, actorID, newStatus string) (*RequestResponse, error)
	Approve(ctx context.Context, id, actorID string) (*RequestResponse, error)
	Accept(ctx context.Context, id, actorID string) (*RequestResponse, error)
	DeleteBatch(ctx context.Context, ids []string) (int64, error)
}

type requestService struct {
	requests   repository.RequestRepository
	audits     repository.AuditRepository
	tx         repository.TransactionManager
	authorizer Authorizer
	notifier   Notifier
}

func NewRequestService(
	requests repository.RequestRepository,
	audits repository.AuditRepository,
	tx repository.TransactionManager,
	authorizer Authorizer,
	notifier Notifier,
) RequestService {
	return &requestService{
		requests:   requests,
		audits:     audits,
		tx:         tx,
		authorizer: authorizer,
		notifier:   notifier,
	}
}

// --- Implementation ---

func (s *requestService) Create(ctx context.Context, dto CreateRequestDTO) (*RequestResponse, error) {
	if !model.ValidRequestType(dto.Type) {
		return nil, apperror.Validation("invalid request type: %s", dto.Type)
	}
	if strings.TrimSpace(dto.RequesterName) == "" {
		return nil, apperror.Validation("requester_name is required")
	}
	if strings.TrimSpace(dto.Description) == "" {
		return nil, apperror.Validation("description is required")
	}
	if dto.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	var requesterID *uuid.UUID
	if dto.RequesterID != "" {
		parsed, err := uuid.Parse(dto.RequesterID)
		if err != nil {
			return nil, apperror.Validation("invalid requester_id: %s", dto.RequesterID)
		}
		requesterID = &parsed
	}

	unit := dto.Unit
	if unit == "" {
		unit = model.DefaultUnit
	}

	request := &model.Request{
		Type:          dto.Type,
		Status:        model.RequestStatusPending,
		RequesterID:   requesterID,
		RequesterName: dto.RequesterName,
		Comments:      dto.Comments,
		Items: []model.RequestItem{{
			Description: dto.Description,
			Quantity:    dto.Quantity,
			Unit:        unit,
		}},
	}

	if err := applyLocationRefs(dto.Origin, &request.DirectionID, &request.DepartmentID,
		&request.ServiceID, &request.SectorID, &request.RepartitionID); err != nil {
		return nil, err
	}
	if err := applyLocationRefs(dto.Destination, &request.DestDirectionID, &request.DestDepartmentID,
		&request.DestServiceID, &request.DestSectorID, &request.DestRepartitionID); err != nil {
		return nil, err
	}

	// Request, item, number assignment and audit row commit atomically
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		number, err := s.requests.NextRequestNumber(txCtx)
		if err != nil {
			return apperror.Store("failed to assign request number", err)
		}
		request.RequestNumber = number

		if err := s.requests.Create(txCtx, request); err != nil {
			return apperror.Store("failed to create request", err)
		}

		return s.logAudit(txCtx, requesterID, model.ActionCreateRequest, request, map[string]interface{}{
			"type":     request.Type,
			"quantity": dto.Quantity,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, request.ID)
}

func (s *requestService) GetByID(ctx context.Context, id string) (*RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid request id: %s", id)
	}
	return s.reload(ctx, requestID)
}

func (s *requestService) List(ctx context.Context, status string, page, limit int) ([]RequestResponse, int64, error) {
	if status != "" && !model.ValidRequestStatus(status) {
		return nil, 0, apperror.Validation("invalid status filter: %s", status)
	}

	requests, total, err := s.requests.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, apperror.Store("failed to list requests", err)
	}

	result := make([]RequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, *toRequestResponse(&requests[i]))
	}
	return result, total, nil
}

// UpdateStatus transitions a request to any recognized status. Authorization:
// the requester may always transition their own request; anyone else must
// belong to a matching destination group. Terminal statuses are frozen.
func (s *requestService) UpdateStatus(ctx context.Context, id, actorID, newStatus string) (*RequestResponse, error) {
	actor, err := requireActor(actorID)
	if err != nil {
		return nil, err
	}
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid request id: %s", id)
	}

	var updated *model.Request
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		request, err := s.findRequest(txCtx, requestID)
		if err != nil {
			return err
		}

		if !model.ValidRequestStatus(newStatus) {
			return apperror.Validation("invalid status: %s", newStatus)
		}
		if model.TerminalStatus(request.Status) {
			return apperror.Conflict("request %s is already %s and cannot change status",
				request.RequestNumber, request.Status)
		}

		if err := s.authorizer.CanTransition(txCtx, actor, request); err != nil {
			return err
		}

		if err := s.requests.UpdateFields(txCtx, request.ID, map[string]interface{}{
			"status": newStatus,
		}); err != nil {
			return apperror.Store("failed to update request status", err)
		}
		request.Status = newStatus
		updated = request

		return s.logAudit(txCtx, &actor, model.ActionUpdateRequestStatus, request, map[string]interface{}{
			"status": newStatus,
		})
	})
	if err != nil {
		return nil, err
	}

	// Fan-out is fire-and-forget: the committed transition never depends on it
	s.notifier.RequestUpdated(ctx, updated, actor)

	return s.reload(ctx, requestID)
}

// Approve moves a PENDING request to APPROVED and records the approver
func (s *requestService) Approve(ctx context.Context, id, actorID string) (*RequestResponse, error) {
	actor, err := requireActor(actorID)
	if err != nil {
		return nil, err
	}
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid request id: %s", id)
	}

	var approved *model.Request
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		request, err := s.findRequest(txCtx, requestID)
		if err != nil {
			return err
		}

		if request.Status != model.RequestStatusPending {
			return apperror.Conflict("request %s is %s; only PENDING requests can be approved",
				request.RequestNumber, request.Status)
		}

		if err := s.requests.UpdateFields(txCtx, request.ID, map[string]interface{}{
			"status":      model.RequestStatusApproved,
			"approved_by": actor,
		}); err != nil {
			return apperror.Store("failed to approve request", err)
		}
		request.Status = model.RequestStatusApproved
		request.ApprovedBy = &actor
		approved = request

		return s.logAudit(txCtx, &actor, model.ActionApproveRequest, request, nil)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.RequestApproved(ctx, approved, actor)

	return s.reload(ctx, requestID)
}

// Accept moves an APPROVED request to COMPLETED
func (s *requestService) Accept(ctx context.Context, id, actorID string) (*RequestResponse, error) {
	actor, err := requireActor(actorID)
	if err != nil {
		return nil, err
	}
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid request id: %s", id)
	}

	var accepted *model.Request
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		request, err := s.findRequest(txCtx, requestID)
		if err != nil {
			return err
		}

		if request.Status != model.RequestStatusApproved {
			return apperror.Conflict("request %s is %s; only APPROVED requests can be accepted",
				request.RequestNumber, request.Status)
		}

		if err := s.requests.UpdateFields(txCtx, request.ID, map[string]interface{}{
			"status": model.RequestStatusCompleted,
		}); err != nil {
			return apperror.Store("failed to accept request", err)
		}
		request.Status = model.RequestStatusCompleted
		accepted = request

		return s.logAudit(txCtx, &actor, model.ActionAcceptRequest, request, nil)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.RequestAccepted(ctx, accepted, actor)

	return s.reload(ctx, requestID)
}

// DeleteBatch removes requests and their items. Ids that do not resolve are
// skipped; the batch never aborts because of them. No notification is sent.
func (s *requestService) DeleteBatch(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperror.Validation("ids list must not be empty")
	}

	requestIDs := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return 0, apperror.Validation("invalid request id: %s", raw)
		}
		requestIDs = append(requestIDs, parsed)
	}

	var deleted int64
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = s.requests.DeleteBatch(txCtx, requestIDs)
		if err != nil {
			return apperror.Store("failed to delete requests", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"count": deleted})
		return s.audits.Log(txCtx, &model.AuditLog{
			Action:  model.ActionDeleteRequests,
			Details: string(details),
		})
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// --- Helpers ---

func requireActor(actorID string) (uuid.UUID, error) {
	if actorID == "" {
		return uuid.Nil, apperror.Unauthenticated("authentication required")
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid actor id: %s", actorID)
	}
	return actor, nil
}

func (s *requestService) findRequest(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("request not found: %s", id)
		}
		return nil, apperror.Store("failed to load request", err)
	}
	return request, nil
}

func (s *requestService) reload(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	request, err := s.requests.FindByIDWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("request not found: %s", id)
		}
		return nil, apperror.Store("failed to reload request", err)
	}
	return toRequestResponse(request), nil
}

func (s *requestService) logAudit(ctx context.Context, userID *uuid.UUID, action string, request *model.Request, extra map[string]interface{}) error {
	payload := map[string]interface{}{"request_number": request.RequestNumber}
	for k, v := range extra {
		payload[k] = v
	}
	details, _ := json.Marshal(payload)

	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   request.ID.String(),
		EntityName: request.RequestNumber,
		Details:    string(details),
	}
	if err := s.audits.Log(ctx, entry); err != nil {
		return apperror.Store("failed to write audit log", err)
	}
	return nil
}

func applyLocationRefs(dto *LocationRefsDTO, direction, department, service, sector, repartition **uuid.UUID) error {
	if dto == nil {
		return nil
	}
	fields := []struct {
		raw    *string
		target **uuid.UUID
		name   string
	}{
		{dto.DirectionID, direction, "direction_id"},
		{dto.DepartmentID, department, "department_id"},
		{dto.ServiceID, service, "service_id"},
		{dto.SectorID, sector, "sector_id"},
		{dto.RepartitionID, repartition, "repartition_id"},
	}
	for _, f := range fields {
		if f.raw == nil || *f.raw == "" {
			continue
		}
		parsed, err := uuid.Parse(*f.raw)
		if err != nil {
			return apperror.Validation("invalid %s: %s", f.name, *f.raw)
		}
		*f.target = &parsed
	}
	return nil
}

func toRequestResponse(r *model.Request) *RequestResponse {
	resp := &RequestResponse{
		ID:            r.ID.String(),
		RequestNumber: r.RequestNumber,
		Type:          r.Type,
		Status:        r.Status,
		StatusLabel:   model.StatusLabel(r.Status),
		RequesterName: r.RequesterName,
		Comments:      r.Comments,
		CreatedAt:     r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     r.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if r.RequesterID != nil {
		s := r.RequesterID.String()
		resp.RequesterID = &s
	}
	if r.ApprovedBy != nil {
		s := r.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if r.Approver != nil {
		resp.ApproverName = r.Approver.Username
	}

	resp.Items = make([]RequestItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		resp.Items = append(resp.Items, RequestItemResponse{
			ID:          item.ID.String(),
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
		})
	}

	return resp
}
