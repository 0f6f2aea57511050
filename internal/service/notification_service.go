package service

import (
	"context"
	"encoding/json"
	"errors"

	"hospreq/internal/model"
	"hospreq/internal/repository"
	"hospreq/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	ReadAt    *string         `json:"read_at"`
	CreatedAt string          `json:"created_at"`
}

// NotificationService exposes the per-recipient notification queries
type NotificationService interface {
	ListUnreadForUser(ctx context.Context, userID string) ([]NotificationResponse, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllReadForUser(ctx context.Context, userID string) error
}

type notificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService(notifications repository.NotificationRepository) NotificationService {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) ListUnreadForUser(ctx context.Context, userID string) ([]NotificationResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user id: %s", userID)
	}

	notifications, err := s.notifications.ListUnread(ctx, model.UserRecipient(uid))
	if err != nil {
		return nil, apperror.Store("failed to list notifications", err)
	}

	result := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, toNotificationResponse(n))
	}
	return result, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	notificationID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validation("invalid notification id: %s", id)
	}

	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("notification not found: %s", id)
		}
		return apperror.Store("failed to mark notification as read", err)
	}
	return nil
}

func (s *notificationService) MarkAllReadForUser(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return apperror.Validation("invalid user id: %s", userID)
	}

	if err := s.notifications.MarkAllRead(ctx, model.UserRecipient(uid)); err != nil {
		return apperror.Store("failed to mark notifications as read", err)
	}
	return nil
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Data:      json.RawMessage(n.Data),
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if n.ReadAt != nil {
		s := n.ReadAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ReadAt = &s
	}
	return resp
}
