package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"hospreq/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestRepository defines the interface for data access of Request entities
type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Request, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	DeleteBatch(ctx context.Context, ids []uuid.UUID) (int64, error)
	NextRequestNumber(ctx context.Context) (string, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	// Items are persisted through the association in the same insert
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).Preload("Items").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Requester").
		Preload("Approver").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, status string, page, limit int) ([]model.Request, int64, error) {
	var requests []model.Request
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Request{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Items").Preload("Requester").Preload("Approver")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := GetDB(ctx, r.db).Model(&model.Request{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteBatch removes the given requests and cascades to their items.
// Unresolved ids are skipped; the returned count is the number of requests
// actually deleted.
func (r *requestRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) (int64, error) {
	db := GetDB(ctx, r.db)

	if err := db.Where("request_id IN ?", ids).Delete(&model.RequestItem{}).Error; err != nil {
		return 0, err
	}

	result := db.Where("id IN ?", ids).Delete(&model.Request{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// NextRequestNumber assigns the next sequential request number (REQ + 6-digit
// zero-padded sequence). Concurrent creations are serialized through a postgres
// advisory lock scoped to the surrounding transaction; on other dialects the
// transaction itself is the only guard.
func (r *requestRepository) NextRequestNumber(ctx context.Context) (string, error) {
	db := GetDB(ctx, r.db)

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", model.RequestNumberPrefix).Error; err != nil {
			return "", err
		}
	}

	// Deletions leave gaps, so the sequence continues from the highest
	// assigned number, never the row count. The fixed-width zero padding
	// keeps MAX() lexicographically correct.
	var last sql.NullString
	err := db.Model(&model.Request{}).
		Where("request_number LIKE ?", model.RequestNumberPrefix+"%").
		Select("MAX(request_number)").
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 0
	if last.Valid && last.String != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last.String, model.RequestNumberPrefix))
		if err != nil {
			return "", fmt.Errorf("malformed request number %q: %w", last.String, err)
		}
		seq = n
	}

	return fmt.Sprintf("%s%06d", model.RequestNumberPrefix, seq+1), nil
}
