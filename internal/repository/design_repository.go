package repository

import (
	"context"
	"errors"
	"time"

	"uniform-studio/internal/domain/design"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresDesignRequestRepository struct {
	db *gorm.DB
}

func NewDesignRequestRepository(db *gorm.DB) DesignRequestRepository {
	return &PostgresDesignRequestRepository{db: db}
}

func (r *PostgresDesignRequestRepository) Create(ctx context.Context, req *design.DesignRequest) error {
	res := r.db.WithContext(ctx).Create(req)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || isUniqueViolation(res.Error) {
			return studio_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresDesignRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (design.DesignRequest, error) {
	var req design.DesignRequest
	err := r.db.WithContext(ctx).
		Preload("DesignQuotations").
		Preload("Items").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return design.DesignRequest{}, studio_errors.ErrNotFound
		}
		return design.DesignRequest{}, err
	}
	return req, nil
}

func (r *PostgresDesignRequestRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]design.DesignRequest, error) {
	var reqs []design.DesignRequest
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("school_id = ?", schoolID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// ConsumeRevision moves the quota from one value to another, failing with ErrConflict
// when another writer changed it first.
func (r *PostgresDesignRequestRepository) ConsumeRevision(ctx context.Context, id uuid.UUID, from, to design.RevisionQuota) error {
	res := r.db.WithContext(ctx).
		Model(&design.DesignRequest{}).
		Where("id = ? AND revision_time = ?", id, from).
		Updates(map[string]interface{}{
			"revision_time": to,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return studio_errors.ErrConflict
	}
	return nil
}

func (r *PostgresDesignRequestRepository) SetRevisionTime(ctx context.Context, id uuid.UUID, quota design.RevisionQuota) error {
	res := r.db.WithContext(ctx).
		Model(&design.DesignRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"revision_time": quota,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return studio_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresDesignRequestRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	res := r.db.WithContext(ctx).
		Model(&design.DesignRequest{}).
		Where("id = ? AND status IN ?", id, []design.Status{design.StatusPending, design.StatusProcessing}).
		Updates(map[string]interface{}{
			"status":        design.StatusCanceled,
			"cancel_reason": reason,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return studio_errors.ErrInvalidTransition
	}
	return nil
}

func (r *PostgresDesignRequestRepository) SelectQuotation(ctx context.Context, id, quotationID uuid.UUID, quota design.RevisionQuota) error {
	res := r.db.WithContext(ctx).
		Model(&design.DesignRequest{}).
		Where("id = ? AND final_design_quotation_id IS NULL", id).
		Updates(map[string]interface{}{
			"final_design_quotation_id": quotationID,
			"status":                    design.StatusProcessing,
			"revision_time":             quota,
			"updated_at":                time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return studio_errors.ErrConflict
	}
	return nil
}

func (r *PostgresDesignRequestRepository) CreateQuotation(ctx context.Context, q *design.DesignQuotation) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *PostgresDesignRequestRepository) GetQuotation(ctx context.Context, id uuid.UUID) (design.DesignQuotation, error) {
	var q design.DesignQuotation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return design.DesignQuotation{}, studio_errors.ErrNotFound
		}
		return design.DesignQuotation{}, err
	}
	return q, nil
}

func (r *PostgresDesignRequestRepository) ListQuotations(ctx context.Context, requestID uuid.UUID) ([]design.DesignQuotation, error) {
	var quotations []design.DesignQuotation
	err := r.db.WithContext(ctx).
		Where("design_request_id = ?", requestID).
		Order("price ASC").
		Find(&quotations).Error
	if err != nil {
		return nil, err
	}
	return quotations, nil
}

func (r *PostgresDesignRequestRepository) SetQuotationStatus(ctx context.Context, id uuid.UUID, status design.Status) error {
	res := r.db.WithContext(ctx).
		Model(&design.DesignQuotation{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return studio_errors.ErrNotFound
	}
	return nil
}
