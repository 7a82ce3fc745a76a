package repository

import (
	"context"
	"errors"

	"uniform-studio/internal/domain/design"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresDeliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &PostgresDeliveryRepository{db: db}
}

func (r *PostgresDeliveryRepository) Create(ctx context.Context, d *design.Delivery) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *PostgresDeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (design.Delivery, error) {
	var d design.Delivery
	err := r.db.WithContext(ctx).
		Preload("DeliveryItems").
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return design.Delivery{}, studio_errors.ErrNotFound
		}
		return design.Delivery{}, err
	}
	return d, nil
}

func (r *PostgresDeliveryRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]design.Delivery, error) {
	var deliveries []design.Delivery
	err := r.db.WithContext(ctx).
		Preload("DeliveryItems").
		Where("design_request_id = ?", requestID).
		Order("version ASC").
		Order("submit_date ASC").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *PostgresDeliveryRepository) HasFinal(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&design.Delivery{}).
		Where("design_request_id = ? AND is_final = ?", requestID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkFinal flips is_final on one delivery only while no delivery of the request is
// final and the request is still open.
func (r *PostgresDeliveryRepository) MarkFinal(ctx context.Context, requestID, deliveryID uuid.UUID) error {
	finals := r.db.Model(&design.Delivery{}).
		Select("1").
		Where("design_request_id = ? AND is_final = ?", requestID, true)
	open := r.db.Model(&design.DesignRequest{}).
		Select("1").
		Where("id = ? AND status NOT IN ?", requestID, []design.Status{design.StatusCompleted, design.StatusCanceled})

	res := r.db.WithContext(ctx).
		Model(&design.Delivery{}).
		Where("id = ? AND design_request_id = ?", deliveryID, requestID).
		Where("NOT EXISTS (?)", finals).
		Where("EXISTS (?)", open).
		Update("is_final", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return studio_errors.ErrAlreadyFinal
	}
	return nil
}

func (r *PostgresDeliveryRepository) CreateRevision(ctx context.Context, rev *design.RevisionRequest) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *PostgresDeliveryRepository) ListUndoneRevisions(ctx context.Context, requestID uuid.UUID) ([]design.RevisionRequest, error) {
	var revisions []design.RevisionRequest
	err := r.db.WithContext(ctx).
		Where("design_request_id = ? AND status = ?", requestID, design.RevisionUndone).
		Order("request_date ASC").
		Find(&revisions).Error
	if err != nil {
		return nil, err
	}
	return revisions, nil
}
