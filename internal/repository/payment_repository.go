package repository

import (
	"context"
	"errors"
	"time"

	"uniform-studio/internal/domain/payment"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresPaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

func (r *PostgresPaymentRepository) CreateOrder(ctx context.Context, o *payment.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *PostgresPaymentRepository) GetOrder(ctx context.Context, id uuid.UUID) (payment.Order, error) {
	var o payment.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payment.Order{}, studio_errors.ErrNotFound
		}
		return payment.Order{}, err
	}
	return o, nil
}

func (r *PostgresPaymentRepository) SetPaymentURL(ctx context.Context, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).
		Model(&payment.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_url": url,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return studio_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresPaymentRepository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&payment.Order{}).
		Where("id = ? AND status = ?", id, payment.OrderPending).
		Updates(map[string]interface{}{
			"status":     payment.OrderPaid,
			"paid_at":    at,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PostgresPaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&payment.Order{}).
		Where("id = ? AND status = ?", id, payment.OrderPending).
		Updates(map[string]interface{}{
			"status":     payment.OrderFailed,
			"updated_at": time.Now(),
		}).Error
}

type PostgresWalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &PostgresWalletRepository{db: db}
}

// GetBalance returns 0 for schools that never topped up.
func (r *PostgresWalletRepository) GetBalance(ctx context.Context, schoolID uuid.UUID) (int64, error) {
	var w payment.Wallet
	err := r.db.WithContext(ctx).Where("school_id = ?", schoolID).First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return w.Balance, nil
}

func (r *PostgresWalletRepository) Debit(ctx context.Context, schoolID uuid.UUID, orderID uuid.NullUUID, amount int64) error {
	if amount <= 0 {
		return studio_errors.ErrInvalidInput
	}
	res := r.db.WithContext(ctx).
		Model(&payment.Wallet{}).
		Where("school_id = ? AND balance >= ?", schoolID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return studio_errors.ErrInsufficientBalance
	}
	return r.db.WithContext(ctx).Create(&payment.WalletTransaction{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		OrderID:   orderID,
		Amount:    -amount,
		CreatedAt: time.Now(),
	}).Error
}

func (r *PostgresWalletRepository) Credit(ctx context.Context, schoolID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return studio_errors.ErrInvalidInput
	}
	now := time.Now()
	wallet := payment.Wallet{SchoolID: schoolID, Balance: amount, UpdatedAt: now}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "school_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("wallets.balance + ?", amount),
			"updated_at": now,
		}),
	}).Create(&wallet).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&payment.WalletTransaction{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		Amount:    amount,
		CreatedAt: now,
	}).Error
}
