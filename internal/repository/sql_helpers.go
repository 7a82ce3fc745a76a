package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// Repositories groups the repositories bound to one *gorm.DB, usually a transaction.
type Repositories struct {
	Messages   MessageRepository
	Rooms      ChatRoomRepository
	Requests   DesignRequestRepository
	Deliveries DeliveryRepository
	Payments   PaymentRepository
	Wallets    WalletRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Messages:   NewMessageRepository(db),
		Rooms:      NewChatRoomRepository(db),
		Requests:   NewDesignRequestRepository(db),
		Deliveries: NewDeliveryRepository(db),
		Payments:   NewPaymentRepository(db),
		Wallets:    NewWalletRepository(db),
	}
}

// WithTx runs fn inside a transaction with repositories bound to it.
func WithTx(ctx context.Context, db *gorm.DB, fn func(Repositories) error) error {
	if db == nil {
		return errors.New("database not initialized")
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
