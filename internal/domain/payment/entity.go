package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type OrderType string

const (
	OrderTypeDesign   OrderType = "design"
	OrderTypeRevision OrderType = "revision"
)

type Rail string

const (
	RailGateway Rail = "gateway"
	RailWallet  Rail = "wallet"
)

func (r Rail) Valid() bool {
	return r == RailGateway || r == RailWallet
}

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
	OrderFailed  OrderStatus = "failed"
)

// Order represents payment_orders. Quantity is the number of extra revisions bought.
type Order struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"`
	DesignRequestID uuid.UUID     `gorm:"type:uuid;index;not null"`
	SchoolID        uuid.UUID     `gorm:"type:uuid;index;not null"`
	OrderType       OrderType     `gorm:"type:varchar(16);not null"`
	Rail            Rail          `gorm:"type:varchar(16);not null"`
	QuotationID     uuid.NullUUID `gorm:"type:uuid"`
	Quantity        int           `gorm:"not null;default:0"`
	Subtotal        int64         `gorm:"not null"`
	Fee             int64         `gorm:"not null"`
	Total           int64         `gorm:"not null"`
	Status          OrderStatus   `gorm:"type:varchar(16);index;not null"`
	Description     string
	ReturnPath      string
	PaymentURL      sql.NullString
	PaidAt          sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Order) TableName() string {
	return "payment_orders"
}

// Wallet represents wallets, a school's prepaid balance
type Wallet struct {
	SchoolID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Balance   int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (Wallet) TableName() string {
	return "wallets"
}

// WalletTransaction represents wallet_transactions, one row per debit or credit
type WalletTransaction struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey"`
	SchoolID  uuid.UUID     `gorm:"type:uuid;index;not null"`
	OrderID   uuid.NullUUID `gorm:"type:uuid"`
	Amount    int64         `gorm:"not null"`
	CreatedAt time.Time
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
