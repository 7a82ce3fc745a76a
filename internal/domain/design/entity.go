package design

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusCanceled    Status = "canceled"
	StatusImported    Status = "imported"
	StatusCreated     Status = "created"
	StatusPaid        Status = "paid"
	StatusUnpaid      Status = "unpaid"
	StatusProgressing Status = "progressing"
	StatusRejected    Status = "rejected"
	StatusSelected    Status = "selected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCanceled, StatusImported,
		StatusCreated, StatusPaid, StatusUnpaid, StatusProgressing, StatusRejected, StatusSelected:
		return true
	}
	return false
}

// DesignRequest represents the design_requests table
type DesignRequest struct {
	ID                     uuid.UUID     `gorm:"type:uuid;primaryKey"`
	SchoolID               uuid.UUID     `gorm:"type:uuid;index;not null"`
	Name                   string        `gorm:"not null"`
	Status                 Status        `gorm:"type:varchar(32);index;not null"`
	RevisionTime           RevisionQuota `gorm:"not null;default:0"`
	FinalDesignQuotationID uuid.NullUUID `gorm:"type:uuid"`
	Feedback               sql.NullString
	CancelReason           sql.NullString
	CreatedAt              time.Time
	UpdatedAt              time.Time

	DesignQuotations []DesignQuotation `gorm:"foreignKey:DesignRequestID"`
	Items            []DesignItem      `gorm:"foreignKey:DesignRequestID"`
}

// DesignQuotation represents design_quotations, a designer's offer on a request
type DesignQuotation struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey"`
	DesignRequestID    uuid.UUID     `gorm:"type:uuid;index;not null"`
	DesignerID         uuid.UUID     `gorm:"type:uuid;not null"`
	DesignerName       string        `gorm:"not null"`
	DesignerEmail      string        `gorm:"not null"`
	Price              int64         `gorm:"not null"`
	RevisionTime       RevisionQuota `gorm:"not null;default:0"`
	ExtraRevisionPrice int64         `gorm:"not null;default:0"`
	DeliveryWithIn     int           `gorm:"not null;default:0"`
	Status             Status        `gorm:"type:varchar(32);not null"`
	CreatedAt          time.Time
}

// DesignItem represents design_items, one garment of the uniform
type DesignItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	DesignRequestID uuid.UUID `gorm:"type:uuid;index;not null"`
	Type            string    `gorm:"not null"`
	Category        string
	Color           string
	Note            sql.NullString
}

// Delivery represents deliveries, a versioned submission by the designer
type Delivery struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	DesignRequestID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name            string    `gorm:"not null"`
	Version         int       `gorm:"not null"`
	SubmitDate      time.Time `gorm:"not null"`
	IsRevision      bool      `gorm:"not null;default:false"`
	IsFinal         bool      `gorm:"not null;default:false"`
	Note            sql.NullString

	DeliveryItems []DeliveryItem `gorm:"foreignKey:DeliveryID"`
}

// DeliveryItem represents delivery_items
type DeliveryItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeliveryID    uuid.UUID `gorm:"type:uuid;index;not null"`
	DesignItemID  uuid.UUID `gorm:"type:uuid;not null"`
	FrontImageURL string
	BackImageURL  string
}

type RevisionStatus string

const (
	RevisionUndone RevisionStatus = "undone"
	RevisionDone   RevisionStatus = "done"
)

// RevisionRequest represents revision_requests
type RevisionRequest struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	DeliveryID      uuid.UUID      `gorm:"type:uuid;index;not null"`
	DesignRequestID uuid.UUID      `gorm:"type:uuid;index;not null"`
	Note            string         `gorm:"not null"`
	Status          RevisionStatus `gorm:"type:varchar(16);not null"`
	RequestDate     time.Time      `gorm:"not null"`
}

func (DesignRequest) TableName() string {
	return "design_requests"
}

func (DesignQuotation) TableName() string {
	return "design_quotations"
}

func (DesignItem) TableName() string {
	return "design_items"
}

func (Delivery) TableName() string {
	return "deliveries"
}

func (DeliveryItem) TableName() string {
	return "delivery_items"
}

func (RevisionRequest) TableName() string {
	return "revision_requests"
}
