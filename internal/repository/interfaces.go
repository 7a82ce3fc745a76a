package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"uniform-studio/internal/domain/chat"
	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/domain/school"
	"uniform-studio/internal/domain/system"
)

type MessageRepository interface {
	Create(ctx context.Context, m *chat.Message) error
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]chat.Message, error)
	CountUnread(ctx context.Context, roomID uuid.UUID, self string) (int64, error)
	MarkRoomRead(ctx context.Context, roomID uuid.UUID, self string, at time.Time) (int64, error)
}

type ChatRoomRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (chat.ChatRoom, error)
	// Touch upserts the room summary and returns the next message sequence.
	Touch(ctx context.Context, id uuid.UUID, lastMessage string, at time.Time) (int64, error)
}

type DesignRequestRepository interface {
	Create(ctx context.Context, r *design.DesignRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (design.DesignRequest, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]design.DesignRequest, error)

	ConsumeRevision(ctx context.Context, id uuid.UUID, from, to design.RevisionQuota) error
	SetRevisionTime(ctx context.Context, id uuid.UUID, quota design.RevisionQuota) error
	Cancel(ctx context.Context, id uuid.UUID, reason string) error
	SelectQuotation(ctx context.Context, id, quotationID uuid.UUID, quota design.RevisionQuota) error

	CreateQuotation(ctx context.Context, q *design.DesignQuotation) error
	GetQuotation(ctx context.Context, id uuid.UUID) (design.DesignQuotation, error)
	ListQuotations(ctx context.Context, requestID uuid.UUID) ([]design.DesignQuotation, error)
	SetQuotationStatus(ctx context.Context, id uuid.UUID, status design.Status) error
}

type DeliveryRepository interface {
	Create(ctx context.Context, d *design.Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (design.Delivery, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]design.Delivery, error)
	HasFinal(ctx context.Context, requestID uuid.UUID) (bool, error)
	MarkFinal(ctx context.Context, requestID, deliveryID uuid.UUID) error

	CreateRevision(ctx context.Context, r *design.RevisionRequest) error
	ListUndoneRevisions(ctx context.Context, requestID uuid.UUID) ([]design.RevisionRequest, error)
}

type PaymentRepository interface {
	CreateOrder(ctx context.Context, o *payment.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (payment.Order, error)
	SetPaymentURL(ctx context.Context, id uuid.UUID, url string) error
	// MarkPaid moves a pending order to paid and reports whether this call did it.
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

type WalletRepository interface {
	GetBalance(ctx context.Context, schoolID uuid.UUID) (int64, error)
	Debit(ctx context.Context, schoolID uuid.UUID, orderID uuid.NullUUID, amount int64) error
	Credit(ctx context.Context, schoolID uuid.UUID, amount int64) error
}

type SchoolRepository interface {
	Create(ctx context.Context, s *school.School) error
	GetByID(ctx context.Context, id uuid.UUID) (school.School, error)
	GetByEmail(ctx context.Context, email string) (school.School, error)
}

type ConfigRepository interface {
	Get(ctx context.Context, key string) (system.BusinessConfig, error)
	Set(ctx context.Context, key, value string) error
}
