package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/events"
	"uniform-studio/internal/gateway"
	"uniform-studio/internal/repository"
	studio_errors "uniform-studio/pkg/errors"
	"uniform-studio/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentService struct {
	db             *gorm.DB
	paymentRepo    repository.PaymentRepository
	walletRepo     repository.WalletRepository
	rates          *ConfigService
	gateway        gateway.Client
	publisher      *EventPublisher
	returnBase     string
	callbackSecret string
	log            *logger.Logger
}

type PaymentConfig struct {
	ReturnBase     string
	CallbackSecret string
}

func NewPaymentService(
	db *gorm.DB,
	paymentRepo repository.PaymentRepository,
	walletRepo repository.WalletRepository,
	rates *ConfigService,
	gw gateway.Client,
	bus events.Bus,
	cfg PaymentConfig,
	log *logger.Logger,
) *PaymentService {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &PaymentService{
		db:             db,
		paymentRepo:    paymentRepo,
		walletRepo:     walletRepo,
		rates:          rates,
		gateway:        gw,
		publisher:      NewEventPublisher(bus, log),
		returnBase:     strings.TrimRight(cfg.ReturnBase, "/"),
		callbackSecret: cfg.CallbackSecret,
		log:            log,
	}
}

// PaymentInput is an order to charge. Breakdown must come from Quote.
type PaymentInput struct {
	SchoolID    uuid.UUID
	RequestID   uuid.UUID
	OrderType   payment.OrderType
	Rail        payment.Rail
	QuotationID uuid.NullUUID
	Quantity    int
	Breakdown   payment.Breakdown
	Description string
	ReturnPath  string
}

// PaymentResult tells the client where to go next: the gateway checkout for the
// gateway rail, or the return path for an already settled wallet payment.
type PaymentResult struct {
	OrderID   uuid.UUID           `json:"order_id"`
	Status    payment.OrderStatus `json:"status"`
	URL       string              `json:"url"`
	Breakdown payment.Breakdown   `json:"breakdown"`
}

type ConfirmInput struct {
	OrderID   uuid.UUID
	Status    string
	Signature string
}

const (
	CallbackStatusPaid   = "paid"
	CallbackStatusFailed = "failed"
)

// Quote prices basePrice plus extraCount revisions at unitPrice, with the service fee.
// A total above payment.MaxPayableTotal is returned together with ErrPaymentCeiling.
func (s *PaymentService) Quote(ctx context.Context, basePrice int64, extraCount int, unitPrice int64) (payment.Breakdown, error) {
	gross, err := payment.ComputeTotal(basePrice, extraCount, unitPrice, 0)
	if err != nil && !errors.Is(err, studio_errors.ErrPaymentCeiling) {
		return payment.Breakdown{}, err
	}
	rate := 0.0
	if s.rates != nil {
		rate = s.rates.ServiceRate(ctx, gross.Subtotal)
	}
	return payment.ComputeTotal(basePrice, extraCount, unitPrice, rate)
}

func (s *PaymentService) WalletBalance(ctx context.Context, schoolID uuid.UUID) (int64, error) {
	return s.walletRepo.GetBalance(ctx, schoolID)
}

func (s *PaymentService) Order(ctx context.Context, schoolID, orderID uuid.UUID) (payment.Order, error) {
	o, err := s.paymentRepo.GetOrder(ctx, orderID)
	if err != nil {
		return payment.Order{}, err
	}
	if o.SchoolID != schoolID {
		return payment.Order{}, studio_errors.ErrNotFound
	}
	return o, nil
}

// RequestPaymentURL creates the order and starts payment on the chosen rail.
// Nothing is written when validation fails or the wallet can't cover the total.
func (s *PaymentService) RequestPaymentURL(ctx context.Context, in PaymentInput) (PaymentResult, error) {
	if err := s.validate(in); err != nil {
		return PaymentResult{}, err
	}

	now := time.Now().UTC()
	order := payment.Order{
		ID:              uuid.New(),
		DesignRequestID: in.RequestID,
		SchoolID:        in.SchoolID,
		OrderType:       in.OrderType,
		Rail:            in.Rail,
		QuotationID:     in.QuotationID,
		Quantity:        in.Quantity,
		Subtotal:        in.Breakdown.Subtotal,
		Fee:             in.Breakdown.Fee,
		Total:           in.Breakdown.Total,
		Status:          payment.OrderPending,
		Description:     in.Description,
		ReturnPath:      in.ReturnPath,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if in.Rail == payment.RailWallet {
		return s.payFromWallet(ctx, order, in.Breakdown)
	}
	return s.payThroughGateway(ctx, order, in.Breakdown)
}

func (s *PaymentService) payFromWallet(ctx context.Context, order payment.Order, b payment.Breakdown) (PaymentResult, error) {
	err := repository.WithTx(ctx, s.db, func(repos repository.Repositories) error {
		if err := repos.Payments.CreateOrder(ctx, &order); err != nil {
			return err
		}
		orderID := uuid.NullUUID{UUID: order.ID, Valid: true}
		if err := repos.Wallets.Debit(ctx, order.SchoolID, orderID, order.Total); err != nil {
			return err
		}
		if _, err := repos.Payments.MarkPaid(ctx, order.ID, time.Now().UTC()); err != nil {
			return err
		}
		order.Status = payment.OrderPaid
		return applyOrder(ctx, repos, order)
	})
	if err != nil {
		return PaymentResult{}, err
	}

	s.publishSettled(ctx, order)
	return PaymentResult{
		OrderID:   order.ID,
		Status:    payment.OrderPaid,
		URL:       s.returnURL(order.ReturnPath),
		Breakdown: b,
	}, nil
}

func (s *PaymentService) payThroughGateway(ctx context.Context, order payment.Order, b payment.Breakdown) (PaymentResult, error) {
	if s.gateway == nil {
		return PaymentResult{}, studio_errors.ErrServiceUnavailable
	}
	if err := s.paymentRepo.CreateOrder(ctx, &order); err != nil {
		return PaymentResult{}, err
	}

	res, err := s.gateway.CreatePayment(ctx, gateway.PaymentRequest{
		OrderID:     order.ID.String(),
		Amount:      order.Total,
		Description: order.Description,
		OrderType:   string(order.OrderType),
		ReturnURL:   s.returnURL(order.ReturnPath),
	})
	if err != nil {
		if markErr := s.paymentRepo.MarkFailed(ctx, order.ID); markErr != nil {
			s.log.WithContext(ctx).Error("failed to mark order failed", zap.String("order_id", order.ID.String()), zap.Error(markErr))
		}
		return PaymentResult{}, fmt.Errorf("%w: %v", studio_errors.ErrGateway, err)
	}

	if err := s.paymentRepo.SetPaymentURL(ctx, order.ID, res.URL); err != nil {
		return PaymentResult{}, err
	}
	s.publisher.PublishPayment(ctx, events.EventTypePaymentRequested, order)

	return PaymentResult{
		OrderID:   order.ID,
		Status:    payment.OrderPending,
		URL:       res.URL,
		Breakdown: b,
	}, nil
}

// Confirm handles the gateway callback. A paid order applies its effect exactly
// once no matter how often the callback is delivered.
func (s *PaymentService) Confirm(ctx context.Context, in ConfirmInput) (payment.Order, error) {
	if in.OrderID == uuid.Nil {
		return payment.Order{}, studio_errors.ErrInvalidInput
	}
	if !gateway.Verify(s.callbackSecret, in.OrderID.String(), in.Status, in.Signature) {
		return payment.Order{}, studio_errors.ErrUnauthorized
	}

	switch in.Status {
	case CallbackStatusPaid:
		var order payment.Order
		applied := false
		err := repository.WithTx(ctx, s.db, func(repos repository.Repositories) error {
			changed, err := repos.Payments.MarkPaid(ctx, in.OrderID, time.Now().UTC())
			if err != nil {
				return err
			}
			order, err = repos.Payments.GetOrder(ctx, in.OrderID)
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
			applied = true
			return applyOrder(ctx, repos, order)
		})
		if err != nil {
			s.log.WithContext(ctx).Error("payment confirmation failed", zap.String("order_id", in.OrderID.String()), zap.Error(err))
			return payment.Order{}, err
		}
		if applied {
			s.publishSettled(ctx, order)
		}
		return order, nil

	case CallbackStatusFailed:
		if err := s.paymentRepo.MarkFailed(ctx, in.OrderID); err != nil {
			return payment.Order{}, err
		}
		order, err := s.paymentRepo.GetOrder(ctx, in.OrderID)
		if err != nil {
			return payment.Order{}, err
		}
		if order.Status == payment.OrderFailed {
			s.publisher.PublishPayment(ctx, events.EventTypePaymentFailed, order)
		}
		return order, nil

	default:
		return payment.Order{}, studio_errors.ErrInvalidInput
	}
}

// applyOrder grants what a paid order bought.
func applyOrder(ctx context.Context, repos repository.Repositories, o payment.Order) error {
	switch o.OrderType {
	case payment.OrderTypeRevision:
		req, err := repos.Requests.GetByID(ctx, o.DesignRequestID)
		if err != nil {
			return err
		}
		hasFinal, err := repos.Deliveries.HasFinal(ctx, req.ID)
		if err != nil {
			return err
		}
		// Locked while the gateway payment was pending; the quota is unusable.
		if design.ChatLocked(req, hasFinal) {
			return nil
		}
		return repos.Requests.SetRevisionTime(ctx, req.ID, req.RevisionTime.TopUp(o.Quantity))

	case payment.OrderTypeDesign:
		if !o.QuotationID.Valid {
			return studio_errors.ErrInvalidInput
		}
		q, err := repos.Requests.GetQuotation(ctx, o.QuotationID.UUID)
		if err != nil {
			return err
		}
		quota := design.Combine(q.RevisionTime, o.Quantity)
		if err := repos.Requests.SelectQuotation(ctx, o.DesignRequestID, q.ID, quota); err != nil {
			return err
		}
		return repos.Requests.SetQuotationStatus(ctx, q.ID, design.StatusSelected)
	}
	return studio_errors.ErrInvalidInput
}

func (s *PaymentService) publishSettled(ctx context.Context, o payment.Order) {
	o.Status = payment.OrderPaid
	s.publisher.PublishPayment(ctx, events.EventTypePaymentPaid, o)
	switch o.OrderType {
	case payment.OrderTypeRevision:
		s.publisher.PublishRequestChanged(ctx, events.EventTypeRevisionsPurchased, o.DesignRequestID)
	case payment.OrderTypeDesign:
		s.publisher.PublishRequestChanged(ctx, events.EventTypeQuotationSelected, o.DesignRequestID)
	}
}

func (s *PaymentService) validate(in PaymentInput) error {
	if in.SchoolID == uuid.Nil || in.RequestID == uuid.Nil {
		return studio_errors.ErrInvalidInput
	}
	if !in.Rail.Valid() {
		return studio_errors.ErrInvalidInput
	}
	if in.OrderType != payment.OrderTypeDesign && in.OrderType != payment.OrderTypeRevision {
		return studio_errors.ErrInvalidInput
	}
	if in.Breakdown.Total <= 0 {
		return studio_errors.ErrInvalidInput
	}
	if in.Breakdown.Total > payment.MaxPayableTotal {
		return studio_errors.ErrPaymentCeiling
	}
	if !ValidReturnPath(in.ReturnPath) {
		return studio_errors.ErrInvalidInput
	}
	return nil
}

// ValidReturnPath accepts only same-site absolute paths.
func ValidReturnPath(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") && !strings.ContainsAny(path, "\\\r\n")
}

func (s *PaymentService) returnURL(path string) string {
	return s.returnBase + path
}
