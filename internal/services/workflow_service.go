package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"uniform-studio/internal/domain/design"
	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/events"
	"uniform-studio/internal/proxy"
	"uniform-studio/internal/repository"
	studio_errors "uniform-studio/pkg/errors"
	"uniform-studio/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// WorkflowService drives the delivery and revision lifecycle of a design request.
type WorkflowService struct {
	db           *gorm.DB
	requestRepo  repository.DesignRequestRepository
	deliveryRepo repository.DeliveryRepository
	access       *proxy.AccessControl
	payments     *PaymentService
	publisher    *EventPublisher
	log          *logger.Logger
}

func NewWorkflowService(
	db *gorm.DB,
	requestRepo repository.DesignRequestRepository,
	deliveryRepo repository.DeliveryRepository,
	access *proxy.AccessControl,
	payments *PaymentService,
	bus events.Bus,
	log *logger.Logger,
) *WorkflowService {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &WorkflowService{
		db:           db,
		requestRepo:  requestRepo,
		deliveryRepo: deliveryRepo,
		access:       access,
		payments:     payments,
		publisher:    NewEventPublisher(bus, log),
		log:          log,
	}
}

// RequestDetail is everything the request screen needs in one round trip.
type RequestDetail struct {
	Request         design.DesignRequest
	Deliveries      []design.Delivery
	UndoneRevisions []design.RevisionRequest
	Locked          bool
}

func (s *WorkflowService) Get(ctx context.Context, schoolID, requestID uuid.UUID) (design.DesignRequest, error) {
	return s.access.LoadOwnedRequest(ctx, schoolID, requestID)
}

func (s *WorkflowService) List(ctx context.Context, schoolID uuid.UUID) ([]design.DesignRequest, error) {
	return s.requestRepo.ListBySchool(ctx, schoolID)
}

func (s *WorkflowService) Detail(ctx context.Context, schoolID, requestID uuid.UUID) (RequestDetail, error) {
	req, err := s.Get(ctx, schoolID, requestID)
	if err != nil {
		return RequestDetail{}, err
	}

	detail := RequestDetail{Request: req}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deliveries, err := s.deliveryRepo.ListByRequest(gctx, requestID)
		detail.Deliveries = deliveries
		return err
	})
	g.Go(func() error {
		revisions, err := s.deliveryRepo.ListUndoneRevisions(gctx, requestID)
		detail.UndoneRevisions = revisions
		return err
	})
	if err := g.Wait(); err != nil {
		return RequestDetail{}, err
	}

	hasFinal := false
	for _, d := range detail.Deliveries {
		if d.IsFinal {
			hasFinal = true
			break
		}
	}
	detail.Locked = design.ChatLocked(req, hasFinal)
	return detail, nil
}

func (s *WorkflowService) Deliveries(ctx context.Context, schoolID, requestID uuid.UUID) ([]design.Delivery, error) {
	if _, err := s.Get(ctx, schoolID, requestID); err != nil {
		return nil, err
	}
	return s.deliveryRepo.ListByRequest(ctx, requestID)
}

func (s *WorkflowService) UndoneRevisions(ctx context.Context, schoolID, requestID uuid.UUID) ([]design.RevisionRequest, error) {
	if _, err := s.Get(ctx, schoolID, requestID); err != nil {
		return nil, err
	}
	return s.deliveryRepo.ListUndoneRevisions(ctx, requestID)
}

func (s *WorkflowService) Quotations(ctx context.Context, schoolID, requestID uuid.UUID) ([]design.DesignQuotation, error) {
	if _, err := s.Get(ctx, schoolID, requestID); err != nil {
		return nil, err
	}
	return s.requestRepo.ListQuotations(ctx, requestID)
}

// ChatLocked reports whether chat and revisions are read-only for the request.
func (s *WorkflowService) ChatLocked(ctx context.Context, requestID uuid.UUID) (bool, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return false, err
	}
	hasFinal, err := s.deliveryRepo.HasFinal(ctx, requestID)
	if err != nil {
		return false, err
	}
	return design.ChatLocked(req, hasFinal), nil
}

// RequestRevision files a revision request against a delivery and consumes one
// revision from the quota. It returns the refreshed request.
func (s *WorkflowService) RequestRevision(ctx context.Context, schoolID, requestID, deliveryID uuid.UUID, note string) (design.DesignRequest, error) {
	note = strings.TrimSpace(note)
	req, err := s.Get(ctx, schoolID, requestID)
	if err != nil {
		return design.DesignRequest{}, err
	}
	hasFinal, err := s.deliveryRepo.HasFinal(ctx, requestID)
	if err != nil {
		return design.DesignRequest{}, err
	}
	if err := design.CheckRequestRevision(req, hasFinal, note); err != nil {
		return design.DesignRequest{}, err
	}
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return design.DesignRequest{}, err
	}
	if delivery.DesignRequestID != req.ID {
		return design.DesignRequest{}, studio_errors.ErrNotFound
	}

	next, err := req.RevisionTime.Consume()
	if err != nil {
		return design.DesignRequest{}, err
	}

	err = repository.WithTx(ctx, s.db, func(repos repository.Repositories) error {
		// A final delivery may have been picked since the checks above.
		final, err := repos.Deliveries.HasFinal(ctx, requestID)
		if err != nil {
			return err
		}
		if final {
			return studio_errors.ErrReadOnly
		}
		err = repos.Deliveries.CreateRevision(ctx, &design.RevisionRequest{
			ID:              uuid.New(),
			DeliveryID:      delivery.ID,
			DesignRequestID: req.ID,
			Note:            note,
			Status:          design.RevisionUndone,
			RequestDate:     time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if req.RevisionTime.IsUnlimited() {
			return nil
		}
		return repos.Requests.ConsumeRevision(ctx, req.ID, req.RevisionTime, next)
	})
	if err != nil {
		return design.DesignRequest{}, err
	}

	s.publisher.PublishRequestChanged(ctx, events.EventTypeRevisionRequested, req.ID)
	return s.requestRepo.GetByID(ctx, req.ID)
}

// QuoteRevisions prices a revision purchase without charging anything.
func (s *WorkflowService) QuoteRevisions(ctx context.Context, schoolID, requestID uuid.UUID, quantity int) (payment.Breakdown, error) {
	_, q, err := s.revisionPurchase(ctx, schoolID, requestID, quantity)
	if err != nil {
		return payment.Breakdown{}, err
	}
	return s.payments.Quote(ctx, design.RevisionPurchasePrice(quantity, q.ExtraRevisionPrice), 0, 0)
}

// BuyMoreRevisions starts payment for quantity extra revisions. The quota is topped
// up once the payment is confirmed.
func (s *WorkflowService) BuyMoreRevisions(ctx context.Context, schoolID, requestID uuid.UUID, quantity int, rail payment.Rail, returnPath string) (PaymentResult, error) {
	req, q, err := s.revisionPurchase(ctx, schoolID, requestID, quantity)
	if err != nil {
		return PaymentResult{}, err
	}

	b, err := s.payments.Quote(ctx, design.RevisionPurchasePrice(quantity, q.ExtraRevisionPrice), 0, 0)
	if err != nil {
		return PaymentResult{}, err
	}

	return s.payments.RequestPaymentURL(ctx, PaymentInput{
		SchoolID:    schoolID,
		RequestID:   req.ID,
		OrderType:   payment.OrderTypeRevision,
		Rail:        rail,
		QuotationID: req.FinalDesignQuotationID,
		Quantity:    quantity,
		Breakdown:   b,
		Description: revisionDescription(req, quantity),
		ReturnPath:  returnPath,
	})
}

func (s *WorkflowService) revisionPurchase(ctx context.Context, schoolID, requestID uuid.UUID, quantity int) (design.DesignRequest, design.DesignQuotation, error) {
	req, err := s.Get(ctx, schoolID, requestID)
	if err != nil {
		return design.DesignRequest{}, design.DesignQuotation{}, err
	}
	hasFinal, err := s.deliveryRepo.HasFinal(ctx, requestID)
	if err != nil {
		return design.DesignRequest{}, design.DesignQuotation{}, err
	}
	if err := design.CheckBuyRevisions(req, hasFinal, quantity); err != nil {
		return design.DesignRequest{}, design.DesignQuotation{}, err
	}
	q, err := s.requestRepo.GetQuotation(ctx, req.FinalDesignQuotationID.UUID)
	if err != nil {
		return design.DesignRequest{}, design.DesignQuotation{}, err
	}
	return req, q, nil
}

// MakeFinal marks deliveryID as the final delivery. Only one delivery per request
// can ever be final; the request becomes read-only afterwards.
func (s *WorkflowService) MakeFinal(ctx context.Context, schoolID, requestID, deliveryID uuid.UUID) (design.Delivery, error) {
	req, err := s.Get(ctx, schoolID, requestID)
	if err != nil {
		return design.Delivery{}, err
	}
	hasFinal, err := s.deliveryRepo.HasFinal(ctx, requestID)
	if err != nil {
		return design.Delivery{}, err
	}
	if err := design.CheckMakeFinal(req, hasFinal); err != nil {
		return design.Delivery{}, err
	}
	delivery, err := s.deliveryRepo.GetByID(ctx, deliveryID)
	if err != nil {
		return design.Delivery{}, err
	}
	if delivery.DesignRequestID != req.ID {
		return design.Delivery{}, studio_errors.ErrNotFound
	}

	err = repository.WithTx(ctx, s.db, func(repos repository.Repositories) error {
		return repos.Deliveries.MarkFinal(ctx, req.ID, delivery.ID)
	})
	if err != nil {
		return design.Delivery{}, err
	}

	s.log.WithContext(ctx).Info("final delivery selected",
		zap.String("design_request_id", req.ID.String()),
		zap.String("delivery_id", delivery.ID.String()),
	)
	s.publisher.PublishRequestChanged(ctx, events.EventTypeDeliveryFinalized, req.ID)

	delivery.IsFinal = true
	return delivery, nil
}

// CancelDesignRequest cancels a pending or processing request. It can't be undone.
func (s *WorkflowService) CancelDesignRequest(ctx context.Context, schoolID, requestID uuid.UUID, reason string) (design.DesignRequest, error) {
	reason = strings.TrimSpace(reason)
	req, err := s.Get(ctx, schoolID, requestID)
	if err != nil {
		return design.DesignRequest{}, err
	}
	if err := design.CheckCancel(req, reason); err != nil {
		return design.DesignRequest{}, err
	}
	if err := s.requestRepo.Cancel(ctx, req.ID, reason); err != nil {
		return design.DesignRequest{}, err
	}

	s.publisher.PublishRequestChanged(ctx, events.EventTypeRequestCanceled, req.ID)
	return s.requestRepo.GetByID(ctx, req.ID)
}

// QuoteSelection prices picking quotationID with extraRevisions bought up front.
func (s *WorkflowService) QuoteSelection(ctx context.Context, schoolID, requestID, quotationID uuid.UUID, extraRevisions int) (payment.Breakdown, error) {
	_, q, err := s.selection(ctx, schoolID, requestID, quotationID, extraRevisions)
	if err != nil {
		return payment.Breakdown{}, err
	}
	return s.payments.Quote(ctx, q.Price, extraRevisions, q.ExtraRevisionPrice)
}

// SelectQuotation starts payment for a designer's quotation. The request moves to
// processing with the quotation's revisions once the payment is confirmed.
func (s *WorkflowService) SelectQuotation(ctx context.Context, schoolID, requestID, quotationID uuid.UUID, extraRevisions int, rail payment.Rail, returnPath string) (PaymentResult, error) {
	req, q, err := s.selection(ctx, schoolID, requestID, quotationID, extraRevisions)
	if err != nil {
		return PaymentResult{}, err
	}

	b, err := s.payments.Quote(ctx, q.Price, extraRevisions, q.ExtraRevisionPrice)
	if err != nil {
		return PaymentResult{}, err
	}

	return s.payments.RequestPaymentURL(ctx, PaymentInput{
		SchoolID:    schoolID,
		RequestID:   req.ID,
		OrderType:   payment.OrderTypeDesign,
		Rail:        rail,
		QuotationID: uuid.NullUUID{UUID: q.ID, Valid: true},
		Quantity:    extraRevisions,
		Breakdown:   b,
		Description: fmt.Sprintf("Design %s by %s", req.Name, q.DesignerName),
		ReturnPath:  returnPath,
	})
}

func (s *WorkflowService) selection(ctx context.Context, schoolID, requestID, quotationID uuid.UUID, extraRevisions int) (design.DesignRequest, design.DesignQuotation, error) {
	req, err := s.Get(ctx, schoolID, requestID)
	if err != nil {
		return design.DesignRequest{}, design.DesignQuotation{}, err
	}
	q, err := s.requestRepo.GetQuotation(ctx, quotationID)
	if err != nil {
		return design.DesignRequest{}, design.DesignQuotation{}, err
	}
	if err := design.CheckSelectQuotation(req, q, extraRevisions); err != nil {
		return design.DesignRequest{}, design.DesignQuotation{}, err
	}
	return req, q, nil
}

func revisionDescription(req design.DesignRequest, quantity int) string {
	if design.RevisionQuota(quantity).IsUnlimited() {
		return fmt.Sprintf("Unlimited revisions for %s", req.Name)
	}
	return fmt.Sprintf("%d extra revisions for %s", quantity, req.Name)
}
