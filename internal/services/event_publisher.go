package services

import (
	"context"

	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/events"
	"uniform-studio/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher pushes domain events to live subscribers after the write committed.
// Publishing is best effort; a failed publish is logged and dropped.
type EventPublisher struct {
	bus events.Bus
	log *logger.Logger
}

func NewEventPublisher(bus events.Bus, log *logger.Logger) *EventPublisher {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &EventPublisher{bus: bus, log: log}
}

type messageCreatedPayload struct {
	MessageID   uuid.UUID `json:"message_id"`
	Seq         int64     `json:"seq"`
	SenderEmail string    `json:"sender_email"`
	Kind        string    `json:"kind"`
}

type messagesReadPayload struct {
	Reader  string `json:"reader"`
	Updated int64  `json:"updated"`
}

type paymentPayload struct {
	OrderID   uuid.UUID           `json:"order_id"`
	RequestID uuid.UUID           `json:"design_request_id"`
	OrderType payment.OrderType   `json:"order_type"`
	Status    payment.OrderStatus `json:"status"`
	Total     int64               `json:"total"`
}

func (p *EventPublisher) PublishMessageCreated(ctx context.Context, roomID, messageID uuid.UUID, seq int64, sender, kind string) {
	p.publish(ctx, events.EventTypeMessageCreated, events.AggregateTypeRoom, roomID, "", messageCreatedPayload{
		MessageID:   messageID,
		Seq:         seq,
		SenderEmail: sender,
		Kind:        kind,
	})
}

func (p *EventPublisher) PublishMessagesRead(ctx context.Context, roomID uuid.UUID, reader string, updated int64) {
	p.publish(ctx, events.EventTypeMessageRead, events.AggregateTypeRoom, roomID, "", messagesReadPayload{
		Reader:  reader,
		Updated: updated,
	})
}

// PublishRequestChanged signals a workflow transition on requestID. Its room
// subscribers re-evaluate the read-only state.
func (p *EventPublisher) PublishRequestChanged(ctx context.Context, eventType string, requestID uuid.UUID) {
	p.publish(ctx, eventType, events.AggregateTypeDesignRequest, requestID, "", nil)
}

func (p *EventPublisher) PublishPayment(ctx context.Context, eventType string, o payment.Order) {
	p.publish(ctx, eventType, events.AggregateTypePayment, o.ID, o.SchoolID.String(), paymentPayload{
		OrderID:   o.ID,
		RequestID: o.DesignRequestID,
		OrderType: o.OrderType,
		Status:    o.Status,
		Total:     o.Total,
	})
}

func (p *EventPublisher) publish(ctx context.Context, eventType, aggregateType string, aggregateID uuid.UUID, schoolID string, payload interface{}) {
	if p == nil || p.bus == nil {
		return
	}
	env, err := events.NewEnvelope(eventType, aggregateType, aggregateID, payload)
	if err != nil {
		p.log.WithContext(ctx).Error("failed to build event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	env.SchoolID = schoolID
	if err := p.bus.Publish(ctx, env); err != nil {
		p.log.WithContext(ctx).Warn("failed to publish event",
			zap.String("event_type", eventType),
			zap.String("aggregate_id", aggregateID.String()),
			zap.Error(err),
		)
	}
}
