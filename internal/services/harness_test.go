package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/events"
	"uniform-studio/internal/gateway"
	"uniform-studio/internal/proxy"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/repository/repotest"
	"uniform-studio/pkg/logger"

	"gorm.io/gorm"
)

const testCallbackSecret = "callback-secret"

type fakeGateway struct {
	mu       sync.Mutex
	requests []gateway.PaymentRequest
	err      error
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.PaymentResult{URL: "https://pay.test/checkout/" + req.OrderID}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type testEnv struct {
	db       *gorm.DB
	bus      *events.MemoryEventBus
	gateway  *fakeGateway
	config   *ConfigService
	payments *PaymentService
	workflow *WorkflowService
	chat     *ChatService
}

// newTestEnv wires the services against an in-memory database with a flat 2% fee.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repotest.NewDB(t)
	log := logger.NewNop()

	bus := events.NewMemoryEventBus(events.NewRoomChannelResolver())
	t.Cleanup(func() { _ = bus.Close() })

	requests := repository.NewDesignRequestRepository(db)
	deliveries := repository.NewDeliveryRepository(db)
	access := proxy.NewAccessControl(requests)
	gw := &fakeGateway{}

	cfg := NewConfigService(repository.NewConfigRepository(db), nil, payment.FeeSchedule{{Rate: 0.02}}, log)
	payments := NewPaymentService(db,
		repository.NewPaymentRepository(db),
		repository.NewWalletRepository(db),
		cfg, gw, bus,
		PaymentConfig{ReturnBase: "http://app.test/", CallbackSecret: testCallbackSecret},
		log,
	)
	workflow := NewWorkflowService(db, requests, deliveries, access, payments, bus, log)
	chat := NewChatService(db,
		repository.NewMessageRepository(db),
		repository.NewChatRoomRepository(db),
		access, workflow, nil, bus, log,
	)

	return &testEnv{
		db:       db,
		bus:      bus,
		gateway:  gw,
		config:   cfg,
		payments: payments,
		workflow: workflow,
		chat:     chat,
	}
}

// waitFor reads ch until ok accepts a value.
func waitFor[T any](t *testing.T, ch <-chan T, ok func(T) bool) T {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case v, open := <-ch:
			if !open {
				t.Fatal("stream closed")
			}
			if ok(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for stream value")
		}
	}
}
