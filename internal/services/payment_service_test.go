package services

import (
	"context"
	"errors"
	"testing"

	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/domain/system"
	"uniform-studio/internal/gateway"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/repository/repotest"
	studio_errors "uniform-studio/pkg/errors"

	"github.com/google/uuid"
)

func TestQuoteUsesConfiguredRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := repository.NewConfigRepository(env.db).Set(ctx, system.KeyServiceRate, "0.1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	b, err := env.payments.Quote(ctx, 1_000_000, 2, 50_000)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if b.Subtotal != 1_100_000 || b.Fee != 110_000 || b.Total != 1_210_000 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
}

func TestQuoteFallsBackToSchedule(t *testing.T) {
	env := newTestEnv(t)
	b, err := env.payments.Quote(context.Background(), 500_000, 0, 0)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if b.Fee != 10_000 || b.Total != 510_000 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
}

func TestConfirmRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := repotest.CreateSchool(t, env.db, "sig@school.test")
	req, _ := repotest.CreateRequest(t, env.db, repotest.RequestFixture{SchoolID: s.ID, ExtraRevisionPrice: 1000, Selected: true})

	res, err := env.workflow.BuyMoreRevisions(ctx, s.ID, req.ID, 1, payment.RailGateway, "/r")
	if err != nil {
		t.Fatalf("BuyMoreRevisions: %v", err)
	}

	_, err = env.payments.Confirm(ctx, ConfirmInput{
		OrderID:   res.OrderID,
		Status:    CallbackStatusPaid,
		Signature: gateway.Sign("wrong-secret", res.OrderID.String(), CallbackStatusPaid),
	})
	if !errors.Is(err, studio_errors.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized got %v", err)
	}
	// A signature for "failed" must not confirm "paid".
	_, err = env.payments.Confirm(ctx, ConfirmInput{
		OrderID:   res.OrderID,
		Status:    CallbackStatusPaid,
		Signature: gateway.Sign(testCallbackSecret, res.OrderID.String(), CallbackStatusFailed),
	})
	if !errors.Is(err, studio_errors.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized got %v", err)
	}

	order, err := env.payments.Order(ctx, s.ID, res.OrderID)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if order.Status != payment.OrderPending {
		t.Fatalf("order status: want=pending got=%s", order.Status)
	}
}

func TestConfirmFailedLeavesQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := repotest.CreateSchool(t, env.db, "failcb@school.test")
	req, _ := repotest.CreateRequest(t, env.db, repotest.RequestFixture{SchoolID: s.ID, ExtraRevisionPrice: 1000, Selected: true})

	res, err := env.workflow.BuyMoreRevisions(ctx, s.ID, req.ID, 1, payment.RailGateway, "/r")
	if err != nil {
		t.Fatalf("BuyMoreRevisions: %v", err)
	}
	order, err := env.payments.Confirm(ctx, ConfirmInput{
		OrderID:   res.OrderID,
		Status:    CallbackStatusFailed,
		Signature: gateway.Sign(testCallbackSecret, res.OrderID.String(), CallbackStatusFailed),
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if order.Status != payment.OrderFailed {
		t.Fatalf("order status: want=failed got=%s", order.Status)
	}

	got, _ := env.workflow.Get(ctx, s.ID, req.ID)
	if got.RevisionTime != 0 {
		t.Fatalf("revision time: want=0 got=%d", got.RevisionTime)
	}
}

func TestGatewayErrorMarksOrderFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.gateway.err = errors.New("connection refused")
	s := repotest.CreateSchool(t, env.db, "gwerr@school.test")
	req, _ := repotest.CreateRequest(t, env.db, repotest.RequestFixture{SchoolID: s.ID, ExtraRevisionPrice: 1000, Selected: true})

	_, err := env.workflow.BuyMoreRevisions(ctx, s.ID, req.ID, 1, payment.RailGateway, "/r")
	if !errors.Is(err, studio_errors.ErrGateway) {
		t.Fatalf("want ErrGateway got %v", err)
	}

	var orders []payment.Order
	if err := env.db.Find(&orders).Error; err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != payment.OrderFailed {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

func TestGatewayRequestCarriesReturnURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := repotest.CreateSchool(t, env.db, "ret@school.test")
	req, _ := repotest.CreateRequest(t, env.db, repotest.RequestFixture{SchoolID: s.ID, ExtraRevisionPrice: 1000, Selected: true})

	res, err := env.workflow.BuyMoreRevisions(ctx, s.ID, req.ID, 2, payment.RailGateway, "/requests/abc?tab=revisions")
	if err != nil {
		t.Fatalf("BuyMoreRevisions: %v", err)
	}
	if env.gateway.calls() != 1 {
		t.Fatalf("gateway calls: want=1 got=%d", env.gateway.calls())
	}
	sent := env.gateway.requests[0]
	if sent.OrderID != res.OrderID.String() || sent.Amount != res.Breakdown.Total {
		t.Fatalf("unexpected gateway request %+v", sent)
	}
	if sent.ReturnURL != "http://app.test/requests/abc?tab=revisions" {
		t.Fatalf("return url: got %q", sent.ReturnURL)
	}

	order, _ := env.payments.Order(ctx, s.ID, res.OrderID)
	if order.PaymentURL.String != res.URL {
		t.Fatalf("payment url not stored: %q", order.PaymentURL.String)
	}
}

func TestRequestPaymentURLRejectsOpenRedirect(t *testing.T) {
	env := newTestEnv(t)
	s := repotest.CreateSchool(t, env.db, "redir@school.test")
	req, _ := repotest.CreateRequest(t, env.db, repotest.RequestFixture{SchoolID: s.ID, ExtraRevisionPrice: 1000, Selected: true})

	for _, path := range []string{"", "https://evil.test", "//evil.test", "/ok\r\nSet-Cookie: x"} {
		_, err := env.workflow.BuyMoreRevisions(context.Background(), s.ID, req.ID, 1, payment.RailGateway, path)
		if !errors.Is(err, studio_errors.ErrInvalidInput) {
			t.Fatalf("path %q: want ErrInvalidInput got %v", path, err)
		}
	}
	if env.gateway.calls() != 0 {
		t.Fatal("gateway called for invalid return path")
	}
}

func TestOrderHiddenFromOtherSchools(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := repotest.CreateSchool(t, env.db, "own@school.test")
	other := repotest.CreateSchool(t, env.db, "peek@school.test")
	req, _ := repotest.CreateRequest(t, env.db, repotest.RequestFixture{SchoolID: s.ID, ExtraRevisionPrice: 1000, Selected: true})

	res, err := env.workflow.BuyMoreRevisions(ctx, s.ID, req.ID, 1, payment.RailGateway, "/r")
	if err != nil {
		t.Fatalf("BuyMoreRevisions: %v", err)
	}
	if _, err := env.payments.Order(ctx, other.ID, res.OrderID); !errors.Is(err, studio_errors.ErrNotFound) {
		t.Fatalf("want ErrNotFound got %v", err)
	}
	if _, err := env.payments.Order(ctx, s.ID, uuid.New()); !errors.Is(err, studio_errors.ErrNotFound) {
		t.Fatalf("unknown order: want ErrNotFound got %v", err)
	}
}

func TestValidReturnPath(t *testing.T) {
	cases := map[string]bool{
		"/":                   true,
		"/requests/1":         true,
		"/a?b=c":              true,
		"":                    false,
		"requests":            false,
		"//evil.test":         false,
		"/\\evil.test":        false,
		"/x\nLocation: evil":  false,
		"https://evil.test/x": false,
	}
	for path, want := range cases {
		if got := ValidReturnPath(path); got != want {
			t.Fatalf("ValidReturnPath(%q): want=%v got=%v", path, want, got)
		}
	}
}
