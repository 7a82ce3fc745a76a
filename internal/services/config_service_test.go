package services

import (
	"context"
	"errors"
	"testing"

	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/domain/system"
	"uniform-studio/internal/repository"
	"uniform-studio/internal/repository/repotest"
	"uniform-studio/pkg/logger"
)

type fakeRateCache struct {
	rate        float64
	ok          bool
	err         error
	sets        int
	invalidated int
}

func (c *fakeRateCache) GetServiceRate(ctx context.Context) (float64, bool, error) {
	return c.rate, c.ok, c.err
}

func (c *fakeRateCache) SetServiceRate(ctx context.Context, rate float64) error {
	c.sets++
	c.rate, c.ok = rate, true
	return nil
}

func (c *fakeRateCache) InvalidateServiceRate(ctx context.Context) error {
	c.invalidated++
	c.rate, c.ok = 0, false
	return nil
}

var tieredSchedule = payment.FeeSchedule{
	{UpTo: 1_000_000, Rate: 0.05},
	{UpTo: 10_000_000, Rate: 0.03},
	{Rate: 0.01},
}

func TestServiceRateCacheHit(t *testing.T) {
	cache := &fakeRateCache{rate: 0.07, ok: true}
	svc := NewConfigService(nil, cache, tieredSchedule, logger.NewNop())

	if got := svc.ServiceRate(context.Background(), 100); got != 0.07 {
		t.Fatalf("rate: want=0.07 got=%v", got)
	}
	if cache.sets != 0 {
		t.Fatalf("cache written on hit: %d", cache.sets)
	}
}

func TestServiceRateLoadsAndCaches(t *testing.T) {
	db := repotest.NewDB(t)
	ctx := context.Background()
	repo := repository.NewConfigRepository(db)
	if err := repo.Set(ctx, system.KeyServiceRate, "0.04"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	cache := &fakeRateCache{}
	svc := NewConfigService(repo, cache, tieredSchedule, logger.NewNop())

	if got := svc.ServiceRate(ctx, 100); got != 0.04 {
		t.Fatalf("rate: want=0.04 got=%v", got)
	}
	if cache.sets != 1 || cache.rate != 0.04 {
		t.Fatalf("cache not populated: %+v", cache)
	}
}

func TestServiceRateFallsBack(t *testing.T) {
	db := repotest.NewDB(t)
	ctx := context.Background()
	repo := repository.NewConfigRepository(db)
	cache := &fakeRateCache{err: errors.New("redis down")}
	svc := NewConfigService(repo, cache, tieredSchedule, logger.NewNop())

	cases := []struct {
		subtotal int64
		want     float64
	}{
		{subtotal: 500_000, want: 0.05},
		{subtotal: 1_000_000, want: 0.05},
		{subtotal: 5_000_000, want: 0.03},
		{subtotal: 50_000_000, want: 0.01},
	}
	for _, tc := range cases {
		if got := svc.ServiceRate(ctx, tc.subtotal); got != tc.want {
			t.Fatalf("missing config, subtotal %d: want=%v got=%v", tc.subtotal, tc.want, got)
		}
	}

	if err := repo.Set(ctx, system.KeyServiceRate, "not-a-number"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := svc.ServiceRate(ctx, 500_000); got != 0.05 {
		t.Fatalf("invalid config: want=0.05 got=%v", got)
	}
	if cache.sets != 0 {
		t.Fatalf("fallback rate cached: %d", cache.sets)
	}
}

func TestSetServiceRate(t *testing.T) {
	db := repotest.NewDB(t)
	ctx := context.Background()
	cache := &fakeRateCache{rate: 0.02, ok: true}
	svc := NewConfigService(repository.NewConfigRepository(db), cache, tieredSchedule, logger.NewNop())

	for _, bad := range []float64{-0.1, 1, 1.5} {
		if err := svc.SetServiceRate(ctx, bad); err == nil {
			t.Fatalf("SetServiceRate(%v): want error", bad)
		}
	}
	if err := svc.SetServiceRate(ctx, 0.06); err != nil {
		t.Fatalf("SetServiceRate: %v", err)
	}
	if cache.invalidated != 1 {
		t.Fatalf("cache invalidations: want=1 got=%d", cache.invalidated)
	}
	if got := svc.ServiceRate(ctx, 100); got != 0.06 {
		t.Fatalf("rate after update: want=0.06 got=%v", got)
	}
}
