package services

import (
	"context"
	"errors"
	"strconv"

	"uniform-studio/config"
	"uniform-studio/internal/domain/payment"
	"uniform-studio/internal/domain/system"
	"uniform-studio/internal/repository"
	studio_errors "uniform-studio/pkg/errors"
	"uniform-studio/pkg/logger"

	"go.uber.org/zap"
)

// RateCache is the Redis cache in front of business_configs.
type RateCache interface {
	GetServiceRate(ctx context.Context) (float64, bool, error)
	SetServiceRate(ctx context.Context, rate float64) error
	InvalidateServiceRate(ctx context.Context) error
}

// ConfigService resolves the platform service fee rate.
type ConfigService struct {
	configRepo repository.ConfigRepository
	cache      RateCache
	fallback   payment.FeeSchedule
	log        *logger.Logger
}

func NewConfigService(configRepo repository.ConfigRepository, cache RateCache, fallback payment.FeeSchedule, log *logger.Logger) *ConfigService {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ConfigService{
		configRepo: configRepo,
		cache:      cache,
		fallback:   fallback,
		log:        log,
	}
}

// FeeScheduleFromConfig builds the fallback schedule from env settings.
func FeeScheduleFromConfig(cfg *config.Config) payment.FeeSchedule {
	return payment.FeeSchedule{
		{UpTo: cfg.FeeTierLowLimit, Rate: cfg.FeeTierLowRate},
		{UpTo: cfg.FeeTierMidLimit, Rate: cfg.FeeTierMidRate},
		{UpTo: 0, Rate: cfg.FeeTierHighRate},
	}
}

// ServiceRate returns the configured rate, or the fallback schedule's rate for
// subtotal when the configured one can't be read.
func (s *ConfigService) ServiceRate(ctx context.Context, subtotal int64) float64 {
	if s.cache != nil {
		rate, ok, err := s.cache.GetServiceRate(ctx)
		if err != nil {
			s.log.WithContext(ctx).Warn("service rate cache read failed", zap.Error(err))
		} else if ok {
			return rate
		}
	}

	rate, err := s.loadServiceRate(ctx)
	if err != nil {
		if !errors.Is(err, studio_errors.ErrNotFound) {
			s.log.WithContext(ctx).Warn("service rate unavailable, using fallback schedule", zap.Error(err))
		}
		return s.fallback.RateFor(subtotal)
	}

	if s.cache != nil {
		if err := s.cache.SetServiceRate(ctx, rate); err != nil {
			s.log.WithContext(ctx).Warn("service rate cache write failed", zap.Error(err))
		}
	}
	return rate
}

func (s *ConfigService) SetServiceRate(ctx context.Context, rate float64) error {
	if !validRate(rate) {
		return studio_errors.ErrInvalidInput
	}
	if err := s.configRepo.Set(ctx, system.KeyServiceRate, strconv.FormatFloat(rate, 'f', -1, 64)); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateServiceRate(ctx); err != nil {
			s.log.WithContext(ctx).Warn("service rate cache invalidate failed", zap.Error(err))
		}
	}
	return nil
}

func (s *ConfigService) loadServiceRate(ctx context.Context) (float64, error) {
	if s.configRepo == nil {
		return 0, studio_errors.ErrServiceUnavailable
	}
	cfg, err := s.configRepo.Get(ctx, system.KeyServiceRate)
	if err != nil {
		return 0, err
	}
	rate, err := strconv.ParseFloat(cfg.Value, 64)
	if err != nil || !validRate(rate) {
		return 0, studio_errors.ErrInvalidInput
	}
	return rate, nil
}

func validRate(rate float64) bool {
	return rate >= 0 && rate < 1
}
