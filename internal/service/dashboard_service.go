package service

import (
	"context"
	"strconv"
	"time"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/cache"
	"go-stock-tracker/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultMovementDays = 7
	MaxMovementDays     = 90
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

type dashboardService struct {
	txRepo repository.TransactionRepository
	cache  cache.Cache
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewDashboardService caches aggregates for ttl. Cache failures are logged and fall through to the database.
func NewDashboardService(txRepo repository.TransactionRepository, c cache.Cache, ttl time.Duration, log *zap.Logger) DashboardService {
	if c == nil {
		c = cache.NewNoop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &dashboardService{txRepo: txRepo, cache: c, ttl: ttl, log: log.Named("dashboard"), now: time.Now}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if days <= 0 {
		days = DefaultMovementDays
	}
	if days > MaxMovementDays {
		days = MaxMovementDays
	}

	key := cache.Key(cache.DashboardMovementKey, strconv.Itoa(days))
	var cached []repository.StockMovementData
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}

	endDate := s.now()
	first := endDate.AddDate(0, 0, -(days - 1))
	startDate := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
	data, err := s.txRepo.GetStockMovement(ctx, startDate, endDate)
	if err != nil {
		return nil, apperror.Internal("failed to load stock movement", err)
	}

	s.toCache(ctx, key, data)
	return data, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	var cached repository.DashboardStats
	if s.fromCache(ctx, cache.DashboardStatsKey, &cached) {
		return &cached, nil
	}

	stats, err := s.txRepo.GetDashboardStats(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to load dashboard stats", err)
	}

	s.toCache(ctx, cache.DashboardStatsKey, stats)
	return stats, nil
}

func (s *dashboardService) fromCache(ctx context.Context, key string, dest any) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *dashboardService) toCache(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
