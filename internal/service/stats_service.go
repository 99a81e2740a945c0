package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/trouble-tickets/internal/repository"
	apperrors "github.com/spec-kit/trouble-tickets/pkg/util"
)

const dashboardCacheKey = "dashboard:ticket-stats"

// StatsService aggregates dashboard counters from ticket fields. Results are
// cached in Redis with a short TTL; the cache is best effort and a cold or
// unreachable cache just recomputes.
type StatsService struct {
	tickets repository.TicketRepository
	cache   *redis.Client
	logger  *zap.Logger
	ttl     time.Duration
	clock   func() time.Time
}

// NewStatsService constructs the service. cache may be nil.
func NewStatsService(tickets repository.TicketRepository, cache *redis.Client, logger *zap.Logger, ttl time.Duration, clock func() time.Time) *StatsService {
	if clock == nil {
		clock = time.Now
	}
	return &StatsService{tickets: tickets, cache: cache, logger: logger, ttl: ttl, clock: clock}
}

// Dashboard returns ticket counters: totals per status, the overdue count
// (sla_due_date < now and status not resolved/closed), and resolved-within
// vs. breached SLA counts.
func (s *StatsService) Dashboard(ctx context.Context) (*repository.TicketStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	stats, err := s.tickets.CollectStats(ctx, s.clock())
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.toCache(ctx, stats)
	return stats, nil
}

func (s *StatsService) fromCache(ctx context.Context) *repository.TicketStats {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats repository.TicketStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Warn("discarding malformed stats cache entry", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, stats *repository.TicketStats) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("unable to cache dashboard stats", zap.Error(err))
	}
}
