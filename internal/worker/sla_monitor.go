package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/trouble-tickets/internal/repository"
)

// SLAMonitor periodically counts overdue tickets and logs when deadlines are
// being missed, giving operators a heartbeat on SLA health without waiting
// for a dashboard request.
type SLAMonitor struct {
	tickets  repository.TicketRepository
	logger   *zap.Logger
	interval time.Duration
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(tickets repository.TicketRepository, logger *zap.Logger, interval time.Duration) *SLAMonitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SLAMonitor{tickets: tickets, logger: logger, interval: interval}
}

// Run blocks until ctx is cancelled, checking SLA state once per interval.
func (m *SLAMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("sla monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *SLAMonitor) check(ctx context.Context) {
	stats, err := m.tickets.CollectStats(ctx, time.Now())
	if err != nil {
		m.logger.Error("sla check failed", zap.Error(err))
		return
	}
	if stats.Overdue > 0 {
		m.logger.Warn("tickets past SLA deadline",
			zap.Int64("overdue", stats.Overdue),
			zap.Int64("total", stats.Total),
		)
		return
	}
	m.logger.Debug("sla check clean", zap.Int64("total", stats.Total))
}
