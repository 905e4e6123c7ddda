package funding

import (
	"context"
	"log/slog"
	"time"
)

const overdueBatchSize = 100

// PledgeLifecycleWorker walks pledges through their time-based transitions:
// PENDING pledges go DUE once their due date arrives, and pledges still
// outstanding past the grace window expire with a ledger reversal.
type PledgeLifecycleWorker struct {
	service  *Service
	interval time.Duration
	grace    time.Duration
	logger   *slog.Logger
}

func NewPledgeLifecycleWorker(service *Service, interval, grace time.Duration, logger *slog.Logger) *PledgeLifecycleWorker {
	return &PledgeLifecycleWorker{
		service:  service,
		interval: interval,
		grace:    grace,
		logger:   logger,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (w *PledgeLifecycleWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("pledge lifecycle worker started", "interval", w.interval, "grace", w.grace)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("pledge lifecycle worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *PledgeLifecycleWorker) sweep(ctx context.Context) {
	now := time.Now().UTC()

	marked, err := w.service.pledges.MarkDue(ctx, now)
	if err != nil {
		w.logger.Error("failed to mark pledges due", "error", err)
	} else if marked > 0 {
		w.logger.Info("pledges marked due", "count", marked)
	}

	cutoff := now.Add(-w.grace)
	overdue, err := w.service.pledges.ListOverdue(ctx, cutoff, overdueBatchSize)
	if err != nil {
		w.logger.Error("failed to list overdue pledges", "error", err)
		return
	}

	for _, p := range overdue {
		if _, err := w.service.ExpirePledge(ctx, p.ID); err != nil {
			w.logger.Error("failed to expire pledge", "error", err, "pledge_id", p.ID)
		}
	}
}
