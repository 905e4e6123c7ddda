package livesync

import (
	"context"
	"log/slog"

	"github.com/dmugisha/fundflow-backend/internal/domain"
)

// Publisher is the notification sink the funding service publishes to after
// each committed ledger mutation.
type Publisher interface {
	Publish(ctx context.Context, event domain.FundingEvent) error
}

// Fanout publishes to every configured transport. A failing transport is
// logged and skipped; local viewers should not lose updates because the
// export stream is down, and vice versa.
type Fanout struct {
	targets []Publisher
}

func NewFanout(targets ...Publisher) *Fanout {
	return &Fanout{targets: targets}
}

func (f *Fanout) Publish(ctx context.Context, event domain.FundingEvent) error {
	for _, t := range f.targets {
		if err := t.Publish(ctx, event); err != nil {
			slog.Error("funding event publish failed",
				"error", err,
				"campaign_id", event.Snapshot.CampaignID,
				"revision", event.Snapshot.Revision,
			)
		}
	}
	return nil
}
