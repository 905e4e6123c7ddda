package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/repository"
)

type providerEventRepo interface {
	GetPending(ctx context.Context, limit int) ([]repository.ProviderEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status repository.ProviderEventStatus) error
}

type donationConfirmer interface {
	ConfirmDonation(ctx context.Context, intentID uuid.UUID) (*domain.Donation, error)
	FailDonation(ctx context.Context, intentID uuid.UUID, reason string) error
}

// ConfirmationProcessor drains the provider-event inbox and routes each
// confirmation into the funding service. The inbox decouples webhook receipt
// from ledger application, so a crash between the two replays safely: the
// funding service's dedup keys absorb the retry.
type ConfirmationProcessor struct {
	events    providerEventRepo
	funding   donationConfirmer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewConfirmationProcessor(events providerEventRepo, funding donationConfirmer, logger *slog.Logger, interval time.Duration, batchSize int) *ConfirmationProcessor {
	return &ConfirmationProcessor{
		events:    events,
		funding:   funding,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (p *ConfirmationProcessor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("confirmation processor started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("confirmation processor stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *ConfirmationProcessor) poll(ctx context.Context) {
	events, err := p.events.GetPending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch pending provider events", "error", err)
		return
	}

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error("failed to process provider event",
				"provider_event_id", event.ID,
				"error", err,
			)
		}
	}
}

type confirmationPayload struct {
	EventID  string `json:"event_id"`
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

func (p *ConfirmationProcessor) processEvent(ctx context.Context, event repository.ProviderEvent) error {
	var payload confirmationPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		p.logger.Error("malformed provider event payload", "provider_event_id", event.ID, "error", err)
		return p.events.UpdateStatus(ctx, event.ID, repository.ProviderEventStatusFailed)
	}

	intentID, err := uuid.Parse(payload.IntentID)
	if err != nil {
		p.logger.Error("invalid intent_id in provider event", "provider_event_id", event.ID, "intent_id", payload.IntentID)
		return p.events.UpdateStatus(ctx, event.ID, repository.ProviderEventStatusFailed)
	}

	switch payload.Status {
	case "completed":
		_, err = p.funding.ConfirmDonation(ctx, intentID)
	case "failed":
		reason := payload.Reason
		if reason == "" {
			reason = "provider reported failure"
		}
		err = p.funding.FailDonation(ctx, intentID, reason)
	default:
		p.logger.Error("unknown provider event status", "provider_event_id", event.ID, "status", payload.Status)
		return p.events.UpdateStatus(ctx, event.ID, repository.ProviderEventStatusFailed)
	}

	if err != nil {
		return fmt.Errorf("processEvent: %w", err)
	}
	return p.events.UpdateStatus(ctx, event.ID, repository.ProviderEventStatusProcessed)
}
