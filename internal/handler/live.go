package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/livesync"
	"github.com/dmugisha/fundflow-backend/internal/logging"
)

const heartbeatInterval = 25 * time.Second

type snapshotReader interface {
	Snapshot(ctx context.Context, campaignID uuid.UUID) (*domain.FundingSnapshot, error)
}

type LiveHandler struct {
	hub    *livesync.Hub
	ledger snapshotReader
}

func NewLiveHandler(hub *livesync.Hub, ledger snapshotReader) *LiveHandler {
	return &LiveHandler{hub: hub, ledger: ledger}
}

// CampaignStream serves a per-campaign SSE feed. The first event is the
// current ledger snapshot, so a client reconnecting after a drop catches up
// without replaying history.
func (h *LiveHandler) CampaignStream(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrCampaignNotFound, nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	snap, err := h.ledger.Snapshot(r.Context(), campaignID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	// Subscribe before sending the snapshot so no event falls between
	// the two.
	sub := h.hub.Subscribe(campaignID)
	defer sub.Close()

	writeSSEHeaders(w)
	initial := domain.FundingEvent{
		Kind:       domain.FundingEventStatusChanged,
		Snapshot:   *snap,
		OccurredAt: time.Now().UTC(),
	}
	if !writeSSEEvent(r.Context(), w, flusher, initial) {
		return
	}

	// Seeding the view with the initial snapshot means any event that
	// raced the subscription and carries an older revision is dropped.
	view := livesync.NewView()
	view.Apply(*snap)

	h.stream(w, r, flusher, sub, view)
}

// PlatformStream serves every campaign's funding events on one feed.
func (h *LiveHandler) PlatformStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	sub := h.hub.SubscribeAll()
	defer sub.Close()

	writeSSEHeaders(w)
	flusher.Flush()

	h.stream(w, r, flusher, sub, livesync.NewView())
}

// stream forwards funding events until the client disconnects. Events pass
// through the view first, so redelivered or out-of-order snapshots are
// dropped and the client's totals never regress.
func (h *LiveHandler) stream(w http.ResponseWriter, r *http.Request, flusher http.Flusher, sub *livesync.Subscription, view *livesync.View) {
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub.C:
			if !open {
				return
			}
			if !view.Apply(event.Snapshot) {
				continue
			}
			if !writeSSEEvent(r.Context(), w, flusher, event) {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
}

func writeSSEEvent(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, event domain.FundingEvent) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		logging.FromContext(ctx).Error("failed to marshal funding event", "error", err)
		return true
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
