// Package livesync fans funding events out to everyone currently viewing a
// campaign. Delivery is at-least-once and may arrive out of order across
// transports; subscribers apply snapshots through a View, which enforces
// monotonic revisions.
package livesync

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/dmugisha/fundflow-backend/internal/domain"
)

// subscriberBuffer bounds each subscription channel. A subscriber that falls
// behind loses intermediate events, which is safe: snapshots are full-state,
// so the next one it does receive supersedes everything missed.
const subscriberBuffer = 16

type Subscription struct {
	C <-chan domain.FundingEvent

	hub   *Hub
	id    uint64
	ch    chan domain.FundingEvent
	topic *uuid.UUID
	once  sync.Once
}

// Close releases the subscription promptly so delivery channels don't leak.
// Safe to call more than once; the event channel is closed so range loops
// terminate.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.ch)
	})
}

type Hub struct {
	mu      sync.Mutex
	nextID  uint64
	byTopic map[uuid.UUID]map[uint64]*Subscription
	all     map[uint64]*Subscription
}

func NewHub() *Hub {
	return &Hub{
		byTopic: make(map[uuid.UUID]map[uint64]*Subscription),
		all:     make(map[uint64]*Subscription),
	}
}

// Subscribe registers a viewer of one campaign.
func (h *Hub) Subscribe(campaignID uuid.UUID) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.newSubscriptionLocked()
	sub.topic = &campaignID
	topic, ok := h.byTopic[campaignID]
	if !ok {
		topic = make(map[uint64]*Subscription)
		h.byTopic[campaignID] = topic
	}
	topic[sub.id] = sub
	return sub
}

// SubscribeAll registers a viewer of every campaign (admin and home views).
func (h *Hub) SubscribeAll() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.newSubscriptionLocked()
	h.all[sub.id] = sub
	return sub
}

// Publish delivers the event to the campaign's subscribers and to
// all-campaign subscribers. Sends never block: a full buffer drops the event
// for that subscriber rather than stalling the ledger path.
func (h *Hub) Publish(ctx context.Context, event domain.FundingEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.byTopic[event.Snapshot.CampaignID] {
		sub.send(event)
	}
	for _, sub := range h.all {
		sub.send(event)
	}
	return nil
}

func (h *Hub) newSubscriptionLocked() *Subscription {
	h.nextID++
	ch := make(chan domain.FundingEvent, subscriberBuffer)
	return &Subscription{C: ch, ch: ch, hub: h, id: h.nextID}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.topic != nil {
		if topic, ok := h.byTopic[*sub.topic]; ok {
			delete(topic, sub.id)
			if len(topic) == 0 {
				delete(h.byTopic, *sub.topic)
			}
		}
	}
	delete(h.all, sub.id)
}

// send runs with the hub lock held, which keeps it ordered against remove and
// channel close.
func (s *Subscription) send(event domain.FundingEvent) {
	select {
	case s.ch <- event:
	default:
	}
}
