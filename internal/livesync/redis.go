package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmugisha/fundflow-backend/internal/domain"
)

const channelPrefix = "campaign:"

// RedisBridge carries funding events between instances over Redis pub/sub.
// Local events publish to campaign:{id}; a pattern subscription relays other
// instances' events into the local hub. Messages are tagged with the
// publishing instance's origin id so an instance does not re-deliver its own
// events.
type RedisBridge struct {
	client *redis.Client
	hub    *Hub
	origin string
}

type wireEvent struct {
	Origin string              `json:"origin"`
	Event  domain.FundingEvent `json:"event"`
}

// Connect initializes a Redis client from URL or host:port input.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("Connect: parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

func NewRedisBridge(client *redis.Client, hub *Hub) *RedisBridge {
	return &RedisBridge{
		client: client,
		hub:    hub,
		origin: uuid.New().String(),
	}
}

// Publish sends the event to this campaign's Redis channel.
func (b *RedisBridge) Publish(ctx context.Context, event domain.FundingEvent) error {
	payload, err := json.Marshal(wireEvent{Origin: b.origin, Event: event})
	if err != nil {
		return fmt.Errorf("Publish: marshal: %w", err)
	}

	channel := channelPrefix + event.Snapshot.CampaignID.String()
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

// Run relays remote events into the local hub until ctx is cancelled.
// Malformed payloads are dropped at the transport boundary; required fields
// are validated before the event enters the hub.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.relay(ctx, msg.Payload)
		}
	}
}

func (b *RedisBridge) relay(ctx context.Context, payload string) {
	var wire wireEvent
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		slog.Warn("dropping malformed funding event", "error", err)
		return
	}
	if wire.Origin == b.origin {
		return
	}
	if wire.Event.Kind == "" || wire.Event.Snapshot.CampaignID == uuid.Nil || wire.Event.Snapshot.Revision <= 0 {
		slog.Warn("dropping funding event with missing fields",
			"kind", wire.Event.Kind,
			"campaign_id", wire.Event.Snapshot.CampaignID,
			"revision", wire.Event.Snapshot.Revision,
		)
		return
	}

	if err := b.hub.Publish(ctx, wire.Event); err != nil {
		slog.Error("failed to relay funding event", "error", err)
	}
}
