package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"fridge-app-go/internal/domain/change"
	"fridge-app-go/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBridge publishes change events to a redis channel and relays events
// from other instances into the local hub.
type RedisBridge struct {
	client     *redis.Client
	channel    string
	instanceID string
	hub        *Hub
	log        logger.Logger

	mu      sync.Mutex
	running bool
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, log logger.Logger) *RedisBridge {
	return &RedisBridge{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		hub:        hub,
		log:        log,
	}
}

// Notify delivers to local sessions immediately and fans out to the other
// instances. A failed redis publish is logged and does not fail the caller,
// whose write has already committed.
func (b *RedisBridge) Notify(ctx context.Context, events ...change.Event) {
	if len(events) == 0 {
		return
	}
	b.hub.Publish(events...)

	for _, event := range events {
		event.Origin = b.instanceID
		payload, err := json.Marshal(event)
		if err != nil {
			b.log.InternalError("realtime.publish: marshal event", err, "topic", event.Topic)
			continue
		}
		if err := b.client.Publish(context.WithoutCancel(ctx), b.channel, payload).Err(); err != nil {
			b.log.InternalError("realtime.publish: redis publish", err, "topic", event.Topic, "channel", b.channel)
		}
	}
}

// Run relays remote events until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("redis bridge already running")
	}
	b.running = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("realtime.bridge: subscribed", "channel", b.channel, "instance_id", b.instanceID)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				b.log.Warn("realtime.bridge: channel closed", "channel", b.channel)
				return nil
			}
			b.relay(msg.Payload)
		}
	}
}

func (b *RedisBridge) relay(payload string) {
	var event change.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.log.Warn("realtime.bridge: drop malformed event", "error", err)
		return
	}
	if event.Origin == b.instanceID || event.Topic == "" {
		return
	}
	b.hub.Publish(event)
}
