// Package realtime propagates committed changes to live sessions. A Hub fans
// change events out to topic subscriptions inside one process; RedisBridge
// carries them between processes.
package realtime

import (
	"context"
	"sync"

	"fridge-app-go/internal/domain/change"
)

// Metrics observes live sessions and hub subscriptions.
type Metrics interface {
	SessionsChanged(delta int)
	SubscriptionsChanged(delta int)
}

type noopMetrics struct{}

func (noopMetrics) SessionsChanged(int)      {}
func (noopMetrics) SubscriptionsChanged(int) {}

type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Subscription]struct{}
	metrics Metrics
}

func NewHub(metrics Metrics) *Hub {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Hub{
		topics:  make(map[string]map[*Subscription]struct{}),
		metrics: metrics,
	}
}

// Subscription is a dirty flag for one topic. Notifications that arrive
// while one is already pending coalesce into it.
type Subscription struct {
	hub   *Hub
	topic string
	ch    chan struct{}
	once  sync.Once
}

func (s *Subscription) Topic() string {
	return s.topic
}

// C is closed once the subscription is closed.
func (s *Subscription) C() <-chan struct{} {
	return s.ch
}

// Close unsubscribes synchronously. Calling it more than once is a no-op.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{hub: h, topic: topic, ch: make(chan struct{}, 1)}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	h.metrics.SubscriptionsChanged(1)
	return sub
}

// Publish marks every subscription of the events' topics dirty. It never
// blocks on a slow subscriber.
func (h *Hub) Publish(events ...change.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, event := range events {
		for sub := range h.topics[event.Topic] {
			select {
			case sub.ch <- struct{}{}:
			default:
			}
		}
	}
}

// Notify makes the hub usable as a change.Notifier for single-process setups.
func (h *Hub) Notify(_ context.Context, events ...change.Event) {
	h.Publish(events...)
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	if subs, ok := h.topics[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}
	close(sub.ch)
	h.mu.Unlock()

	h.metrics.SubscriptionsChanged(-1)
}
