// Package change describes committed mutations so live sessions can re-read
// the collections that moved.
package change

import (
	"context"
	"strings"
	"time"
)

type Collection string

const (
	CollectionProfile     Collection = "profile"
	CollectionMemberships Collection = "memberships"
	CollectionFridge      Collection = "fridge"
	CollectionMembers     Collection = "members"
	CollectionStock       Collection = "stock"
	CollectionShopping    Collection = "shopping"
	CollectionHistory     Collection = "history"
)

const (
	userTopicPrefix   = "user:"
	fridgeTopicPrefix = "fridge:"
)

type Event struct {
	Topic      string     `json:"topic"`
	Collection Collection `json:"collection"`
	FridgeID   string     `json:"fridge_id,omitempty"`
	UserID     string     `json:"user_id,omitempty"`
	At         time.Time  `json:"at"`
	Origin     string     `json:"origin,omitempty"`
}

// Notifier is called after a successful commit, never before.
type Notifier interface {
	Notify(ctx context.Context, events ...Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, ...Event) {}

func Nop() Notifier {
	return nopNotifier{}
}

func UserTopic(userID string) string {
	return userTopicPrefix + userID
}

func FridgeTopic(fridgeID string) string {
	return fridgeTopicPrefix + fridgeID
}

// FridgeIDFromTopic returns the fridge id of a fridge topic.
func FridgeIDFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, fridgeTopicPrefix) {
		return "", false
	}
	return strings.TrimPrefix(topic, fridgeTopicPrefix), true
}

func ForUser(userID string, collection Collection) Event {
	return Event{
		Topic:      UserTopic(userID),
		Collection: collection,
		UserID:     userID,
		At:         time.Now().UTC(),
	}
}

func ForFridge(fridgeID string, collections ...Collection) []Event {
	now := time.Now().UTC()
	events := make([]Event, 0, len(collections))
	for _, collection := range collections {
		events = append(events, Event{
			Topic:      FridgeTopic(fridgeID),
			Collection: collection,
			FridgeID:   fridgeID,
			At:         now,
		})
	}
	return events
}

// Recorder keeps every notified event. Useful in tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Notify(_ context.Context, events ...Event) {
	r.Events = append(r.Events, events...)
}

func (r *Recorder) Topics() []string {
	topics := make([]string, 0, len(r.Events))
	for _, event := range r.Events {
		topics = append(topics, event.Topic)
	}
	return topics
}

func (r *Recorder) Has(topic string, collection Collection) bool {
	for _, event := range r.Events {
		if event.Topic == topic && event.Collection == collection {
			return true
		}
	}
	return false
}
