package change

import (
	"context"
	"testing"
)

func TestTopics(t *testing.T) {
	if got := UserTopic("u-1"); got != "user:u-1" {
		t.Fatalf("unexpected user topic %q", got)
	}
	id, ok := FridgeIDFromTopic(FridgeTopic("f-1"))
	if !ok || id != "f-1" {
		t.Fatalf("expected f-1, got %q %v", id, ok)
	}
	if _, ok := FridgeIDFromTopic(UserTopic("u-1")); ok {
		t.Fatalf("user topic must not parse as fridge topic")
	}
}

func TestForFridgeOneEventPerCollection(t *testing.T) {
	events := ForFridge("f-1", CollectionStock, CollectionHistory)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, event := range events {
		if event.Topic != "fridge:f-1" || event.FridgeID != "f-1" || event.At.IsZero() {
			t.Fatalf("unexpected event %+v", event)
		}
	}
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Notify(context.Background(), ForUser("u-1", CollectionProfile))
	rec.Notify(context.Background(), ForFridge("f-1", CollectionShopping)...)

	if !rec.Has("user:u-1", CollectionProfile) || !rec.Has("fridge:f-1", CollectionShopping) {
		t.Fatalf("expected both events recorded, got %v", rec.Topics())
	}
	if rec.Has("fridge:f-1", CollectionStock) {
		t.Fatalf("unexpected stock event")
	}
}
