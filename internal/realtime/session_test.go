package realtime

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"fridge-app-go/internal/domain/change"
	"fridge-app-go/internal/domain/fridge"
	"fridge-app-go/pkg/logger"
)

type fakeLoader struct {
	mu          sync.Mutex
	memberships map[string][]string
	failing     map[string]error
	loads       map[string]int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		memberships: make(map[string][]string),
		failing:     make(map[string]error),
		loads:       make(map[string]int),
	}
}

func (l *fakeLoader) LoadUser(ctx context.Context, userID string) (*UserState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := &UserState{}
	for _, id := range l.memberships[userID] {
		state.Fridges = append(state.Fridges, fridge.UserFridge{Fridge: fridge.Fridge{ID: id, Name: id}})
	}
	return state, nil
}

func (l *fakeLoader) LoadFridge(ctx context.Context, userID, fridgeID string) (*FridgeState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loads[fridgeID]++
	if err := l.failing[fridgeID]; err != nil {
		return nil, err
	}
	return &FridgeState{Fridge: fridge.Fridge{ID: fridgeID, Name: fridgeID}}, nil
}

func (l *fakeLoader) set(userID string, fridgeIDs ...string) {
	l.mu.Lock()
	l.memberships[userID] = fridgeIDs
	l.mu.Unlock()
}

func (l *fakeLoader) fail(fridgeID string, err error) {
	l.mu.Lock()
	l.failing[fridgeID] = err
	l.mu.Unlock()
}

func (l *fakeLoader) loadCount(fridgeID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads[fridgeID]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func watched(s *Session) []string {
	ids := s.Watched()
	sort.Strings(ids)
	return ids
}

func sameIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestSessionReconcilesFridgeSubscriptions(t *testing.T) {
	hub := NewHub(nil)
	loader := newFakeLoader()
	loader.set("u", "A", "B")
	manager := NewManager(hub, loader, logger.Nop(), nil)

	session := manager.Open(context.Background(), "u")
	defer session.Close()

	waitFor(t, "initial fridges", func() bool {
		return len(session.Snapshot().Fridges) == 2
	})

	loader.set("u", "B", "C")
	hub.Publish(change.ForUser("u", change.CollectionMemberships))

	waitFor(t, "reconciled fridges", func() bool {
		snapshot := session.Snapshot()
		_, hasA := snapshot.Fridges["A"]
		_, hasC := snapshot.Fridges["C"]
		return !hasA && hasC
	})
	if got := watched(session); !sameIDs(got, "B", "C") {
		t.Fatalf("expected subscriptions for B and C, got %v", got)
	}
	for _, id := range []string{"A", "B", "C"} {
		want := 0
		if id != "A" {
			want = 1
		}
		if got := hub.SubscriberCount(change.FridgeTopic(id)); got != want {
			t.Fatalf("fridge %s: expected %d subscribers, got %d", id, want, got)
		}
	}
}

func TestSessionDoesNotDuplicateSubscriptions(t *testing.T) {
	hub := NewHub(nil)
	loader := newFakeLoader()
	loader.set("u", "A")
	manager := NewManager(hub, loader, logger.Nop(), nil)

	session := manager.Open(context.Background(), "u")
	defer session.Close()
	waitFor(t, "initial load", func() bool { return loader.loadCount("A") == 1 })

	for i := 0; i < 3; i++ {
		hub.Publish(change.ForUser("u", change.CollectionProfile))
	}
	waitFor(t, "user reload", func() bool { return session.Snapshot().Version >= 3 })

	if got := hub.SubscriberCount(change.FridgeTopic("A")); got != 1 {
		t.Fatalf("expected exactly one subscription, got %d", got)
	}
}

func TestSessionReloadsDirtyFridge(t *testing.T) {
	hub := NewHub(nil)
	loader := newFakeLoader()
	loader.set("u", "A")
	manager := NewManager(hub, loader, logger.Nop(), nil)

	session := manager.Open(context.Background(), "u")
	defer session.Close()
	waitFor(t, "initial load", func() bool { return loader.loadCount("A") == 1 })

	hub.Publish(change.ForFridge("A", change.CollectionStock)...)
	waitFor(t, "reload after change", func() bool { return loader.loadCount("A") >= 2 })
}

func TestSessionDropsFridgeStateOnError(t *testing.T) {
	hub := NewHub(nil)
	loader := newFakeLoader()
	loader.set("u", "A")
	manager := NewManager(hub, loader, logger.Nop(), nil)

	session := manager.Open(context.Background(), "u")
	defer session.Close()
	waitFor(t, "initial load", func() bool {
		_, ok := session.Snapshot().Fridges["A"]
		return ok
	})

	boom := errors.New("store unavailable")
	loader.fail("A", boom)
	hub.Publish(change.ForFridge("A", change.CollectionStock)...)

	select {
	case err := <-session.Errors():
		var loadErr *LoadError
		if !errors.As(err, &loadErr) || loadErr.FridgeID != "A" || !errors.Is(err, boom) {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected error to be reported")
	}
	if _, ok := session.Snapshot().Fridges["A"]; ok {
		t.Fatalf("expected fridge state dropped instead of kept stale")
	}
	if got := watched(session); !sameIDs(got, "A") {
		t.Fatalf("expected subscription kept so the fridge can recover, got %v", got)
	}
}

func TestSessionCloseUnsubscribesEverything(t *testing.T) {
	metrics := &countingMetrics{}
	hub := NewHub(metrics)
	loader := newFakeLoader()
	loader.set("u", "A", "B")
	manager := NewManager(hub, loader, logger.Nop(), metrics)

	session := manager.Open(context.Background(), "u")
	waitFor(t, "initial fridges", func() bool { return len(session.Watched()) == 2 })

	session.Close()
	session.Close()

	sessions, subs := metrics.counts()
	if sessions != 0 || subs != 0 {
		t.Fatalf("expected gauges back at 0, got sessions=%d subscriptions=%d", sessions, subs)
	}
	if hub.SubscriberCount(change.UserTopic("u")) != 0 || len(session.Watched()) != 0 {
		t.Fatalf("expected every listener removed")
	}
	if len(session.Snapshot().Fridges) != 0 || session.Snapshot().User != nil {
		t.Fatalf("expected state cleared")
	}
	select {
	case <-session.Done():
	default:
		t.Fatalf("expected done to be closed")
	}
}

func TestManagerCloseUserCascades(t *testing.T) {
	hub := NewHub(nil)
	loader := newFakeLoader()
	loader.set("u", "A")
	loader.set("v", "A")
	manager := NewManager(hub, loader, logger.Nop(), nil)

	first := manager.Open(context.Background(), "u")
	second := manager.Open(context.Background(), "u")
	other := manager.Open(context.Background(), "v")
	defer other.Close()

	if got := manager.CloseUser("u"); got != 2 {
		t.Fatalf("expected 2 sessions closed, got %d", got)
	}
	for _, s := range []*Session{first, second} {
		select {
		case <-s.Done():
		default:
			t.Fatalf("expected session %s closed", s.ID())
		}
	}
	if manager.ActiveSessions("u") != 0 || manager.ActiveSessions("v") != 1 {
		t.Fatalf("unexpected active sessions u=%d v=%d", manager.ActiveSessions("u"), manager.ActiveSessions("v"))
	}
	if manager.CloseUser("u") != 0 {
		t.Fatalf("expected nothing left to close")
	}
}
