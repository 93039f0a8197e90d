package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fridge-app-go/internal/domain/change"
	"fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/profile"
	"fridge-app-go/internal/realtime"
	"fridge-app-go/internal/transport/httpserver/middleware"
	"fridge-app-go/pkg/logger"
)

type staticLoader struct{}

func (staticLoader) LoadUser(ctx context.Context, userID string) (*realtime.UserState, error) {
	return &realtime.UserState{
		Profile: &profile.Profile{UserID: userID, DisplayName: "Ann"},
		Fridges: []fridge.UserFridge{{Fridge: fridge.Fridge{ID: "F1", Name: "Home"}, Role: fridge.RoleOwner}},
	}, nil
}

func (staticLoader) LoadFridge(ctx context.Context, userID, fridgeID string) (*realtime.FridgeState, error) {
	return &realtime.FridgeState{Fridge: fridge.Fridge{ID: fridgeID, Name: "Home"}}, nil
}

func TestStreamSendsSnapshotAndClosesSession(t *testing.T) {
	hub := realtime.NewHub(nil)
	manager := realtime.NewManager(hub, staticLoader{}, logger.Nop(), nil)
	h := New(manager, time.Hour, logger.Nop())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Stream(w, r.WithContext(middleware.WithUser(r.Context(), middleware.User{ID: "alice"})))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var snapshot snapshotView
	reader := bufio.NewReader(resp.Body)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snapshot); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if _, ok := snapshot.Data["F1"]; ok {
			break
		}
	}
	if snapshot.Profile == nil || snapshot.Profile.DisplayName != "Ann" {
		t.Fatalf("expected profile in snapshot, got %+v", snapshot.Profile)
	}
	if len(snapshot.Fridges) != 1 || snapshot.Data["F1"].Fridge.Name != "Home" {
		t.Fatalf("expected fridge F1 in snapshot, got %+v", snapshot)
	}
	if manager.ActiveSessions("alice") != 1 {
		t.Fatalf("expected one active session")
	}

	cancel()
	for i := 0; i < 200 && manager.ActiveSessions("alice") != 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if manager.ActiveSessions("alice") != 0 {
		t.Fatalf("expected session to close after disconnect")
	}
	if hub.SubscriberCount(change.FridgeTopic("F1")) != 0 {
		t.Fatalf("expected fridge subscription to be released")
	}
}

func TestStreamErrorHidesTransientCause(t *testing.T) {
	got := toStreamError(&realtime.LoadError{FridgeID: "F1", Err: errors.New("connection reset")})
	if got.FridgeID != "F1" || got.Code != "transient" {
		t.Fatalf("unexpected error event %+v", got)
	}
	if strings.Contains(got.Message, "connection reset") {
		t.Fatalf("expected cause to be hidden, got %q", got.Message)
	}

	got = toStreamError(&realtime.LoadError{FridgeID: "F2", Err: fridge.ErrNotFridgeMember})
	if got.Code != "forbidden" || got.Message != fridge.ErrNotFridgeMember.Error() {
		t.Fatalf("unexpected error event %+v", got)
	}
}
