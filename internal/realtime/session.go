package realtime

import (
	"context"
	"fmt"
	"sync"

	"fridge-app-go/internal/domain/change"
	"fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/inventory"
	"fridge-app-go/internal/domain/profile"
	"fridge-app-go/internal/domain/shopping"
	"fridge-app-go/pkg/logger"

	"github.com/google/uuid"
)

const sessionErrorBuffer = 8

// Loader reads the authoritative state a session mirrors.
type Loader interface {
	LoadUser(ctx context.Context, userID string) (*UserState, error)
	LoadFridge(ctx context.Context, userID, fridgeID string) (*FridgeState, error)
}

type UserState struct {
	Profile *profile.Profile
	Fridges []fridge.UserFridge
}

type FridgeState struct {
	Fridge   fridge.Fridge
	Members  []fridge.MemberProfile
	Stock    *inventory.GroupsView
	Shopping []shopping.Entry
	History  []inventory.HistoryEntry
}

// Snapshot is a copy of a session's state. Fridges whose last load failed are
// absent.
type Snapshot struct {
	SessionID string
	UserID    string
	Version   uint64
	User      *UserState
	Fridges   map[string]*FridgeState
}

// LoadError reports a failed re-read. FridgeID is empty for the user topic.
type LoadError struct {
	FridgeID string
	Err      error
}

func (e *LoadError) Error() string {
	if e.FridgeID == "" {
		return fmt.Sprintf("load user state: %v", e.Err)
	}
	return fmt.Sprintf("load fridge %s: %v", e.FridgeID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Session mirrors one user's profile, memberships and every fridge they
// belong to. It keeps exactly one subscription per fridge and re-reads a
// fridge whenever its topic is marked dirty.
type Session struct {
	id      string
	userID  string
	hub     *Hub
	loader  Loader
	log     logger.Logger
	metrics Metrics
	onClose func(*Session)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	userSub    *Subscription
	fridgeSubs map[string]*Subscription
	user       *UserState
	fridges    map[string]*FridgeState
	version    uint64

	dirty     chan string
	updates   chan struct{}
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(parent context.Context, userID string, hub *Hub, loader Loader, log logger.Logger, metrics Metrics) *Session {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	s := &Session{
		id:         uuid.NewString(),
		userID:     userID,
		hub:        hub,
		loader:     loader,
		log:        log,
		metrics:    metrics,
		ctx:        ctx,
		cancel:     cancel,
		fridgeSubs: make(map[string]*Subscription),
		fridges:    make(map[string]*FridgeState),
		dirty:      make(chan string),
		updates:    make(chan struct{}, 1),
		errs:       make(chan error, sessionErrorBuffer),
		done:       make(chan struct{}),
	}
	s.userSub = hub.Subscribe(change.UserTopic(userID))
	metrics.SessionsChanged(1)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) UserID() string {
	return s.userID
}

// Updates signals that Snapshot changed. Signals coalesce.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) Errors() <-chan error {
	return s.errs
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		SessionID: s.id,
		UserID:    s.userID,
		Version:   s.version,
		User:      s.user,
		Fridges:   make(map[string]*FridgeState, len(s.fridges)),
	}
	for id, state := range s.fridges {
		snapshot.Fridges[id] = state
	}
	return snapshot
}

// Watched returns the fridges that currently have a live subscription.
func (s *Session) Watched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.fridgeSubs))
	for id := range s.fridgeSubs {
		ids = append(ids, id)
	}
	return ids
}

// Close unsubscribes every listener before returning and drops the mirrored
// state. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.done)
		s.cancel()
		s.userSub.Close()
		for id, sub := range s.fridgeSubs {
			sub.Close()
			delete(s.fridgeSubs, id)
		}
		s.user = nil
		s.fridges = make(map[string]*FridgeState)
		s.mu.Unlock()

		s.metrics.SessionsChanged(-1)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

func (s *Session) run() {
	s.reloadUser()

	userC := s.userSub.C()
	for {
		select {
		case <-s.done:
			return
		case _, ok := <-userC:
			if !ok {
				return
			}
			s.reloadUser()
		case fridgeID := <-s.dirty:
			s.reloadFridge(fridgeID)
		}
	}
}

func (s *Session) reloadUser() {
	state, err := s.loader.LoadUser(s.ctx, s.userID)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		s.user = nil
		s.version++
		s.mu.Unlock()
		s.report(&LoadError{Err: err})
		s.signal()
		return
	}

	for _, fridgeID := range s.reconcile(state) {
		s.reloadFridge(fridgeID)
	}
	s.signal()
}

// reconcile aligns fridge subscriptions with the membership list and returns
// the fridges that were newly subscribed.
func (s *Session) reconcile(state *UserState) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	s.user = state
	s.version++

	want := make(map[string]struct{}, len(state.Fridges))
	for _, f := range state.Fridges {
		want[f.ID] = struct{}{}
	}
	for id, sub := range s.fridgeSubs {
		if _, ok := want[id]; ok {
			continue
		}
		sub.Close()
		delete(s.fridgeSubs, id)
		delete(s.fridges, id)
	}

	added := make([]string, 0)
	for _, f := range state.Fridges {
		if _, ok := s.fridgeSubs[f.ID]; ok {
			continue
		}
		sub := s.hub.Subscribe(change.FridgeTopic(f.ID))
		s.fridgeSubs[f.ID] = sub
		go s.forward(f.ID, sub)
		added = append(added, f.ID)
	}
	return added
}

func (s *Session) forward(fridgeID string, sub *Subscription) {
	for range sub.C() {
		select {
		case s.dirty <- fridgeID:
		case <-s.done:
			return
		}
	}
}

func (s *Session) reloadFridge(fridgeID string) {
	if !s.watching(fridgeID) {
		return
	}

	state, err := s.loader.LoadFridge(s.ctx, s.userID, fridgeID)
	if err != nil && s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if s.closed || s.fridgeSubs[fridgeID] == nil {
		s.mu.Unlock()
		return
	}
	if err != nil {
		delete(s.fridges, fridgeID)
	} else {
		s.fridges[fridgeID] = state
	}
	s.version++
	s.mu.Unlock()

	if err != nil {
		s.report(&LoadError{FridgeID: fridgeID, Err: err})
	}
	s.signal()
}

func (s *Session) watching(fridgeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.fridgeSubs[fridgeID] != nil
}

func (s *Session) report(err error) {
	select {
	case s.errs <- err:
	default:
		s.log.Warn("realtime.session: error channel full", "session_id", s.id, "user_id", s.userID, "error", err)
	}
}

func (s *Session) signal() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
