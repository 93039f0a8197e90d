package realtime

import (
	"context"

	"fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/inventory"
	"fridge-app-go/internal/domain/profile"
	"fridge-app-go/internal/domain/shopping"

	"golang.org/x/sync/errgroup"
)

const snapshotHistoryLimit = 50

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*profile.Profile, error)
}

type FridgeReader interface {
	ListFridges(ctx context.Context, userID string) ([]fridge.UserFridge, error)
	GetFridge(ctx context.Context, userID, fridgeID string) (*fridge.Fridge, error)
	ListMembers(ctx context.Context, userID, fridgeID string) ([]fridge.MemberProfile, error)
}

type StockReader interface {
	Groups(ctx context.Context, userID, fridgeID string, filter inventory.Filter) (*inventory.GroupsView, error)
	ListHistory(ctx context.Context, userID, fridgeID string, limit int) ([]inventory.HistoryEntry, error)
}

type ShoppingReader interface {
	ListEntries(ctx context.Context, userID, fridgeID string) ([]shopping.Entry, error)
}

// ServiceLoader builds session state from the domain services, so every
// re-read goes through the same membership checks as the HTTP API.
type ServiceLoader struct {
	profiles ProfileReader
	fridges  FridgeReader
	stock    StockReader
	shopping ShoppingReader
}

func NewServiceLoader(profiles ProfileReader, fridges FridgeReader, stock StockReader, shopping ShoppingReader) *ServiceLoader {
	return &ServiceLoader{profiles: profiles, fridges: fridges, stock: stock, shopping: shopping}
}

func (l *ServiceLoader) LoadUser(ctx context.Context, userID string) (*UserState, error) {
	p, err := l.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	fridges, err := l.fridges.ListFridges(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserState{Profile: p, Fridges: fridges}, nil
}

func (l *ServiceLoader) LoadFridge(ctx context.Context, userID, fridgeID string) (*FridgeState, error) {
	f, err := l.fridges.GetFridge(ctx, userID, fridgeID)
	if err != nil {
		return nil, err
	}

	state := &FridgeState{Fridge: *f}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := l.fridges.ListMembers(gctx, userID, fridgeID)
		state.Members = members
		return err
	})
	g.Go(func() error {
		view, err := l.stock.Groups(gctx, userID, fridgeID, inventory.FilterAll)
		state.Stock = view
		return err
	})
	g.Go(func() error {
		entries, err := l.shopping.ListEntries(gctx, userID, fridgeID)
		state.Shopping = entries
		return err
	})
	g.Go(func() error {
		history, err := l.stock.ListHistory(gctx, userID, fridgeID, snapshotHistoryLimit)
		state.History = history
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return state, nil
}
