package shopping

import (
	"context"
	"time"

	"fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/inventory"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateEntries(ctx context.Context, entries []Entry) error
	GetEntry(ctx context.Context, fridgeID, entryID string) (*Entry, error)
	// ListPendingEntries returns newest entries first.
	ListPendingEntries(ctx context.Context, fridgeID string) ([]Entry, error)
	UpdateEntry(ctx context.Context, entry *Entry) error
	DeleteEntry(ctx context.Context, fridgeID, entryID string) error

	CreateStockItem(ctx context.Context, item *inventory.StockItem) error
	AppendHistory(ctx context.Context, entry *inventory.HistoryEntry) error
}

// Fridges is the slice of the fridge registry the shopping list reads.
type Fridges interface {
	GetFridge(ctx context.Context, userID, fridgeID string) (*fridge.Fridge, error)
	ListFridges(ctx context.Context, userID string) ([]fridge.UserFridge, error)
	IsMember(ctx context.Context, userID, fridgeID string) (bool, error)
}

// Stock is the slice of the inventory engine the shopping list reads.
type Stock interface {
	Groups(ctx context.Context, userID, fridgeID string, filter inventory.Filter) (*inventory.GroupsView, error)
	ListItems(ctx context.Context, userID, fridgeID string) ([]inventory.StockItem, error)
	Now() time.Time
}
