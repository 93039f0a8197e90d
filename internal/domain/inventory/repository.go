package inventory

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateItem(ctx context.Context, item *StockItem) error
	// GetItemForUpdate re-reads the row and locks it until the transaction ends.
	GetItemForUpdate(ctx context.Context, fridgeID, itemID string) (*StockItem, error)
	ListItems(ctx context.Context, fridgeID string) ([]StockItem, error)
	UpdateItemQuantity(ctx context.Context, item *StockItem) error
	DeleteItem(ctx context.Context, fridgeID, itemID string) error

	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	ListHistory(ctx context.Context, fridgeID string, limit int) ([]HistoryEntry, error)

	UpsertBarcode(ctx context.Context, lookup *BarcodeLookup) error
	GetBarcode(ctx context.Context, barcode string) (*BarcodeLookup, error)
}

type MembershipChecker interface {
	IsMember(ctx context.Context, userID, fridgeID string) (bool, error)
}

// Locker serializes depletion of one display group across instances.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// Metrics observes committed stock mutations.
type Metrics interface {
	StockMutated(op string, quantity float64)
}

type noopMetrics struct{}

func (noopMetrics) StockMutated(string, float64) {}
