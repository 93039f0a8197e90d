package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultUnit     = "pcs"
	DefaultItemName = "-"
	SoonWindow      = 72 * time.Hour
	MaxQuantity     = 9999

	defaultHistoryLimit = 100
	maxHistoryLimit     = 500

	// QuantityScale is the number of decimal places a stored quantity keeps.
	QuantityScale = 3
)

var maxStoredQuantity = decimal.RequireFromString("999999999.999")

// Storable reports whether q fits NUMERIC(12,3) without rounding.
func Storable(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale)) && q.Abs().LessThanOrEqual(maxStoredQuantity)
}

type Status string

const (
	StatusInStock Status = "in_stock"
	StatusLow     Status = "low"
)

type HistoryType string

const (
	HistoryAdd    HistoryType = "add"
	HistoryRemove HistoryType = "remove"
)

type Source string

const (
	SourceManual   Source = "manual"
	SourceGroup    Source = "group"
	SourceShopping Source = "shopping"
)

type StockItem struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	FridgeID     string          `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"not null"`
	Quantity     decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	Unit         string          `gorm:"not null"`
	ExpireDate   *time.Time
	LowThreshold decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	Barcode      *string
	Status       Status    `gorm:"type:varchar(16);not null"`
	CreatedBy    string    `gorm:"not null"`
	UpdatedBy    string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (i StockItem) IsLow() bool {
	return i.LowThreshold.IsPositive() && i.Quantity.LessThanOrEqual(i.LowThreshold)
}

func (i StockItem) IsExpiring(now time.Time) bool {
	return i.ExpireDate != nil && i.ExpireDate.Sub(now) <= SoonWindow
}

// HistoryEntry is append-only.
type HistoryEntry struct {
	ID         string          `gorm:"type:uuid;primaryKey"`
	FridgeID   string          `gorm:"type:uuid;not null;index"`
	StockID    string          `gorm:"type:uuid;not null"`
	Type       HistoryType     `gorm:"type:varchar(16);not null"`
	Name       string          `gorm:"not null"`
	Quantity   decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	Unit       string          `gorm:"not null"`
	Source     Source          `gorm:"type:varchar(16);not null"`
	ExpireDate *time.Time
	ActorID    string    `gorm:"not null"`
	ActorName  string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (HistoryEntry) TableName() string {
	return "stock_history"
}

type BarcodeLookup struct {
	Barcode   string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Unit      string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

type Actor struct {
	ID   string
	Name string
}

type AddItemInput struct {
	Name         string
	Quantity     decimal.Decimal
	Unit         string
	ExpireDate   *time.Time
	Barcode      string
	LowThreshold decimal.Decimal
	Source       Source
}

type Constituent struct {
	ID         string
	Quantity   decimal.Decimal
	ExpireDate *time.Time
	CreatedAt  time.Time
}

// DisplayGroup is derived from stock items sharing name, unit and expiry.
// Items are ordered for depletion: soonest expiry first, then oldest.
type DisplayGroup struct {
	ID           string
	Name         string
	Unit         string
	Quantity     decimal.Decimal
	LowThreshold decimal.Decimal
	ExpireDate   *time.Time
	Barcode      *string
	Expiring     bool
	Low          bool
	Items        []Constituent
}

type Filter string

const (
	FilterAll      Filter = "all"
	FilterExpiring Filter = "expiring"
	FilterLow      Filter = "low"
)

type Stats struct {
	ItemCount     int
	Expiring      int
	Low           int
	TotalQuantity decimal.Decimal
}

type GroupsView struct {
	Filter Filter
	Groups []DisplayGroup
	Stats  Stats
}

type RemoveResult struct {
	ItemID    string
	Name      string
	Removed   decimal.Decimal
	Remaining decimal.Decimal
	Deleted   bool
}

type GroupRemoval struct {
	GroupID  string
	Quantity decimal.Decimal
}

type GroupRemovalResult struct {
	GroupID   string
	Name      string
	Requested decimal.Decimal
	Removed   decimal.Decimal
	Items     []RemoveResult
}

type BulkRemoveResult struct {
	Groups []GroupRemovalResult
}

func (r BulkRemoveResult) TotalRemoved() decimal.Decimal {
	total := decimal.Zero
	for _, group := range r.Groups {
		total = total.Add(group.Removed)
	}
	return total
}
