package shopping

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxQuantity     = 9999
	DefaultItemName = "Unnamed item"
)

type Status string

const StatusPending Status = "pending"

type Source string

const (
	SourceFridge    Source = "fridge"
	SourceThreshold Source = "threshold"
)

// Entry is a pending "to buy" record. Completing a purchase deletes it.
type Entry struct {
	ID               string          `gorm:"type:uuid;primaryKey"`
	FridgeID         string          `gorm:"type:uuid;not null;index"`
	FridgeName       string          `gorm:"not null"`
	Name             string          `gorm:"not null"`
	NameLower        string          `gorm:"not null"`
	Quantity         decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	Unit             string          `gorm:"not null"`
	Status           Status          `gorm:"type:varchar(16);not null"`
	Source           Source          `gorm:"type:varchar(16);not null"`
	FromStockID      *string         `gorm:"type:uuid"`
	ExpireDate       *time.Time
	TargetExpireDate *time.Time
	Barcode          *string
	LowThreshold     decimal.Decimal `gorm:"type:numeric(12,3);not null"`
	CreatedBy        string          `gorm:"not null"`
	CreatedAt        time.Time       `gorm:"not null;index"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (Entry) TableName() string {
	return "shopping_entries"
}

type Selection struct {
	GroupID  string
	Quantity decimal.Decimal
}

// UpdateInput leaves a field untouched when it is nil.
type UpdateInput struct {
	Quantity         *decimal.Decimal
	TargetExpireDate *time.Time
}

type Candidate struct {
	StockID      string
	FridgeID     string
	FridgeName   string
	Name         string
	Quantity     decimal.Decimal
	Unit         string
	LowThreshold decimal.Decimal
	ExpireDate   *time.Time
	NeedsRestock bool
	ExpiringSoon bool
}

type FridgeSummary struct {
	FridgeID     string
	FridgeName   string
	Total        int
	LowStock     int
	ExpiringSoon int
}

type Summary struct {
	Total        int
	LowStock     int
	ExpiringSoon int
	PerFridge    []FridgeSummary
}

type CandidatesView struct {
	Items   []Candidate
	Summary Summary
}
