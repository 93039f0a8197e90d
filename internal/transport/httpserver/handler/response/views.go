// Package response holds the JSON views shared by the HTTP handlers and the
// live stream.
package response

import (
	"time"

	"fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/inventory"
	"fridge-app-go/internal/domain/profile"
	"fridge-app-go/internal/domain/shopping"

	"github.com/shopspring/decimal"
)

type Profile struct {
	UserID          string    `json:"user_id"`
	DisplayName     string    `json:"display_name"`
	Email           *string   `json:"email"`
	CurrentFridgeID *string   `json:"current_fridge_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type Fridge struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	OwnerID    string      `json:"owner_id"`
	InviteCode string      `json:"invite_code"`
	CreatedAt  time.Time   `json:"created_at"`
	Role       fridge.Role `json:"role,omitempty"`
	JoinedAt   *time.Time  `json:"joined_at,omitempty"`
}

type Member struct {
	UserID      string      `json:"user_id"`
	Role        fridge.Role `json:"role"`
	JoinedAt    time.Time   `json:"joined_at"`
	DisplayName *string     `json:"display_name"`
	Email       *string     `json:"email"`
}

type StockItem struct {
	ID           string           `json:"id"`
	FridgeID     string           `json:"fridge_id"`
	Name         string           `json:"name"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Unit         string           `json:"unit"`
	ExpireDate   *time.Time       `json:"expire_date"`
	LowThreshold decimal.Decimal  `json:"low_threshold"`
	Barcode      *string          `json:"barcode"`
	Status       inventory.Status `json:"status"`
	CreatedBy    string           `json:"created_by"`
	UpdatedBy    string           `json:"updated_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type Constituent struct {
	ID         string          `json:"id"`
	Quantity   decimal.Decimal `json:"quantity"`
	ExpireDate *time.Time      `json:"expire_date"`
	CreatedAt  *time.Time      `json:"created_at"`
}

type Group struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	LowThreshold decimal.Decimal `json:"low_threshold"`
	ExpireDate   *time.Time      `json:"expire_date"`
	Barcode      *string         `json:"barcode"`
	Expiring     bool            `json:"expiring"`
	Low          bool            `json:"low"`
	Items        []Constituent   `json:"items"`
}

type Stats struct {
	ItemCount     int             `json:"item_count"`
	Expiring      int             `json:"expiring"`
	Low           int             `json:"low"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

type Groups struct {
	Filter inventory.Filter `json:"filter"`
	Groups []Group          `json:"groups"`
	Stats  Stats            `json:"stats"`
}

type History struct {
	ID         string                `json:"id"`
	StockID    string                `json:"stock_id"`
	Type       inventory.HistoryType `json:"type"`
	Name       string                `json:"name"`
	Quantity   decimal.Decimal       `json:"quantity"`
	Unit       string                `json:"unit"`
	Source     inventory.Source      `json:"source"`
	ExpireDate *time.Time            `json:"expire_date"`
	ActorID    string                `json:"actor_id"`
	ActorName  string                `json:"actor_name"`
	CreatedAt  time.Time             `json:"created_at"`
}

type Removal struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Removed   decimal.Decimal `json:"removed"`
	Remaining decimal.Decimal `json:"remaining"`
	Deleted   bool            `json:"deleted"`
}

type GroupRemoval struct {
	GroupID   string          `json:"group_id"`
	Name      string          `json:"name"`
	Requested decimal.Decimal `json:"requested"`
	Removed   decimal.Decimal `json:"removed"`
	Items     []Removal       `json:"items"`
}

type ShoppingEntry struct {
	ID               string          `json:"id"`
	FridgeID         string          `json:"fridge_id"`
	FridgeName       string          `json:"fridge_name"`
	Name             string          `json:"name"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	Status           shopping.Status `json:"status"`
	Source           shopping.Source `json:"source"`
	FromStockID      *string         `json:"from_stock_id"`
	ExpireDate       *time.Time      `json:"expire_date"`
	TargetExpireDate *time.Time      `json:"target_expire_date"`
	Barcode          *string         `json:"barcode"`
	LowThreshold     decimal.Decimal `json:"low_threshold"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Candidate struct {
	StockID      string          `json:"stock_id"`
	FridgeID     string          `json:"fridge_id"`
	FridgeName   string          `json:"fridge_name"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	LowThreshold decimal.Decimal `json:"low_threshold"`
	ExpireDate   *time.Time      `json:"expire_date"`
	NeedsRestock bool            `json:"needs_restock"`
	ExpiringSoon bool            `json:"expiring_soon"`
}

type FridgeSummary struct {
	FridgeID     string `json:"fridge_id"`
	FridgeName   string `json:"fridge_name"`
	Total        int    `json:"total"`
	LowStock     int    `json:"low_stock"`
	ExpiringSoon int    `json:"expiring_soon"`
}

type Summary struct {
	Total        int             `json:"total"`
	LowStock     int             `json:"low_stock"`
	ExpiringSoon int             `json:"expiring_soon"`
	PerFridge    []FridgeSummary `json:"per_fridge"`
}

type Candidates struct {
	Items   []Candidate `json:"items"`
	Summary Summary     `json:"summary"`
}

type Anomaly struct {
	Kind     fridge.AnomalyKind `json:"kind"`
	UserID   string             `json:"user_id"`
	FridgeID string             `json:"fridge_id"`
}

func FromProfile(p *profile.Profile) Profile {
	return Profile{
		UserID:          p.UserID,
		DisplayName:     p.DisplayName,
		Email:           p.Email,
		CurrentFridgeID: p.CurrentFridgeID,
		CreatedAt:       p.CreatedAt,
	}
}

func FromFridge(f *fridge.Fridge) Fridge {
	return Fridge{
		ID:         f.ID,
		Name:       f.Name,
		OwnerID:    f.OwnerID,
		InviteCode: f.InviteCode,
		CreatedAt:  f.CreatedAt,
	}
}

func FromUserFridges(fridges []fridge.UserFridge) []Fridge {
	result := make([]Fridge, 0, len(fridges))
	for _, f := range fridges {
		view := FromFridge(&f.Fridge)
		joinedAt := f.JoinedAt
		view.Role = f.Role
		view.JoinedAt = &joinedAt
		result = append(result, view)
	}
	return result
}

func FromMembers(members []fridge.MemberProfile) []Member {
	result := make([]Member, 0, len(members))
	for _, m := range members {
		result = append(result, Member{
			UserID:      m.UserID,
			Role:        m.Role,
			JoinedAt:    m.JoinedAt,
			DisplayName: m.DisplayName,
			Email:       m.Email,
		})
	}
	return result
}

func FromStockItem(item *inventory.StockItem) StockItem {
	return StockItem{
		ID:           item.ID,
		FridgeID:     item.FridgeID,
		Name:         item.Name,
		Quantity:     item.Quantity,
		Unit:         item.Unit,
		ExpireDate:   item.ExpireDate,
		LowThreshold: item.LowThreshold,
		Barcode:      item.Barcode,
		Status:       item.Status,
		CreatedBy:    item.CreatedBy,
		UpdatedBy:    item.UpdatedBy,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func FromStockItems(items []inventory.StockItem) []StockItem {
	result := make([]StockItem, 0, len(items))
	for i := range items {
		result = append(result, FromStockItem(&items[i]))
	}
	return result
}

func FromGroup(group inventory.DisplayGroup) Group {
	items := make([]Constituent, 0, len(group.Items))
	for _, c := range group.Items {
		constituent := Constituent{ID: c.ID, Quantity: c.Quantity, ExpireDate: c.ExpireDate}
		if !c.CreatedAt.IsZero() {
			created := c.CreatedAt
			constituent.CreatedAt = &created
		}
		items = append(items, constituent)
	}
	return Group{
		ID:           group.ID,
		Name:         group.Name,
		Unit:         group.Unit,
		Quantity:     group.Quantity,
		LowThreshold: group.LowThreshold,
		ExpireDate:   group.ExpireDate,
		Barcode:      group.Barcode,
		Expiring:     group.Expiring,
		Low:          group.Low,
		Items:        items,
	}
}

func FromGroupsView(view *inventory.GroupsView) Groups {
	groups := make([]Group, 0, len(view.Groups))
	for _, group := range view.Groups {
		groups = append(groups, FromGroup(group))
	}
	return Groups{
		Filter: view.Filter,
		Groups: groups,
		Stats: Stats{
			ItemCount:     view.Stats.ItemCount,
			Expiring:      view.Stats.Expiring,
			Low:           view.Stats.Low,
			TotalQuantity: view.Stats.TotalQuantity,
		},
	}
}

func FromHistory(entries []inventory.HistoryEntry) []History {
	result := make([]History, 0, len(entries))
	for _, e := range entries {
		result = append(result, History{
			ID:         e.ID,
			StockID:    e.StockID,
			Type:       e.Type,
			Name:       e.Name,
			Quantity:   e.Quantity,
			Unit:       e.Unit,
			Source:     e.Source,
			ExpireDate: e.ExpireDate,
			ActorID:    e.ActorID,
			ActorName:  e.ActorName,
			CreatedAt:  e.CreatedAt,
		})
	}
	return result
}

func FromRemoval(r inventory.RemoveResult) Removal {
	return Removal{ItemID: r.ItemID, Name: r.Name, Removed: r.Removed, Remaining: r.Remaining, Deleted: r.Deleted}
}

func FromGroupRemoval(r inventory.GroupRemovalResult) GroupRemoval {
	items := make([]Removal, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, FromRemoval(item))
	}
	return GroupRemoval{GroupID: r.GroupID, Name: r.Name, Requested: r.Requested, Removed: r.Removed, Items: items}
}

func FromShoppingEntry(e *shopping.Entry) ShoppingEntry {
	return ShoppingEntry{
		ID:               e.ID,
		FridgeID:         e.FridgeID,
		FridgeName:       e.FridgeName,
		Name:             e.Name,
		Quantity:         e.Quantity,
		Unit:             e.Unit,
		Status:           e.Status,
		Source:           e.Source,
		FromStockID:      e.FromStockID,
		ExpireDate:       e.ExpireDate,
		TargetExpireDate: e.TargetExpireDate,
		Barcode:          e.Barcode,
		LowThreshold:     e.LowThreshold,
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt,
	}
}

func FromShoppingEntries(entries []shopping.Entry) []ShoppingEntry {
	result := make([]ShoppingEntry, 0, len(entries))
	for i := range entries {
		result = append(result, FromShoppingEntry(&entries[i]))
	}
	return result
}

func FromCandidates(view *shopping.CandidatesView) Candidates {
	items := make([]Candidate, 0, len(view.Items))
	for _, c := range view.Items {
		items = append(items, Candidate{
			StockID:      c.StockID,
			FridgeID:     c.FridgeID,
			FridgeName:   c.FridgeName,
			Name:         c.Name,
			Quantity:     c.Quantity,
			Unit:         c.Unit,
			LowThreshold: c.LowThreshold,
			ExpireDate:   c.ExpireDate,
			NeedsRestock: c.NeedsRestock,
			ExpiringSoon: c.ExpiringSoon,
		})
	}
	perFridge := make([]FridgeSummary, 0, len(view.Summary.PerFridge))
	for _, s := range view.Summary.PerFridge {
		perFridge = append(perFridge, FridgeSummary(s))
	}
	return Candidates{
		Items: items,
		Summary: Summary{
			Total:        view.Summary.Total,
			LowStock:     view.Summary.LowStock,
			ExpiringSoon: view.Summary.ExpiringSoon,
			PerFridge:    perFridge,
		},
	}
}

func FromAnomalies(anomalies []fridge.Anomaly) []Anomaly {
	result := make([]Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		result = append(result, Anomaly(a))
	}
	return result
}
