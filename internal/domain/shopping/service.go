package shopping

import (
	"context"
	"sort"
	"strings"
	"time"

	"fridge-app-go/internal/domain/change"
	"fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/inventory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const candidateLoadLimit = 4

var maxQuantity = decimal.NewFromInt(MaxQuantity)

type Service struct {
	repo     Repository
	fridges  Fridges
	stock    Stock
	notifier change.Notifier
}

func NewService(repo Repository, fridges Fridges, stock Stock, notifier change.Notifier) *Service {
	if notifier == nil {
		notifier = change.Nop()
	}
	return &Service{repo: repo, fridges: fridges, stock: stock, notifier: notifier}
}

// Promote copies the selected display groups onto the shopping list. Stock
// quantities are left untouched. Selections naming a missing group, or with a
// quantity that is not positive or has more than three decimals, are skipped.
func (s *Service) Promote(ctx context.Context, fridgeID, userID string, source Source, selections []Selection) ([]Entry, error) {
	if source == "" {
		source = SourceFridge
	}
	if source != SourceFridge && source != SourceThreshold {
		return nil, ErrSourceInvalid
	}

	target, err := s.fridges.GetFridge(ctx, userID, fridgeID)
	if err != nil {
		return nil, err
	}
	view, err := s.stock.Groups(ctx, userID, fridgeID, inventory.FilterAll)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]inventory.DisplayGroup, len(view.Groups))
	for _, group := range view.Groups {
		groups[group.ID] = group
	}

	now := s.stock.Now()
	fridgeName := fridge.DisplayName(target.ID, target.Name)
	entries := make([]Entry, 0, len(selections))
	for _, selection := range selections {
		group, ok := groups[selection.GroupID]
		quantity := decimal.Min(selection.Quantity, maxQuantity)
		if !ok || !quantity.IsPositive() || !inventory.Storable(quantity) {
			continue
		}
		entries = append(entries, newEntry(target.ID, fridgeName, userID, source, group, quantity, now))
	}
	if len(entries) == 0 {
		return nil, ErrNoValidSelection
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		return tx.CreateEntries(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionShopping)...)
	return entries, nil
}

func (s *Service) ListEntries(ctx context.Context, userID, fridgeID string) ([]Entry, error) {
	if err := s.requireMember(ctx, userID, fridgeID); err != nil {
		return nil, err
	}
	return s.repo.ListPendingEntries(ctx, fridgeID)
}

// UpdateEntry sets the wanted quantity (clamped to 1..MaxQuantity) and/or the
// target expiry.
func (s *Service) UpdateEntry(ctx context.Context, userID, fridgeID, entryID string, in UpdateInput) (*Entry, error) {
	if in.Quantity == nil && in.TargetExpireDate == nil {
		return nil, ErrNothingToUpdate
	}
	if in.Quantity != nil && !inventory.Storable(clampQuantity(*in.Quantity)) {
		return nil, inventory.ErrQuantityInvalid
	}
	if err := s.requireMember(ctx, userID, fridgeID); err != nil {
		return nil, err
	}

	var entry *Entry
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		entry, err = tx.GetEntry(ctx, fridgeID, entryID)
		if err != nil {
			return err
		}
		if in.Quantity != nil {
			entry.Quantity = clampQuantity(*in.Quantity)
		}
		if in.TargetExpireDate != nil {
			expiry := in.TargetExpireDate.UTC()
			entry.TargetExpireDate = &expiry
		}
		entry.UpdatedAt = s.stock.Now()
		return tx.UpdateEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionShopping)...)
	return entry, nil
}

func (s *Service) DeleteEntry(ctx context.Context, userID, fridgeID, entryID string) error {
	if err := s.requireMember(ctx, userID, fridgeID); err != nil {
		return err
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetEntry(ctx, fridgeID, entryID); err != nil {
			return err
		}
		return tx.DeleteEntry(ctx, fridgeID, entryID)
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionShopping)...)
	return nil
}

// MarkPurchased turns a shopping entry into a new stock item. The stock item,
// its history entry and the removal of the shopping entry commit together.
func (s *Service) MarkPurchased(ctx context.Context, fridgeID string, actor inventory.Actor, entryID string) (*inventory.StockItem, error) {
	if err := s.requireMember(ctx, actor.ID, fridgeID); err != nil {
		return nil, err
	}

	var item *inventory.StockItem
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		entry, err := tx.GetEntry(ctx, fridgeID, entryID)
		if err != nil {
			return err
		}
		if entry.TargetExpireDate == nil {
			return ErrExpiryRequired
		}
		if !entry.Quantity.IsPositive() {
			return ErrQuantityRequired
		}

		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = DefaultItemName
		}
		barcode := ""
		if entry.Barcode != nil {
			barcode = *entry.Barcode
		}

		var history *inventory.HistoryEntry
		item, history, err = inventory.NewStockItem(fridgeID, actor, inventory.AddItemInput{
			Name:         name,
			Quantity:     entry.Quantity,
			Unit:         entry.Unit,
			ExpireDate:   entry.TargetExpireDate,
			Barcode:      barcode,
			LowThreshold: restockThreshold(entry.LowThreshold),
			Source:       inventory.SourceShopping,
		}, s.stock.Now())
		if err != nil {
			return err
		}

		if err := tx.CreateStockItem(ctx, item); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, history); err != nil {
			return err
		}
		return tx.DeleteEntry(ctx, fridgeID, entry.ID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionStock, change.CollectionHistory, change.CollectionShopping)...)
	return item, nil
}

// Candidates lists stock items that are low or expiring soon across every
// fridge of the user. Nothing is persisted.
func (s *Service) Candidates(ctx context.Context, userID string) (*CandidatesView, error) {
	fridges, err := s.fridges.ListFridges(ctx, userID)
	if err != nil {
		return nil, err
	}

	stockByFridge := make([][]inventory.StockItem, len(fridges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(candidateLoadLimit)
	for i, f := range fridges {
		g.Go(func() error {
			items, err := s.stock.ListItems(gctx, userID, f.ID)
			if err != nil {
				return err
			}
			stockByFridge[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.stock.Now()
	candidates := make([]Candidate, 0)
	for i, f := range fridges {
		name := fridge.DisplayName(f.ID, f.Name)
		for _, item := range stockByFridge[i] {
			if candidate, ok := candidateFrom(item, f.ID, name, now); ok {
				candidates = append(candidates, candidate)
			}
		}
	}
	sortCandidates(candidates)

	return &CandidatesView{Items: candidates, Summary: summarize(fridges, candidates)}, nil
}

func (s *Service) requireMember(ctx context.Context, userID, fridgeID string) error {
	if strings.TrimSpace(fridgeID) == "" {
		return fridge.ErrFridgeIDRequired
	}
	ok, err := s.fridges.IsMember(ctx, userID, fridgeID)
	if err != nil {
		return err
	}
	if !ok {
		return fridge.ErrNotFridgeMember
	}
	return nil
}

func newEntry(fridgeID, fridgeName, userID string, source Source, group inventory.DisplayGroup, quantity decimal.Decimal, now time.Time) Entry {
	name := strings.TrimSpace(group.Name)
	entry := Entry{
		ID:           uuid.NewString(),
		FridgeID:     fridgeID,
		FridgeName:   fridgeName,
		Name:         name,
		NameLower:    strings.ToLower(name),
		Quantity:     quantity,
		Unit:         group.Unit,
		Status:       StatusPending,
		Source:       source,
		ExpireDate:   group.ExpireDate,
		Barcode:      group.Barcode,
		LowThreshold: group.LowThreshold,
		CreatedBy:    userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if entry.Unit == "" {
		entry.Unit = inventory.DefaultUnit
	}
	if len(group.Items) > 0 {
		stockID := group.Items[0].ID
		entry.FromStockID = &stockID
	}
	return entry
}

func clampQuantity(quantity decimal.Decimal) decimal.Decimal {
	if quantity.LessThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return decimal.Min(quantity, maxQuantity)
}

func restockThreshold(threshold decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.NewFromInt(1), threshold.Round(0))
}

func candidateFrom(item inventory.StockItem, fridgeID, fridgeName string, now time.Time) (Candidate, bool) {
	needsRestock := item.Quantity.LessThanOrEqual(item.LowThreshold)
	expiring := item.IsExpiring(now)
	if !needsRestock && !expiring {
		return Candidate{}, false
	}
	return Candidate{
		StockID:      item.ID,
		FridgeID:     fridgeID,
		FridgeName:   fridgeName,
		Name:         item.Name,
		Quantity:     item.Quantity,
		Unit:         item.Unit,
		LowThreshold: item.LowThreshold,
		ExpireDate:   item.ExpireDate,
		NeedsRestock: needsRestock,
		ExpiringSoon: expiring,
	}, true
}

// sortCandidates orders by fridge name, then expiry (none last), then name.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if fa, fb := strings.ToLower(a.FridgeName), strings.ToLower(b.FridgeName); fa != fb {
			return fa < fb
		}
		switch {
		case a.ExpireDate == nil && b.ExpireDate != nil:
			return false
		case a.ExpireDate != nil && b.ExpireDate == nil:
			return true
		case a.ExpireDate != nil && !a.ExpireDate.Equal(*b.ExpireDate):
			return a.ExpireDate.Before(*b.ExpireDate)
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

func summarize(fridges []fridge.UserFridge, candidates []Candidate) Summary {
	summary := Summary{PerFridge: make([]FridgeSummary, 0)}
	index := make(map[string]int, len(fridges))
	for _, c := range candidates {
		summary.Total++
		pos, ok := index[c.FridgeID]
		if !ok {
			pos = len(summary.PerFridge)
			index[c.FridgeID] = pos
			summary.PerFridge = append(summary.PerFridge, FridgeSummary{FridgeID: c.FridgeID, FridgeName: c.FridgeName})
		}
		perFridge := &summary.PerFridge[pos]
		perFridge.Total++
		if c.NeedsRestock {
			summary.LowStock++
			perFridge.LowStock++
		}
		if c.ExpiringSoon {
			summary.ExpiringSoon++
			perFridge.ExpiringSoon++
		}
	}
	return summary
}
