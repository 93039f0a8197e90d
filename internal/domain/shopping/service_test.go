package shopping

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"fridge-app-go/internal/domain/change"
	"fridge-app-go/internal/domain/errs"
	"fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/inventory"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeShoppingRepo struct {
	entries map[string]Entry
	stock   []inventory.StockItem
	history []inventory.HistoryEntry

	failDelete bool
}

func newFakeShoppingRepo() *fakeShoppingRepo {
	return &fakeShoppingRepo{entries: make(map[string]Entry)}
}

func (r *fakeShoppingRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	entries := make(map[string]Entry, len(r.entries))
	for k, v := range r.entries {
		entries[k] = v
	}
	stock := append([]inventory.StockItem(nil), r.stock...)
	history := append([]inventory.HistoryEntry(nil), r.history...)

	if err := fn(r); err != nil {
		r.entries, r.stock, r.history = entries, stock, history
		return err
	}
	return nil
}

func (r *fakeShoppingRepo) CreateEntries(ctx context.Context, entries []Entry) error {
	for _, entry := range entries {
		r.entries[entry.ID] = entry
	}
	return nil
}

func (r *fakeShoppingRepo) GetEntry(ctx context.Context, fridgeID, entryID string) (*Entry, error) {
	entry, ok := r.entries[entryID]
	if !ok || entry.FridgeID != fridgeID {
		return nil, ErrEntryNotFound
	}
	return &entry, nil
}

func (r *fakeShoppingRepo) ListPendingEntries(ctx context.Context, fridgeID string) ([]Entry, error) {
	result := make([]Entry, 0)
	for _, entry := range r.entries {
		if entry.FridgeID == fridgeID && entry.Status == StatusPending {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeShoppingRepo) UpdateEntry(ctx context.Context, entry *Entry) error {
	r.entries[entry.ID] = *entry
	return nil
}

func (r *fakeShoppingRepo) DeleteEntry(ctx context.Context, fridgeID, entryID string) error {
	if r.failDelete {
		return errors.New("delete failed")
	}
	delete(r.entries, entryID)
	return nil
}

func (r *fakeShoppingRepo) CreateStockItem(ctx context.Context, item *inventory.StockItem) error {
	r.stock = append(r.stock, *item)
	return nil
}

func (r *fakeShoppingRepo) AppendHistory(ctx context.Context, entry *inventory.HistoryEntry) error {
	r.history = append(r.history, *entry)
	return nil
}

type fakeFridges struct {
	fridges map[string]fridge.Fridge
	members map[string][]string
}

func (f *fakeFridges) GetFridge(ctx context.Context, userID, fridgeID string) (*fridge.Fridge, error) {
	ok, _ := f.IsMember(ctx, userID, fridgeID)
	if !ok {
		return nil, fridge.ErrNotFridgeMember
	}
	item := f.fridges[fridgeID]
	return &item, nil
}

func (f *fakeFridges) ListFridges(ctx context.Context, userID string) ([]fridge.UserFridge, error) {
	result := make([]fridge.UserFridge, 0)
	for _, id := range f.members[userID] {
		result = append(result, fridge.UserFridge{Fridge: f.fridges[id], Role: fridge.RoleMember})
	}
	return result, nil
}

func (f *fakeFridges) IsMember(ctx context.Context, userID, fridgeID string) (bool, error) {
	for _, id := range f.members[userID] {
		if id == fridgeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeStock struct {
	items map[string][]inventory.StockItem
	err   error
}

func (s *fakeStock) Groups(ctx context.Context, userID, fridgeID string, filter inventory.Filter) (*inventory.GroupsView, error) {
	groups := inventory.Aggregate(s.items[fridgeID], testNow)
	return &inventory.GroupsView{Filter: filter, Groups: groups, Stats: inventory.ComputeStats(groups)}, nil
}

func (s *fakeStock) ListItems(ctx context.Context, userID, fridgeID string) ([]inventory.StockItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items[fridgeID], nil
}

func (s *fakeStock) Now() time.Time {
	return testNow
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func stockItem(id, name string, quantity, threshold int64, expiry *time.Time) inventory.StockItem {
	return inventory.StockItem{
		ID:           id,
		Name:         name,
		Quantity:     decimal.NewFromInt(quantity),
		Unit:         "pcs",
		LowThreshold: decimal.NewFromInt(threshold),
		ExpireDate:   expiry,
	}
}

func newTestService(repo *fakeShoppingRepo, stock *fakeStock, notifier change.Notifier) *Service {
	fridges := &fakeFridges{
		fridges: map[string]fridge.Fridge{
			"F1": {ID: "F1", Name: "Home"},
			"F2": {ID: "F2", Name: " "},
		},
		members: map[string][]string{"alice": {"F1", "F2"}},
	}
	return NewService(repo, fridges, stock, notifier)
}

func TestPromoteCreatesEntriesWithoutTouchingStock(t *testing.T) {
	repo := newFakeShoppingRepo()
	expiry := dayPtr(2025, 3, 20)
	stock := &fakeStock{items: map[string][]inventory.StockItem{
		"F1": {stockItem("s1", "Milk", 2, 1, expiry), stockItem("s2", "Eggs", 6, 0, nil)},
	}}
	rec := &change.Recorder{}
	svc := newTestService(repo, stock, rec)

	milk := inventory.GroupKey("Milk", "pcs", expiry)
	entries, err := svc.Promote(context.Background(), "F1", "alice", "", []Selection{
		{GroupID: milk, Quantity: decimal.NewFromInt(12000)},
		{GroupID: "missing|pcs|none", Quantity: decimal.NewFromInt(1)},
		{GroupID: inventory.GroupKey("Eggs", "pcs", nil), Quantity: decimal.Zero},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != 1 || len(repo.entries) != 1 {
		t.Fatalf("expected only the valid selection to be promoted, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Source != SourceFridge || entry.Status != StatusPending || entry.FridgeName != "Home" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if !entry.Quantity.Equal(decimal.NewFromInt(MaxQuantity)) {
		t.Fatalf("expected quantity capped at %d, got %s", MaxQuantity, entry.Quantity)
	}
	if entry.FromStockID == nil || *entry.FromStockID != "s1" {
		t.Fatalf("expected fromStockId s1, got %v", entry.FromStockID)
	}
	if entry.TargetExpireDate != nil {
		t.Fatalf("expected target expiry unset")
	}
	if !stock.items["F1"][0].Quantity.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected stock untouched")
	}
	if !rec.Has(change.FridgeTopic("F1"), change.CollectionShopping) {
		t.Fatalf("expected shopping event, got %v", rec.Topics())
	}
}

func TestPromoteRejectsWhenNothingValid(t *testing.T) {
	repo := newFakeShoppingRepo()
	stock := &fakeStock{items: map[string][]inventory.StockItem{"F1": {stockItem("s1", "Milk", 2, 1, nil)}}}
	svc := newTestService(repo, stock, nil)

	_, err := svc.Promote(context.Background(), "F1", "alice", SourceThreshold, []Selection{{GroupID: "nope", Quantity: decimal.NewFromInt(1)}})
	if !errors.Is(err, errs.ErrNoValidSelection) {
		t.Fatalf("expected no valid selection, got %v", err)
	}
	if _, err := svc.Promote(context.Background(), "F1", "alice", "basket", nil); !errors.Is(err, ErrSourceInvalid) {
		t.Fatalf("expected invalid source, got %v", err)
	}
	if _, err := svc.Promote(context.Background(), "F1", "bob", SourceFridge, nil); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("expected no entries")
	}
}

func TestPromoteSkipsQuantitiesBeyondStoredScale(t *testing.T) {
	repo := newFakeShoppingRepo()
	stock := &fakeStock{items: map[string][]inventory.StockItem{"F1": {stockItem("s1", "Milk", 2, 1, nil)}}}
	svc := newTestService(repo, stock, nil)

	milk := inventory.GroupKey("Milk", "pcs", nil)
	_, err := svc.Promote(context.Background(), "F1", "alice", SourceFridge, []Selection{{GroupID: milk, Quantity: decimal.RequireFromString("0.0001")}})
	if !errors.Is(err, errs.ErrNoValidSelection) {
		t.Fatalf("expected no valid selection, got %v", err)
	}

	entries, err := svc.Promote(context.Background(), "F1", "alice", SourceFridge, []Selection{{GroupID: milk, Quantity: decimal.RequireFromString("1.5")}})
	if err != nil || len(entries) != 1 || !entries[0].Quantity.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("expected a 1.5 entry, got %+v %v", entries, err)
	}
}

func TestPromoteFallsBackToFridgeDisplayName(t *testing.T) {
	repo := newFakeShoppingRepo()
	stock := &fakeStock{items: map[string][]inventory.StockItem{"F2": {stockItem("s1", "Milk", 2, 1, nil)}}}
	svc := newTestService(repo, stock, nil)

	entries, err := svc.Promote(context.Background(), "F2", "alice", SourceThreshold, []Selection{
		{GroupID: inventory.GroupKey("Milk", "pcs", nil), Quantity: decimal.NewFromInt(1)},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if entries[0].FridgeName != "Fridge F2" || entries[0].Source != SourceThreshold {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}

func seedEntry(repo *fakeShoppingRepo, id string, target *time.Time, quantity int64) {
	repo.entries[id] = Entry{
		ID:               id,
		FridgeID:         "F1",
		FridgeName:       "Home",
		Name:             "Milk",
		NameLower:        "milk",
		Quantity:         decimal.NewFromInt(quantity),
		Unit:             "l",
		Status:           StatusPending,
		Source:           SourceFridge,
		TargetExpireDate: target,
		LowThreshold:     decimal.RequireFromString("0.4"),
		CreatedAt:        testNow,
	}
}

func TestMarkPurchasedWithoutExpiryIsRejected(t *testing.T) {
	repo := newFakeShoppingRepo()
	seedEntry(repo, "e1", nil, 2)
	svc := newTestService(repo, &fakeStock{}, nil)

	_, err := svc.MarkPurchased(context.Background(), "F1", inventory.Actor{ID: "alice"}, "e1")
	if !errors.Is(err, errs.ErrExpiryRequired) {
		t.Fatalf("expected expiry required, got %v", err)
	}
	if len(repo.stock) != 0 || len(repo.history) != 0 || len(repo.entries) != 1 {
		t.Fatalf("expected no stock, no history and the entry kept")
	}
}

func TestMarkPurchasedRequiresQuantity(t *testing.T) {
	repo := newFakeShoppingRepo()
	seedEntry(repo, "e1", dayPtr(2025, 3, 9), 0)
	svc := newTestService(repo, &fakeStock{}, nil)

	_, err := svc.MarkPurchased(context.Background(), "F1", inventory.Actor{ID: "alice"}, "e1")
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestMarkPurchasedRestocks(t *testing.T) {
	repo := newFakeShoppingRepo()
	target := dayPtr(2025, 3, 9)
	seedEntry(repo, "e1", target, 2)
	rec := &change.Recorder{}
	svc := newTestService(repo, &fakeStock{}, rec)

	item, err := svc.MarkPurchased(context.Background(), "F1", inventory.Actor{ID: "alice", Name: "Alice"}, "e1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Fatalf("expected entry deleted")
	}
	if len(repo.stock) != 1 || repo.stock[0].ID != item.ID {
		t.Fatalf("expected one new stock item")
	}
	if !item.LowThreshold.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected threshold raised to 1, got %s", item.LowThreshold)
	}
	if item.ExpireDate == nil || !item.ExpireDate.Equal(*target) || item.Unit != "l" {
		t.Fatalf("unexpected item %+v", item)
	}
	if len(repo.history) != 1 || repo.history[0].Source != inventory.SourceShopping || repo.history[0].Type != inventory.HistoryAdd {
		t.Fatalf("expected shopping add history, got %+v", repo.history)
	}
	if repo.history[0].ExpireDate == nil {
		t.Fatalf("expected history to carry expiry")
	}
	for _, coll := range []change.Collection{change.CollectionStock, change.CollectionHistory, change.CollectionShopping} {
		if !rec.Has(change.FridgeTopic("F1"), coll) {
			t.Fatalf("expected %s event", coll)
		}
	}
}

func TestMarkPurchasedRollsBack(t *testing.T) {
	repo := newFakeShoppingRepo()
	seedEntry(repo, "e1", dayPtr(2025, 3, 9), 2)
	repo.failDelete = true
	svc := newTestService(repo, &fakeStock{}, nil)

	if _, err := svc.MarkPurchased(context.Background(), "F1", inventory.Actor{ID: "alice"}, "e1"); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.stock) != 0 || len(repo.history) != 0 || len(repo.entries) != 1 {
		t.Fatalf("expected nothing committed")
	}
}

func TestUpdateEntryClampsQuantity(t *testing.T) {
	repo := newFakeShoppingRepo()
	seedEntry(repo, "e1", nil, 2)
	svc := newTestService(repo, &fakeStock{}, nil)

	zero := decimal.Zero
	entry, err := svc.UpdateEntry(context.Background(), "alice", "F1", "e1", UpdateInput{Quantity: &zero})
	if err != nil || !entry.Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected quantity 1, got %v %v", entry, err)
	}

	huge := decimal.NewFromInt(50000)
	target := dayPtr(2025, 4, 1)
	entry, err = svc.UpdateEntry(context.Background(), "alice", "F1", "e1", UpdateInput{Quantity: &huge, TargetExpireDate: target})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !entry.Quantity.Equal(decimal.NewFromInt(MaxQuantity)) || entry.TargetExpireDate == nil {
		t.Fatalf("unexpected entry %+v", entry)
	}

	fine := decimal.RequireFromString("1.0001")
	if _, err := svc.UpdateEntry(context.Background(), "alice", "F1", "e1", UpdateInput{Quantity: &fine}); !errors.Is(err, inventory.ErrQuantityInvalid) {
		t.Fatalf("expected quantity beyond stored scale to be rejected, got %v", err)
	}
	if !repo.entries["e1"].Quantity.Equal(decimal.NewFromInt(MaxQuantity)) {
		t.Fatalf("expected entry unchanged, got %s", repo.entries["e1"].Quantity)
	}

	if _, err := svc.UpdateEntry(context.Background(), "alice", "F1", "e1", UpdateInput{}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.UpdateEntry(context.Background(), "alice", "F1", "missing", UpdateInput{Quantity: &huge}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteAndListEntries(t *testing.T) {
	repo := newFakeShoppingRepo()
	seedEntry(repo, "old", nil, 1)
	seedEntry(repo, "new", nil, 1)
	newer := repo.entries["new"]
	newer.CreatedAt = testNow.Add(time.Hour)
	repo.entries["new"] = newer
	svc := newTestService(repo, &fakeStock{}, nil)

	entries, err := svc.ListEntries(context.Background(), "alice", "F1")
	if err != nil || len(entries) != 2 || entries[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v %v", entries, err)
	}

	if err := svc.DeleteEntry(context.Background(), "alice", "F1", "old"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.DeleteEntry(context.Background(), "alice", "F1", "old"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.ListEntries(context.Background(), "bob", "F1"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCandidatesAcrossFridges(t *testing.T) {
	stock := &fakeStock{items: map[string][]inventory.StockItem{
		"F1": {
			stockItem("a", "Milk", 1, 2, nil),
			stockItem("b", "Cheese", 5, 0, dayPtr(2025, 3, 2)),
			stockItem("c", "Rice", 10, 1, nil),
		},
		"F2": {
			stockItem("d", "Butter", 1, 1, dayPtr(2025, 3, 3)),
		},
	}}
	svc := newTestService(newFakeShoppingRepo(), stock, nil)

	view, err := svc.Candidates(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(view.Items) != 3 {
		t.Fatalf("expected 3 candidates, got %+v", view.Items)
	}
	if view.Items[0].FridgeName != "Fridge F2" || view.Items[1].Name != "Cheese" || view.Items[2].Name != "Milk" {
		t.Fatalf("unexpected order %+v", view.Items)
	}
	summary := view.Summary
	if summary.Total != 3 || summary.LowStock != 2 || summary.ExpiringSoon != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.PerFridge) != 2 || summary.PerFridge[0].FridgeID != "F2" || summary.PerFridge[1].Total != 2 {
		t.Fatalf("unexpected per-fridge summary %+v", summary.PerFridge)
	}
}

func TestCandidatesPropagatesLoadError(t *testing.T) {
	svc := newTestService(newFakeShoppingRepo(), &fakeStock{err: errors.New("store down")}, nil)

	if _, err := svc.Candidates(context.Background(), "alice"); err == nil {
		t.Fatalf("expected error")
	}
}
