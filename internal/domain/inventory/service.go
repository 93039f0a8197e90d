package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"fridge-app-go/internal/domain/change"
	"fridge-app-go/internal/domain/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultLockTTL = 10 * time.Second

type Service struct {
	repo     Repository
	members  MembershipChecker
	locker   Locker
	lockTTL  time.Duration
	notifier change.Notifier
	metrics  Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithLocker(locker Locker, ttl time.Duration) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithNotifier(notifier change.Notifier) Option {
	return func(s *Service) {
		if notifier != nil {
			s.notifier = notifier
		}
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, members MembershipChecker, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		members:  members,
		locker:   noopLocker{},
		lockTTL:  defaultLockTTL,
		notifier: change.Nop(),
		metrics:  noopMetrics{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStockItem validates input and builds the item together with its add
// history entry. Nothing is persisted.
func NewStockItem(fridgeID string, actor Actor, in AddItemInput, now time.Time) (*StockItem, *HistoryEntry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, ErrNameRequired
	}
	if !in.Quantity.IsPositive() || !Storable(in.Quantity) {
		return nil, nil, ErrQuantityInvalid
	}
	if in.LowThreshold.IsNegative() || !Storable(in.LowThreshold) {
		return nil, nil, ErrThresholdInvalid
	}

	item := &StockItem{
		ID:           uuid.NewString(),
		FridgeID:     fridgeID,
		Name:         name,
		Quantity:     in.Quantity,
		Unit:         normalizeUnit(in.Unit),
		LowThreshold: in.LowThreshold,
		Status:       StatusInStock,
		CreatedBy:    actor.ID,
		UpdatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.ExpireDate != nil {
		expiry := in.ExpireDate.UTC()
		item.ExpireDate = &expiry
	}
	if barcode := strings.TrimSpace(in.Barcode); barcode != "" {
		item.Barcode = &barcode
	}
	if item.LowThreshold.IsPositive() && item.Quantity.LessThanOrEqual(item.LowThreshold) {
		item.Status = StatusLow
	}

	source := in.Source
	if source == "" {
		source = SourceManual
	}
	entry := newHistory(item, HistoryAdd, item.Quantity, source, actor, now)
	entry.ExpireDate = item.ExpireDate
	return item, entry, nil
}

// AddItem inserts a stock item, its history entry and the barcode prefill
// record in one unit.
func (s *Service) AddItem(ctx context.Context, fridgeID string, actor Actor, in AddItemInput) (*StockItem, error) {
	if err := s.requireMember(ctx, actor.ID, fridgeID); err != nil {
		return nil, err
	}

	item, entry, err := NewStockItem(fridgeID, actor, in, s.now())
	if err != nil {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateItem(ctx, item); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return err
		}
		if item.Barcode != nil {
			return tx.UpsertBarcode(ctx, &BarcodeLookup{Barcode: *item.Barcode, Name: item.Name, Unit: item.Unit})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StockMutated("add", item.Quantity.InexactFloat64())
	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionStock, change.CollectionHistory)...)
	return item, nil
}

// RemoveQuantity takes up to amount from one item. The quantity is re-read
// under a row lock inside the unit; an item that reaches zero is deleted.
func (s *Service) RemoveQuantity(ctx context.Context, fridgeID string, actor Actor, itemID string, amount decimal.Decimal) (*RemoveResult, error) {
	if !amount.IsPositive() || !Storable(amount) {
		return nil, ErrAmountInvalid
	}
	if err := s.requireMember(ctx, actor.ID, fridgeID); err != nil {
		return nil, err
	}

	var result RemoveResult
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		item, err := tx.GetItemForUpdate(ctx, fridgeID, itemID)
		if err != nil {
			return err
		}
		result, err = s.removeFromItem(ctx, tx, item, amount, SourceManual, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StockMutated("remove", result.Removed.InexactFloat64())
	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionStock, change.CollectionHistory)...)
	return &result, nil
}

// BulkRemoveAcrossGroup removes totalAmount from a display group, depleting
// the soonest-expiring, oldest stock first.
func (s *Service) BulkRemoveAcrossGroup(ctx context.Context, fridgeID string, actor Actor, groupID string, totalAmount decimal.Decimal) (*GroupRemovalResult, error) {
	result, err := s.BulkRemove(ctx, fridgeID, actor, []GroupRemoval{{GroupID: groupID, Quantity: totalAmount}})
	if result == nil || len(result.Groups) == 0 {
		return nil, err
	}
	return &result.Groups[0], err
}

// BulkRemove checks every requested group against the current stock before
// touching anything. Each constituent is then removed in its own unit, so a
// failure part-way leaves earlier constituents removed; the returned result
// always reports what was actually taken.
func (s *Service) BulkRemove(ctx context.Context, fridgeID string, actor Actor, requests []GroupRemoval) (*BulkRemoveResult, error) {
	requests, err := mergeRequests(requests)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, actor.ID, fridgeID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListItems(ctx, fridgeID)
	if err != nil {
		return nil, err
	}
	groups := indexGroups(Aggregate(items, s.now()))

	var shortfalls []errs.Shortfall
	for _, request := range requests {
		group, ok := groups[request.GroupID]
		if !ok {
			shortfalls = append(shortfalls, errs.Shortfall{GroupID: request.GroupID, Available: decimal.Zero, Requested: request.Quantity})
			continue
		}
		if request.Quantity.GreaterThan(group.Quantity) {
			shortfalls = append(shortfalls, errs.Shortfall{GroupID: group.ID, Name: group.Name, Available: group.Quantity, Requested: request.Quantity})
		}
	}
	if len(shortfalls) > 0 {
		return nil, &errs.InsufficientStockError{Shortfalls: shortfalls}
	}

	result := &BulkRemoveResult{Groups: make([]GroupRemovalResult, 0, len(requests))}
	defer func() {
		if removed := result.TotalRemoved(); removed.IsPositive() {
			s.metrics.StockMutated("bulk_remove", removed.InexactFloat64())
			s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionStock, change.CollectionHistory)...)
		}
	}()

	for _, request := range requests {
		group := groups[request.GroupID]
		groupResult, err := s.depleteGroup(ctx, fridgeID, actor, group, request.Quantity)
		result.Groups = append(result.Groups, groupResult)
		if err != nil {
			return result, err
		}
		if remaining := request.Quantity.Sub(groupResult.Removed); remaining.IsPositive() {
			shortfalls = append(shortfalls, errs.Shortfall{GroupID: group.ID, Name: group.Name, Available: groupResult.Removed, Requested: request.Quantity})
		}
	}
	if len(shortfalls) > 0 {
		return result, &errs.InsufficientStockError{Shortfalls: shortfalls}
	}
	return result, nil
}

// DeleteGroup removes every constituent of a display group.
func (s *Service) DeleteGroup(ctx context.Context, fridgeID string, actor Actor, groupID string) (*GroupRemovalResult, error) {
	group, err := s.FindGroup(ctx, actor.ID, fridgeID, groupID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lockKey(fridgeID, group.ID), s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	result := GroupRemovalResult{GroupID: group.ID, Name: group.Name, Requested: group.Quantity, Removed: decimal.Zero}
	for _, constituent := range group.Items {
		var removed RemoveResult
		var skipped bool
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			item, err := tx.GetItemForUpdate(ctx, fridgeID, constituent.ID)
			if errors.Is(err, ErrItemNotFound) {
				skipped = true
				return nil
			}
			if err != nil {
				return err
			}
			removed, err = s.removeFromItem(ctx, tx, item, item.Quantity, SourceGroup, actor)
			return err
		})
		if err != nil {
			s.notifyGroupChange(ctx, fridgeID, result)
			return &result, err
		}
		if skipped {
			continue
		}
		result.Removed = result.Removed.Add(removed.Removed)
		result.Items = append(result.Items, removed)
	}

	s.notifyGroupChange(ctx, fridgeID, result)
	return &result, nil
}

func (s *Service) ListItems(ctx context.Context, userID, fridgeID string) ([]StockItem, error) {
	if err := s.requireMember(ctx, userID, fridgeID); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, fridgeID)
}

func (s *Service) Groups(ctx context.Context, userID, fridgeID string, filter Filter) (*GroupsView, error) {
	if filter == "" {
		filter = FilterAll
	}
	items, err := s.ListItems(ctx, userID, fridgeID)
	if err != nil {
		return nil, err
	}

	groups := Aggregate(items, s.now())
	return &GroupsView{
		Filter: filter,
		Groups: FilterGroups(groups, filter),
		Stats:  ComputeStats(groups),
	}, nil
}

func (s *Service) FindGroup(ctx context.Context, userID, fridgeID, groupID string) (*DisplayGroup, error) {
	items, err := s.ListItems(ctx, userID, fridgeID)
	if err != nil {
		return nil, err
	}
	for _, group := range Aggregate(items, s.now()) {
		if group.ID == groupID {
			return &group, nil
		}
	}
	return nil, ErrGroupNotFound
}

// ListHistory returns the newest entries first.
func (s *Service) ListHistory(ctx context.Context, userID, fridgeID string, limit int) ([]HistoryEntry, error) {
	if err := s.requireMember(ctx, userID, fridgeID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.ListHistory(ctx, fridgeID, limit)
}

func (s *Service) LookupBarcode(ctx context.Context, barcode string) (*BarcodeLookup, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrBarcodeNotFound
	}
	return s.repo.GetBarcode(ctx, barcode)
}

func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) depleteGroup(ctx context.Context, fridgeID string, actor Actor, group DisplayGroup, amount decimal.Decimal) (GroupRemovalResult, error) {
	result := GroupRemovalResult{GroupID: group.ID, Name: group.Name, Requested: amount, Removed: decimal.Zero}

	unlock, err := s.locker.Lock(ctx, lockKey(fridgeID, group.ID), s.lockTTL)
	if err != nil {
		return result, err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	order := append([]Constituent(nil), group.Items...)
	SortForDepletion(order)

	remaining := amount
	for _, constituent := range order {
		if !remaining.IsPositive() {
			break
		}

		var removed RemoveResult
		var skipped bool
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			item, err := tx.GetItemForUpdate(ctx, fridgeID, constituent.ID)
			if errors.Is(err, ErrItemNotFound) {
				skipped = true
				return nil
			}
			if err != nil {
				return err
			}
			if !item.Quantity.IsPositive() {
				skipped = true
				return nil
			}
			removed, err = s.removeFromItem(ctx, tx, item, remaining, SourceGroup, actor)
			return err
		})
		if err != nil {
			return result, err
		}
		if skipped {
			continue
		}

		remaining = remaining.Sub(removed.Removed)
		result.Removed = result.Removed.Add(removed.Removed)
		result.Items = append(result.Items, removed)
	}

	return result, nil
}

// removeFromItem must run inside a transaction on a freshly locked item.
func (s *Service) removeFromItem(ctx context.Context, tx Repository, item *StockItem, amount decimal.Decimal, source Source, actor Actor) (RemoveResult, error) {
	removed := decimal.Min(amount, item.Quantity)
	remaining := item.Quantity.Sub(removed)
	now := s.now()

	result := RemoveResult{ItemID: item.ID, Name: item.Name, Removed: removed, Remaining: remaining}
	// A remainder below the stored scale would round to zero on write.
	if !remaining.Round(QuantityScale).IsPositive() {
		removed = item.Quantity
		result.Removed = removed
		result.Remaining = decimal.Zero
		result.Deleted = true
		if err := tx.DeleteItem(ctx, item.FridgeID, item.ID); err != nil {
			return RemoveResult{}, err
		}
	} else {
		item.Quantity = remaining
		if remaining.LessThanOrEqual(item.LowThreshold) {
			item.Status = StatusLow
		} else if item.Status == "" {
			item.Status = StatusInStock
		}
		item.UpdatedAt = now
		item.UpdatedBy = actor.ID
		if err := tx.UpdateItemQuantity(ctx, item); err != nil {
			return RemoveResult{}, err
		}
	}

	if err := tx.AppendHistory(ctx, newHistory(item, HistoryRemove, removed, source, actor, now)); err != nil {
		return RemoveResult{}, err
	}
	return result, nil
}

func (s *Service) notifyGroupChange(ctx context.Context, fridgeID string, result GroupRemovalResult) {
	if !result.Removed.IsPositive() {
		return
	}
	s.metrics.StockMutated("delete_group", result.Removed.InexactFloat64())
	s.notifier.Notify(ctx, change.ForFridge(fridgeID, change.CollectionStock, change.CollectionHistory)...)
}

func (s *Service) requireMember(ctx context.Context, userID, fridgeID string) error {
	if strings.TrimSpace(fridgeID) == "" {
		return ErrFridgeIDRequired
	}
	ok, err := s.members.IsMember(ctx, userID, fridgeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFridgeMember
	}
	return nil
}

func newHistory(item *StockItem, kind HistoryType, quantity decimal.Decimal, source Source, actor Actor, now time.Time) *HistoryEntry {
	return &HistoryEntry{
		ID:        uuid.NewString(),
		FridgeID:  item.FridgeID,
		StockID:   item.ID,
		Type:      kind,
		Name:      item.Name,
		Quantity:  quantity,
		Unit:      item.Unit,
		Source:    source,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: now,
	}
}

func mergeRequests(requests []GroupRemoval) ([]GroupRemoval, error) {
	if len(requests) == 0 {
		return nil, ErrNothingSelected
	}
	merged := make([]GroupRemoval, 0, len(requests))
	index := make(map[string]int, len(requests))
	for _, request := range requests {
		if strings.TrimSpace(request.GroupID) == "" || !request.Quantity.IsPositive() || !Storable(request.Quantity) {
			return nil, ErrAmountInvalid
		}
		if pos, ok := index[request.GroupID]; ok {
			merged[pos].Quantity = merged[pos].Quantity.Add(request.Quantity)
			continue
		}
		index[request.GroupID] = len(merged)
		merged = append(merged, request)
	}
	return merged, nil
}

func indexGroups(groups []DisplayGroup) map[string]DisplayGroup {
	index := make(map[string]DisplayGroup, len(groups))
	for _, group := range groups {
		index[group.ID] = group
	}
	return index
}

func lockKey(fridgeID, groupID string) string {
	return "inventory:" + fridgeID + ":" + groupID
}
