package inventory

import (
	"context"
	"errors"
	"time"

	"fridge-app-go/internal/domain/errs"
	domain "fridge-app-go/internal/domain/inventory"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
	return errs.Classify(err)
}

func (r *PostgresRepository) CreateItem(ctx context.Context, item *domain.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *PostgresRepository) GetItemForUpdate(ctx context.Context, fridgeID, itemID string) (*domain.StockItem, error) {
	return r.getItem(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), fridgeID, itemID)
}

func (r *PostgresRepository) ListItems(ctx context.Context, fridgeID string) ([]domain.StockItem, error) {
	var items []domain.StockItem
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ?", fridgeID).
		Order("created_at asc, id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) UpdateItemQuantity(ctx context.Context, item *domain.StockItem) error {
	result := r.db.WithContext(ctx).Model(&domain.StockItem{}).
		Where("id = ? AND fridge_id = ?", item.ID, item.FridgeID).
		Updates(map[string]interface{}{
			"quantity":   item.Quantity,
			"status":     item.Status,
			"updated_by": item.UpdatedBy,
			"updated_at": item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, fridgeID, itemID string) error {
	return r.db.WithContext(ctx).Delete(&domain.StockItem{}, "id = ? AND fridge_id = ?", itemID, fridgeID).Error
}

func (r *PostgresRepository) AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *PostgresRepository) ListHistory(ctx context.Context, fridgeID string, limit int) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ?", fridgeID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresRepository) UpsertBarcode(ctx context.Context, lookup *domain.BarcodeLookup) error {
	lookup.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "barcode"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "unit", "updated_at"}),
		}).
		Create(lookup).Error
}

func (r *PostgresRepository) GetBarcode(ctx context.Context, barcode string) (*domain.BarcodeLookup, error) {
	var lookup domain.BarcodeLookup
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&lookup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBarcodeNotFound
		}
		return nil, err
	}
	return &lookup, nil
}

func (r *PostgresRepository) getItem(db *gorm.DB, fridgeID, itemID string) (*domain.StockItem, error) {
	var item domain.StockItem
	if err := db.Where("id = ? AND fridge_id = ?", itemID, fridgeID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}
