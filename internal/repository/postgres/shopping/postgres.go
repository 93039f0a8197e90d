package shopping

import (
	"context"
	"errors"

	"fridge-app-go/internal/domain/errs"
	"fridge-app-go/internal/domain/inventory"
	domain "fridge-app-go/internal/domain/shopping"
	"gorm.io/gorm"
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

func (r *PostgresRepository) CreateEntries(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *PostgresRepository) GetEntry(ctx context.Context, fridgeID, entryID string) (*domain.Entry, error) {
	var entry domain.Entry
	if err := r.db.WithContext(ctx).
		Where("id = ? AND fridge_id = ? AND status = ?", entryID, fridgeID, domain.StatusPending).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *PostgresRepository) ListPendingEntries(ctx context.Context, fridgeID string) ([]domain.Entry, error) {
	var entries []domain.Entry
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ? AND status = ?", fridgeID, domain.StatusPending).
		Order("created_at desc, id desc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresRepository) UpdateEntry(ctx context.Context, entry *domain.Entry) error {
	result := r.db.WithContext(ctx).Model(&domain.Entry{}).
		Where("id = ? AND fridge_id = ?", entry.ID, entry.FridgeID).
		Updates(map[string]interface{}{
			"quantity":           entry.Quantity,
			"target_expire_date": entry.TargetExpireDate,
			"updated_at":         entry.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteEntry(ctx context.Context, fridgeID, entryID string) error {
	return r.db.WithContext(ctx).Delete(&domain.Entry{}, "id = ? AND fridge_id = ?", entryID, fridgeID).Error
}

func (r *PostgresRepository) CreateStockItem(ctx context.Context, item *inventory.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *PostgresRepository) AppendHistory(ctx context.Context, entry *inventory.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
