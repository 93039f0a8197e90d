package fridge

import (
	"context"
	"errors"
	"time"

	"fridge-app-go/internal/domain/errs"
	fridgedomain "fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/inventory"
	"fridge-app-go/internal/domain/profile"
	"fridge-app-go/internal/domain/shopping"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(fridgedomain.Repository) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
	return errs.Classify(err)
}

func (r *PostgresRepository) GetFridge(ctx context.Context, fridgeID string) (*fridgedomain.Fridge, error) {
	var fridge fridgedomain.Fridge
	if err := r.db.WithContext(ctx).Where("id = ?", fridgeID).First(&fridge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fridgedomain.ErrFridgeNotFound
		}
		return nil, err
	}
	return &fridge, nil
}

func (r *PostgresRepository) ListFridgesByIDs(ctx context.Context, fridgeIDs []string) ([]fridgedomain.Fridge, error) {
	var fridges []fridgedomain.Fridge
	if len(fridgeIDs) == 0 {
		return fridges, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", fridgeIDs).Find(&fridges).Error; err != nil {
		return nil, err
	}
	return fridges, nil
}

func (r *PostgresRepository) CreateFridge(ctx context.Context, fridge *fridgedomain.Fridge) error {
	err := r.db.WithContext(ctx).Create(fridge).Error
	if isUniqueViolation(err) {
		return fridgedomain.ErrInviteCodeTaken
	}
	return err
}

func (r *PostgresRepository) UpdateFridgeName(ctx context.Context, fridgeID, name string) error {
	return r.updateFridge(ctx, fridgeID, "name", name)
}

func (r *PostgresRepository) UpdateFridgeOwner(ctx context.Context, fridgeID, ownerID string) error {
	return r.updateFridge(ctx, fridgeID, "owner_id", ownerID)
}

func (r *PostgresRepository) DeleteFridge(ctx context.Context, fridgeID string) error {
	return r.db.WithContext(ctx).Delete(&fridgedomain.Fridge{}, "id = ?", fridgeID).Error
}

func (r *PostgresRepository) ResolveInviteCode(ctx context.Context, code string) (string, error) {
	var invite fridgedomain.InviteCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fridgedomain.ErrInviteCodeNotFound
		}
		return "", err
	}
	return invite.FridgeID, nil
}

func (r *PostgresRepository) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&fridgedomain.InviteCode{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) CreateInviteCode(ctx context.Context, code *fridgedomain.InviteCode) error {
	err := r.db.WithContext(ctx).Create(code).Error
	if isUniqueViolation(err) {
		return fridgedomain.ErrInviteCodeTaken
	}
	return err
}

func (r *PostgresRepository) DeleteInviteCodes(ctx context.Context, fridgeID string) error {
	return r.db.WithContext(ctx).Delete(&fridgedomain.InviteCode{}, "fridge_id = ?", fridgeID).Error
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *fridgedomain.FridgeMember) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if isUniqueViolation(err) {
		return fridgedomain.ErrAlreadyMember
	}
	return err
}

func (r *PostgresRepository) GetMember(ctx context.Context, fridgeID, userID string) (*fridgedomain.FridgeMember, error) {
	var member fridgedomain.FridgeMember
	if err := r.db.WithContext(ctx).Where("fridge_id = ? AND user_id = ?", fridgeID, userID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fridgedomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, fridgeID string) ([]fridgedomain.FridgeMember, error) {
	var members []fridgedomain.FridgeMember
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ?", fridgeID).
		Order("joined_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) ListMembersByUser(ctx context.Context, userID string) ([]fridgedomain.FridgeMember, error) {
	var members []fridgedomain.FridgeMember
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) ListMembersWithProfiles(ctx context.Context, fridgeID string) ([]fridgedomain.MemberProfile, error) {
	type memberRow struct {
		UserID      string    `gorm:"column:user_id"`
		Role        string    `gorm:"column:role"`
		JoinedAt    time.Time `gorm:"column:joined_at"`
		DisplayName *string   `gorm:"column:display_name"`
		Email       *string   `gorm:"column:email"`
	}

	var rows []memberRow
	if err := r.db.WithContext(ctx).
		Table("fridge_members").
		Select("fridge_members.user_id, fridge_members.role, fridge_members.joined_at, user_profiles.display_name, user_profiles.email").
		Joins("left join user_profiles on user_profiles.user_id = fridge_members.user_id").
		Where("fridge_members.fridge_id = ?", fridgeID).
		Order("fridge_members.joined_at asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]fridgedomain.MemberProfile, 0, len(rows))
	for _, row := range rows {
		members = append(members, fridgedomain.MemberProfile{
			UserID:      row.UserID,
			Role:        fridgedomain.Role(row.Role),
			JoinedAt:    row.JoinedAt,
			DisplayName: row.DisplayName,
			Email:       row.Email,
		})
	}
	return members, nil
}

func (r *PostgresRepository) CountMembers(ctx context.Context, fridgeID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&fridgedomain.FridgeMember{}).Where("fridge_id = ?", fridgeID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) UpdateMemberRole(ctx context.Context, fridgeID, userID string, role fridgedomain.Role) error {
	return r.db.WithContext(ctx).Model(&fridgedomain.FridgeMember{}).
		Where("fridge_id = ? AND user_id = ?", fridgeID, userID).
		Update("role", role).Error
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, fridgeID, userID string) error {
	return r.db.WithContext(ctx).Delete(&fridgedomain.FridgeMember{}, "fridge_id = ? AND user_id = ?", fridgeID, userID).Error
}

func (r *PostgresRepository) DeleteMembersByFridge(ctx context.Context, fridgeID string) error {
	return r.db.WithContext(ctx).Delete(&fridgedomain.FridgeMember{}, "fridge_id = ?", fridgeID).Error
}

func (r *PostgresRepository) AddMembership(ctx context.Context, membership *fridgedomain.Membership) error {
	err := r.db.WithContext(ctx).Create(membership).Error
	if isUniqueViolation(err) {
		return fridgedomain.ErrAlreadyMember
	}
	return err
}

func (r *PostgresRepository) GetMembership(ctx context.Context, userID, fridgeID string) (*fridgedomain.Membership, error) {
	var membership fridgedomain.Membership
	if err := r.db.WithContext(ctx).Where("user_id = ? AND fridge_id = ?", userID, fridgeID).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fridgedomain.ErrMembershipNotFound
		}
		return nil, err
	}
	return &membership, nil
}

func (r *PostgresRepository) ListMemberships(ctx context.Context, userID string) ([]fridgedomain.Membership, error) {
	var memberships []fridgedomain.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at asc").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *PostgresRepository) ListMembershipsByFridge(ctx context.Context, fridgeID string) ([]fridgedomain.Membership, error) {
	var memberships []fridgedomain.Membership
	if err := r.db.WithContext(ctx).
		Where("fridge_id = ?", fridgeID).
		Order("joined_at asc").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *PostgresRepository) UpdateMembershipRole(ctx context.Context, userID, fridgeID string, role fridgedomain.Role) error {
	return r.db.WithContext(ctx).Model(&fridgedomain.Membership{}).
		Where("user_id = ? AND fridge_id = ?", userID, fridgeID).
		Update("role", role).Error
}

func (r *PostgresRepository) DeleteMembership(ctx context.Context, userID, fridgeID string) error {
	return r.db.WithContext(ctx).Delete(&fridgedomain.Membership{}, "user_id = ? AND fridge_id = ?", userID, fridgeID).Error
}

func (r *PostgresRepository) DeleteMembershipsByFridge(ctx context.Context, fridgeID string) error {
	return r.db.WithContext(ctx).Delete(&fridgedomain.Membership{}, "fridge_id = ?", fridgeID).Error
}

func (r *PostgresRepository) GetCurrentFridge(ctx context.Context, userID string) (*string, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Select("current_fridge_id").Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.CurrentFridgeID, nil
}

func (r *PostgresRepository) SetCurrentFridge(ctx context.Context, userID string, fridgeID *string) error {
	return r.db.WithContext(ctx).Model(&profile.Profile{}).
		Where("user_id = ?", userID).
		Updates(currentFridgeUpdate(fridgeID)).Error
}

func (r *PostgresRepository) SetCurrentFridgeIfEmpty(ctx context.Context, userID, fridgeID string) error {
	return r.db.WithContext(ctx).Model(&profile.Profile{}).
		Where("user_id = ? AND current_fridge_id IS NULL", userID).
		Updates(currentFridgeUpdate(&fridgeID)).Error
}

func (r *PostgresRepository) ClearCurrentFridgeIf(ctx context.Context, userID, fridgeID string) error {
	return r.db.WithContext(ctx).Model(&profile.Profile{}).
		Where("user_id = ? AND current_fridge_id = ?", userID, fridgeID).
		Updates(currentFridgeUpdate(nil)).Error
}

func (r *PostgresRepository) ClearCurrentFridgeForFridge(ctx context.Context, fridgeID string) error {
	return r.db.WithContext(ctx).Model(&profile.Profile{}).
		Where("current_fridge_id = ?", fridgeID).
		Updates(currentFridgeUpdate(nil)).Error
}

func (r *PostgresRepository) DeleteStockByFridge(ctx context.Context, fridgeID string) error {
	return r.db.WithContext(ctx).Delete(&inventory.StockItem{}, "fridge_id = ?", fridgeID).Error
}

func (r *PostgresRepository) DeleteShoppingByFridge(ctx context.Context, fridgeID string) error {
	return r.db.WithContext(ctx).Delete(&shopping.Entry{}, "fridge_id = ?", fridgeID).Error
}

func (r *PostgresRepository) updateFridge(ctx context.Context, fridgeID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&fridgedomain.Fridge{}).
		Where("id = ?", fridgeID).
		Updates(map[string]interface{}{
			column:       value,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fridgedomain.ErrFridgeNotFound
	}
	return nil
}

func currentFridgeUpdate(fridgeID *string) map[string]interface{} {
	return map[string]interface{}{
		"current_fridge_id": fridgeID,
		"updated_at":        time.Now().UTC(),
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
