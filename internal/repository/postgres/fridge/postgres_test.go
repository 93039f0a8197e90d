package fridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"fridge-app-go/internal/domain/errs"
	fridgedomain "fridge-app-go/internal/domain/fridge"
	"fridge-app-go/internal/domain/inventory"
	"fridge-app-go/internal/domain/profile"
	"fridge-app-go/internal/domain/shopping"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupFridgeTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&profile.Profile{},
		&fridgedomain.Fridge{},
		&fridgedomain.InviteCode{},
		&fridgedomain.FridgeMember{},
		&fridgedomain.Membership{},
		&inventory.StockItem{},
		&shopping.Entry{},
	))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()
	require.NoError(t, db.Create(&profile.Profile{UserID: userID, DisplayName: userID}).Error)
}

func TestInviteCodeUniqueness(t *testing.T) {
	db := setupFridgeTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateInviteCode(ctx, &fridgedomain.InviteCode{Code: "ABC234", FridgeID: "f1"}))
	err := repo.CreateInviteCode(ctx, &fridgedomain.InviteCode{Code: "ABC234", FridgeID: "f2"})
	assert.ErrorIs(t, err, fridgedomain.ErrInviteCodeTaken)

	taken, err := repo.IsCodeTaken(ctx, "ABC234")
	require.NoError(t, err)
	assert.True(t, taken)

	fridgeID, err := repo.ResolveInviteCode(ctx, "ABC234")
	require.NoError(t, err)
	assert.Equal(t, "f1", fridgeID)

	_, err = repo.ResolveInviteCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDuplicateMembershipMapsToAlreadyMember(t *testing.T) {
	repo := NewPostgres(setupFridgeTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.AddMember(ctx, &fridgedomain.FridgeMember{FridgeID: "f1", UserID: "u1", Role: fridgedomain.RoleMember, JoinedAt: now}))
	err := repo.AddMember(ctx, &fridgedomain.FridgeMember{FridgeID: "f1", UserID: "u1", Role: fridgedomain.RoleMember, JoinedAt: now})
	assert.ErrorIs(t, err, errs.ErrAlreadyMember)

	require.NoError(t, repo.AddMembership(ctx, &fridgedomain.Membership{UserID: "u1", FridgeID: "f1", Role: fridgedomain.RoleMember, JoinedAt: now}))
	err = repo.AddMembership(ctx, &fridgedomain.Membership{UserID: "u1", FridgeID: "f1", Role: fridgedomain.RoleMember, JoinedAt: now})
	assert.ErrorIs(t, err, errs.ErrAlreadyMember)
}

func TestTransactionRollsBackAndClassifies(t *testing.T) {
	repo := NewPostgres(setupFridgeTestDB(t))
	ctx := context.Background()

	boom := errors.New("disk full")
	err := repo.Transaction(ctx, func(tx fridgedomain.Repository) error {
		if err := tx.CreateFridge(ctx, &fridgedomain.Fridge{ID: "f1", Name: "Home", OwnerID: "u1", InviteCode: "ABC234"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, errs.ErrTransient)

	_, err = repo.GetFridge(ctx, "f1")
	assert.ErrorIs(t, err, fridgedomain.ErrFridgeNotFound)

	err = repo.Transaction(ctx, func(tx fridgedomain.Repository) error {
		return fridgedomain.ErrOwnerMustTransfer
	})
	assert.Equal(t, errs.KindOwnershipTransferRequired, errs.KindOf(err))
	assert.NotErrorIs(t, err, errs.ErrTransient)
}

func TestCurrentFridgePointer(t *testing.T) {
	db := setupFridgeTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()
	seedProfile(t, db, "u1")
	seedProfile(t, db, "u2")

	current, err := repo.GetCurrentFridge(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, current)

	require.NoError(t, repo.SetCurrentFridgeIfEmpty(ctx, "u1", "f1"))
	require.NoError(t, repo.SetCurrentFridgeIfEmpty(ctx, "u1", "f2"))
	current, err = repo.GetCurrentFridge(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "f1", *current)

	require.NoError(t, repo.ClearCurrentFridgeIf(ctx, "u1", "f2"))
	current, _ = repo.GetCurrentFridge(ctx, "u1")
	require.NotNil(t, current)

	f1 := "f1"
	require.NoError(t, repo.SetCurrentFridge(ctx, "u2", &f1))
	require.NoError(t, repo.ClearCurrentFridgeForFridge(ctx, "f1"))
	for _, userID := range []string{"u1", "u2"} {
		current, err = repo.GetCurrentFridge(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, current, userID)
	}

	current, err = repo.GetCurrentFridge(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestMembersWithProfilesAndCascade(t *testing.T) {
	db := setupFridgeTestDB(t)
	repo := NewPostgres(db)
	ctx := context.Background()
	seedProfile(t, db, "owner")
	now := time.Now().UTC()

	require.NoError(t, repo.CreateFridge(ctx, &fridgedomain.Fridge{ID: "f1", Name: "Home", OwnerID: "owner", InviteCode: "ABC234"}))
	require.NoError(t, repo.AddMember(ctx, &fridgedomain.FridgeMember{FridgeID: "f1", UserID: "owner", Role: fridgedomain.RoleOwner, JoinedAt: now}))
	require.NoError(t, repo.AddMember(ctx, &fridgedomain.FridgeMember{FridgeID: "f1", UserID: "ghost", Role: fridgedomain.RoleMember, JoinedAt: now.Add(time.Minute)}))

	members, err := repo.ListMembersWithProfiles(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, fridgedomain.RoleOwner, members[0].Role)
	require.NotNil(t, members[0].DisplayName)
	assert.Equal(t, "owner", *members[0].DisplayName)
	assert.Nil(t, members[1].DisplayName)

	count, err := repo.CountMembers(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, db.Create(&inventory.StockItem{ID: "s1", FridgeID: "f1", Name: "Milk", Quantity: decimal.NewFromInt(1), Unit: "pcs", Status: inventory.StatusInStock, CreatedBy: "owner", UpdatedBy: "owner"}).Error)
	require.NoError(t, db.Create(&shopping.Entry{ID: "e1", FridgeID: "f1", FridgeName: "Home", Name: "Milk", NameLower: "milk", Quantity: decimal.NewFromInt(1), Unit: "pcs", Status: shopping.StatusPending, Source: shopping.SourceFridge, CreatedBy: "owner", CreatedAt: now}).Error)

	require.NoError(t, repo.DeleteStockByFridge(ctx, "f1"))
	require.NoError(t, repo.DeleteShoppingByFridge(ctx, "f1"))
	require.NoError(t, repo.DeleteMembersByFridge(ctx, "f1"))
	require.NoError(t, repo.DeleteFridge(ctx, "f1"))

	var stock, entries int64
	db.Model(&inventory.StockItem{}).Count(&stock)
	db.Model(&shopping.Entry{}).Count(&entries)
	assert.Zero(t, stock)
	assert.Zero(t, entries)
	assert.ErrorIs(t, repo.UpdateFridgeName(ctx, "f1", "Gone"), fridgedomain.ErrFridgeNotFound)
}

func TestServiceFlowsAgainstStore(t *testing.T) {
	db := setupFridgeTestDB(t)
	repo := NewPostgres(db)
	svc := fridgedomain.NewService(repo)
	ctx := context.Background()
	seedProfile(t, db, "owner")
	seedProfile(t, db, "guest")

	created, err := svc.CreateFridge(ctx, "owner", "Shared")
	require.NoError(t, err)

	joined, err := svc.Join(ctx, "guest", " "+created.InviteCode+" ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, joined.ID)

	current, err := repo.GetCurrentFridge(ctx, "guest")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, created.ID, *current)

	_, err = svc.Join(ctx, "guest", created.InviteCode)
	assert.ErrorIs(t, err, errs.ErrAlreadyMember)

	err = svc.Leave(ctx, "owner", created.ID)
	assert.ErrorIs(t, err, errs.ErrOwnershipTransferRequired)

	require.NoError(t, svc.Leave(ctx, "guest", created.ID))
	require.NoError(t, svc.Leave(ctx, "owner", created.ID))

	_, err = repo.GetFridge(ctx, created.ID)
	assert.ErrorIs(t, err, fridgedomain.ErrFridgeNotFound)
	var rows int64
	db.Model(&fridgedomain.Membership{}).Count(&rows)
	assert.Zero(t, rows)
	db.Model(&fridgedomain.FridgeMember{}).Count(&rows)
	assert.Zero(t, rows)
	db.Model(&fridgedomain.InviteCode{}).Count(&rows)
	assert.Zero(t, rows)
}
