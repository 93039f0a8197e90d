package profile

import (
	"context"
	"testing"

	domain "fridge-app-go/internal/domain/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupProfileTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Profile{}))
	return db
}

func TestCreateIfMissing(t *testing.T) {
	repo := NewPostgres(setupProfileTestDB(t))
	ctx := context.Background()

	email := "ann@example.com"
	stored, created, err := repo.CreateIfMissing(ctx, &domain.Profile{UserID: "u1", DisplayName: "ann", Email: &email})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ann", stored.DisplayName)

	stored, created, err = repo.CreateIfMissing(ctx, &domain.Profile{UserID: "u1", DisplayName: "someone else"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "ann", stored.DisplayName)
	require.NotNil(t, stored.Email)
	assert.Equal(t, email, *stored.Email)
}

func TestUpdateDisplayName(t *testing.T) {
	repo := NewPostgres(setupProfileTestDB(t))
	ctx := context.Background()

	_, _, err := repo.CreateIfMissing(ctx, &domain.Profile{UserID: "u1", DisplayName: "ann"})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateDisplayName(ctx, "u1", "Ann B"))
	stored, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann B", stored.DisplayName)

	assert.ErrorIs(t, repo.UpdateDisplayName(ctx, "missing", "x"), domain.ErrProfileNotFound)
	_, err = repo.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
