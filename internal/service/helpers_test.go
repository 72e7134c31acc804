package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lmstore/backend/internal/hash"
	"github.com/lmstore/backend/internal/models"
	"github.com/lmstore/backend/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "open in-memory db")

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	), "migrate tables")

	return repo.New(db)
}

func createTestUser(t *testing.T, r *repo.GormRepo, username, role string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword("Password1")
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(t, r.DB.Create(&user).Error)
	return &user
}

func createTestProduct(t *testing.T, r *repo.GormRepo, name string, price float64, stock int) *models.Product {
	t.Helper()

	product := models.Product{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Stock:       stock,
		IsActive:    true,
	}
	require.NoError(t, r.DB.Create(&product).Error)
	return &product
}
