package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lmstore/backend/internal/models"
)

// CartLine is a cart row joined with live product data. Price, name and
// image reflect the current catalog, not a snapshot.
type CartLine struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	Quantity  int     `json:"quantity"`
}

func (r *GormRepo) GetCartLines(ctx context.Context, userID uint) ([]CartLine, error) {
	var lines []CartLine
	err := r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("products.id AS product_id, products.name, products.price, products.image_url, cart_items.quantity").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("products.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) ProductForUpdate(tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := lockForUpdate(tx).First(&product, productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CartQuantity reports how many units of a product the user already holds.
// Zero when no line exists.
func (r *GormRepo) CartQuantity(tx *gorm.DB, userID, productID uint) (int, error) {
	var item models.CartItem
	err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return item.Quantity, nil
}

// UpsertCartItem adds qty on the (user_id, product_id) unique key. The
// conflict clause makes concurrent adds additive instead of lost updates.
func (r *GormRepo) UpsertCartItem(tx *gorm.DB, userID, productID uint, qty int) (*models.CartItem, error) {
	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", qty),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, err
	}

	if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, productID uint) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

func (r *GormRepo) ClearCart(tx *gorm.DB, userID uint) error {
	return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
