package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lmstore/backend/internal/models"
)

// CheckoutLine is the consistent snapshot the order transaction works from:
// one cart row joined with the product's live price, stock and name.
type CheckoutLine struct {
	ProductID uint
	Quantity  int
	Price     float64
	Stock     int
	Name      string
}

// CheckoutLines reads the user's cart joined with product stock and price
// inside tx. On postgres the matched product rows are locked for the rest of
// the transaction, so the stock check and the later decrement see the same
// state even under concurrent checkouts.
func (r *GormRepo) CheckoutLines(tx *gorm.DB, userID uint) ([]CheckoutLine, error) {
	var lines []CheckoutLine
	err := lockForUpdate(tx).
		Model(&models.CartItem{}).
		Select("cart_items.product_id, cart_items.quantity, products.price, products.stock, products.name").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.product_id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) CreateOrder(tx *gorm.DB, order *models.Order) error {
	return tx.Create(order).Error
}

func (r *GormRepo) CreateOrderItem(tx *gorm.DB, item *models.OrderItem) error {
	return tx.Create(item).Error
}

// DecrementStock subtracts qty from the product's stock only while enough
// remains. Returns false when the guard failed, which means a concurrent
// transaction took the stock first.
func (r *GormRepo) DecrementStock(tx *gorm.DB, productID uint, qty int) (bool, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// OrderActivity is one row of the admin activity feed.
type OrderActivity struct {
	Username    string    `json:"username"`
	OrderID     uint      `json:"order_id"`
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *GormRepo) ListOrderActivity(ctx context.Context) ([]OrderActivity, error) {
	var rows []OrderActivity
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Select("users.username, orders.id AS order_id, orders.total_amount, orders.created_at").
		Joins("JOIN users ON users.id = orders.user_id").
		Order("orders.created_at DESC, orders.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
