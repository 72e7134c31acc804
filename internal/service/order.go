package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/lmstore/backend/internal/logging"
	"github.com/lmstore/backend/internal/models"
	"github.com/lmstore/backend/internal/repo"
)

type OrderService struct {
	Repo *repo.GormRepo
}

type OrderReceipt struct {
	OrderID uint               `json:"order_id"`
	Total   float64            `json:"total"`
	Status  string             `json:"status"`
	Items   []models.OrderItem `json:"items"`
}

// PlaceOrder converts the user's cart into an order in one transaction:
// snapshot cart × product stock/price, verify stock, insert the order and
// its items with the price at purchase, decrement stock, clear the cart.
// Any failure rolls back the whole transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint) (*OrderReceipt, error) {
	l := logging.FromContext(ctx).With("svc", "order.place", "user_id", userID)

	var receipt OrderReceipt
	err := s.Repo.Transaction(ctx, func(tx *gorm.DB) error {
		lines, err := s.Repo.CheckoutLines(tx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		// Stock check against the snapshot taken in this transaction,
		// before any mutation.
		for _, line := range lines {
			if line.Stock < line.Quantity {
				return &StockError{
					ProductName: line.Name,
					Available:   line.Stock,
					Checkout:    true,
				}
			}
		}

		var total float64
		for _, line := range lines {
			total += line.Price * float64(line.Quantity)
		}

		order := models.Order{
			UserID:      userID,
			TotalAmount: total,
			Status:      "pending",
		}
		if err := s.Repo.CreateOrder(tx, &order); err != nil {
			return fmt.Errorf("%w: create order: %v", ErrStorage, err)
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			item := models.OrderItem{
				OrderID:         order.ID,
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: line.Price,
			}
			if err := s.Repo.CreateOrderItem(tx, &item); err != nil {
				return fmt.Errorf("%w: create order item: %v", ErrStorage, err)
			}
			items = append(items, item)

			ok, err := s.Repo.DecrementStock(tx, line.ProductID, line.Quantity)
			if err != nil {
				return fmt.Errorf("%w: decrement stock: %v", ErrStorage, err)
			}
			if !ok {
				// A concurrent checkout took the stock between snapshot
				// and decrement; roll everything back.
				return &StockError{
					ProductName: line.Name,
					Available:   line.Stock,
					Checkout:    true,
				}
			}
		}

		if err := s.Repo.ClearCart(tx, userID); err != nil {
			return fmt.Errorf("%w: clear cart: %v", ErrStorage, err)
		}

		receipt = OrderReceipt{
			OrderID: order.ID,
			Total:   order.TotalAmount,
			Status:  order.Status,
			Items:   items,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Info("order placed", "order_id", receipt.OrderID, "total", receipt.Total)
	return &receipt, nil
}

// OrderHistory lists the user's orders, newest first.
func (s *OrderService) OrderHistory(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, userID)
}

func (s *OrderService) OrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	return s.Repo.ListOrderItems(ctx, orderID)
}

// Activity is the admin feed of all orders joined with their owners.
func (s *OrderService) Activity(ctx context.Context) ([]repo.OrderActivity, error) {
	return s.Repo.ListOrderActivity(ctx)
}
