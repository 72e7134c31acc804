package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lmstore/backend/internal/models"
	"github.com/lmstore/backend/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetCart(ctx context.Context, userID uint) ([]repo.CartLine, error) {
	return s.Repo.GetCartLines(ctx, userID)
}

// AddToCart adds qty units of a product to the user's cart. The held+requested
// total is checked against live stock, and the write is an atomic upsert on
// the (user, product) unique key.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	var item *models.CartItem
	err := s.Repo.Transaction(ctx, func(tx *gorm.DB) error {
		product, err := s.Repo.ProductForUpdate(tx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product not found", ErrNotFound)
			}
			return err
		}

		held, err := s.Repo.CartQuantity(tx, userID, productID)
		if err != nil {
			return err
		}

		if held+qty > product.Stock {
			return &StockError{
				ProductName: product.Name,
				Available:   product.Stock,
				InCart:      held,
			}
		}

		item, err = s.Repo.UpsertCartItem(tx, userID, productID, qty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveFromCart deletes the cart line if present; removing an absent line
// is a no-op.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID uint) error {
	return s.Repo.DeleteCartItem(ctx, userID, productID)
}
