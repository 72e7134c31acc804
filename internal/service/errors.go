package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrNotFound     = errors.New("not found")    // 404
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrCartEmpty    = errors.New("cart is empty")
	ErrStorage      = errors.New("storage")
)

// StockError reports a quantity that cannot be satisfied by current stock.
// Checkout marks the order-placement variant, which does not involve a held
// cart amount in its message.
type StockError struct {
	ProductName string
	Available   int
	InCart      int
	Checkout    bool
}

func (e *StockError) Error() string {
	if e.Checkout {
		return fmt.Sprintf("not enough stock for %s. Available: %d", e.ProductName, e.Available)
	}
	return fmt.Sprintf("only %d of %q available in stock, you already have %d in cart", e.Available, e.ProductName, e.InCart)
}
