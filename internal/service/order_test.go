package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmstore/backend/internal/models"
)

func TestPlaceOrderSuccess(t *testing.T) {
	r := newTestRepo(t)
	cart := &CartService{Repo: r}
	orders := &OrderService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "alice", "user")
	product := createTestProduct(t, r, "widget", 10, 5)

	_, err := cart.AddToCart(ctx, user.ID, product.ID, 5)
	require.NoError(t, err)

	receipt, err := orders.PlaceOrder(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(50), receipt.Total)
	assert.Equal(t, "pending", receipt.Status)
	require.Len(t, receipt.Items, 1)
	assert.Equal(t, 5, receipt.Items[0].Quantity)
	assert.Equal(t, float64(10), receipt.Items[0].PriceAtPurchase)

	// Stock fully consumed.
	var p models.Product
	require.NoError(t, r.DB.First(&p, product.ID).Error)
	assert.Equal(t, 0, p.Stock)

	// Cart cleared.
	lines, err := cart.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestPlaceOrderMultipleProducts(t *testing.T) {
	r := newTestRepo(t)
	cart := &CartService{Repo: r}
	orders := &OrderService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "alice", "user")
	widget := createTestProduct(t, r, "widget", 10, 10)
	gadget := createTestProduct(t, r, "gadget", 2.5, 4)

	_, err := cart.AddToCart(ctx, user.ID, widget.ID, 3)
	require.NoError(t, err)
	_, err = cart.AddToCart(ctx, user.ID, gadget.ID, 4)
	require.NoError(t, err)

	receipt, err := orders.PlaceOrder(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(40), receipt.Total)
	assert.Len(t, receipt.Items, 2)

	var w, g models.Product
	require.NoError(t, r.DB.First(&w, widget.ID).Error)
	require.NoError(t, r.DB.First(&g, gadget.ID).Error)
	assert.Equal(t, 7, w.Stock)
	assert.Equal(t, 0, g.Stock)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	r := newTestRepo(t)
	orders := &OrderService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "alice", "user")
	product := createTestProduct(t, r, "widget", 10, 3)

	// Seed a cart line above stock directly; the cart gate would refuse it.
	require.NoError(t, r.DB.Create(&models.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Quantity:  5,
	}).Error)

	_, err := orders.PlaceOrder(ctx, user.ID)
	require.Error(t, err)

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "widget", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Available)
	assert.Contains(t, err.Error(), "Available: 3")

	// Nothing changed: stock, cart, no order rows.
	var p models.Product
	require.NoError(t, r.DB.First(&p, product.ID).Error)
	assert.Equal(t, 3, p.Stock)

	var cartCount, orderCount, itemCount int64
	require.NoError(t, r.DB.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&cartCount).Error)
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, r.DB.Model(&models.OrderItem{}).Count(&itemCount).Error)
	assert.Equal(t, int64(1), cartCount)
	assert.Equal(t, int64(0), orderCount)
	assert.Equal(t, int64(0), itemCount)
}

func TestPlaceOrderPartialStockFailureRollsBack(t *testing.T) {
	r := newTestRepo(t)
	cart := &CartService{Repo: r}
	orders := &OrderService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "alice", "user")
	widget := createTestProduct(t, r, "widget", 10, 10)
	gadget := createTestProduct(t, r, "gadget", 5, 2)

	_, err := cart.AddToCart(ctx, user.ID, widget.ID, 2)
	require.NoError(t, err)
	require.NoError(t, r.DB.Create(&models.CartItem{
		UserID:    user.ID,
		ProductID: gadget.ID,
		Quantity:  3,
	}).Error)

	_, err = orders.PlaceOrder(ctx, user.ID)
	require.Error(t, err)

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "gadget", stockErr.ProductName)

	// The passing line's stock must not have been touched.
	var w models.Product
	require.NoError(t, r.DB.First(&w, widget.ID).Error)
	assert.Equal(t, 10, w.Stock)

	var orderCount int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	r := newTestRepo(t)
	orders := &OrderService{Repo: r}

	user := createTestUser(t, r, "alice", "user")

	_, err := orders.PlaceOrder(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestPriceSnapshotImmutable(t *testing.T) {
	r := newTestRepo(t)
	cart := &CartService{Repo: r}
	orders := &OrderService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "alice", "user")
	product := createTestProduct(t, r, "widget", 10, 5)

	_, err := cart.AddToCart(ctx, user.ID, product.ID, 2)
	require.NoError(t, err)

	receipt, err := orders.PlaceOrder(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(20), receipt.Total)

	// Repricing the catalog must not rewrite history.
	require.NoError(t, r.DB.Model(&models.Product{}).Where("id = ?", product.ID).Update("price", 99).Error)

	var order models.Order
	require.NoError(t, r.DB.First(&order, receipt.OrderID).Error)
	assert.Equal(t, float64(20), order.TotalAmount)

	items, err := orders.OrderItems(ctx, receipt.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, float64(10), items[0].PriceAtPurchase)
}

func TestStockConservationSequentialOrders(t *testing.T) {
	r := newTestRepo(t)
	cart := &CartService{Repo: r}
	orders := &OrderService{Repo: r}
	ctx := context.Background()

	product := createTestProduct(t, r, "widget", 1, 5)
	alice := createTestUser(t, r, "alice", "user")
	bob := createTestUser(t, r, "bob", "user")

	_, err := cart.AddToCart(ctx, alice.ID, product.ID, 3)
	require.NoError(t, err)
	_, err = cart.AddToCart(ctx, bob.ID, product.ID, 3)
	require.NoError(t, err)

	_, err = orders.PlaceOrder(ctx, alice.ID)
	require.NoError(t, err)

	// Bob's cart passed its own gate when stock was 5, but only 2 remain.
	_, err = orders.PlaceOrder(ctx, bob.ID)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)

	var p models.Product
	require.NoError(t, r.DB.First(&p, product.ID).Error)
	assert.Equal(t, 2, p.Stock)
}

func TestOrderHistoryNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	cart := &CartService{Repo: r}
	orders := &OrderService{Repo: r}
	ctx := context.Background()

	user := createTestUser(t, r, "alice", "user")
	product := createTestProduct(t, r, "widget", 10, 10)

	_, err := cart.AddToCart(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)
	first, err := orders.PlaceOrder(ctx, user.ID)
	require.NoError(t, err)

	_, err = cart.AddToCart(ctx, user.ID, product.ID, 2)
	require.NoError(t, err)
	second, err := orders.PlaceOrder(ctx, user.ID)
	require.NoError(t, err)

	history, err := orders.OrderHistory(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.OrderID, history[0].ID)
	assert.Equal(t, first.OrderID, history[1].ID)
}

func TestActivityListsAllOrders(t *testing.T) {
	r := newTestRepo(t)
	cart := &CartService{Repo: r}
	orders := &OrderService{Repo: r}
	ctx := context.Background()

	product := createTestProduct(t, r, "widget", 10, 10)
	alice := createTestUser(t, r, "alice", "user")
	bob := createTestUser(t, r, "bob", "user")

	_, err := cart.AddToCart(ctx, alice.ID, product.ID, 1)
	require.NoError(t, err)
	_, err = orders.PlaceOrder(ctx, alice.ID)
	require.NoError(t, err)

	_, err = cart.AddToCart(ctx, bob.ID, product.ID, 2)
	require.NoError(t, err)
	_, err = orders.PlaceOrder(ctx, bob.ID)
	require.NoError(t, err)

	activity, err := orders.Activity(ctx)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, "bob", activity[0].Username)
	assert.Equal(t, float64(20), activity[0].TotalAmount)
	assert.Equal(t, "alice", activity[1].Username)
}
