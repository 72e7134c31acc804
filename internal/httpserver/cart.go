package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lmstore/backend/internal/mykafka"
	"github.com/lmstore/backend/internal/service"
	"github.com/lmstore/backend/internal/transport"
)

type CartHandler struct {
	Cart     *service.CartService
	Producer *mykafka.Producer
}

func (h *CartHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	user := CurrentUser(c)

	lines, err := h.Cart.GetCart(c.Request().Context(), user.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	user := CurrentUser(c)

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.Cart.AddToCart(c.Request().Context(), user.ID, req.ProductID, req.Quantity)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":       "cart_item_added",
		"user_id":    user.ID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	user := CurrentUser(c)

	productID, err := strconv.Atoi(c.Param("product_id"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := h.Cart.RemoveFromCart(c.Request().Context(), user.ID, uint(productID)); err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":       "cart_item_removed",
		"user_id":    user.ID,
		"product_id": productID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "removed from cart"})
}
