package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lmstore/backend/internal/mykafka"
	"github.com/lmstore/backend/internal/service"
)

type OrderHandler struct {
	Order    *service.OrderService
	Producer *mykafka.Producer
}

func (h *OrderHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "order_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	user := CurrentUser(c)

	receipt, err := h.Order.PlaceOrder(c.Request().Context(), user.ID)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]any{
		"type":     "order_created",
		"user_id":  user.ID,
		"order_id": receipt.OrderID,
		"total":    receipt.Total,
	})

	return c.JSON(http.StatusOK, receipt)
}

func (h *OrderHandler) History(c echo.Context) error {
	user := CurrentUser(c)

	orders, err := h.Order.OrderHistory(c.Request().Context(), user.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Activity is the admin feed of all orders with their owners, newest first.
func (h *OrderHandler) Activity(c echo.Context) error {
	rows, err := h.Order.Activity(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rows)
}
