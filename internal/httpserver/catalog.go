package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lmstore/backend/internal/models"
	"github.com/lmstore/backend/internal/mykafka"
	"github.com/lmstore/backend/internal/search"
	"github.com/lmstore/backend/internal/service"
	"github.com/lmstore/backend/internal/transport"
	"github.com/lmstore/backend/internal/util"
)

type CatalogHandler struct {
	Catalog  *service.CatalogService
	Search   *search.Client
	Producer *mykafka.Producer
}

func (h *CatalogHandler) publish(c echo.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *CatalogHandler) listProducts(c echo.Context, archived bool) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	list := h.Catalog.ListActive
	if archived {
		list = h.Catalog.ListArchived
	}
	total, items, err := list(c.Request().Context(), offset, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": transport.PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *CatalogHandler) GetProducts(c echo.Context) error {
	return h.listProducts(c, false)
}

func (h *CatalogHandler) GetArchivedProducts(c echo.Context) error {
	return h.listProducts(c, true)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.Catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) SearchProducts(c echo.Context) error {
	if h.Search == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, products, err := h.Search.Search(c.Request().Context(), q, from, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	}
	if err := h.Catalog.Create(c.Request().Context(), &product); err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(product.ID), map[string]any{
		"type":       "product_created",
		"product_id": product.ID,
		"name":       product.Name,
	})

	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) PatchProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var patch service.PatchProduct
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := h.Catalog.Patch(c.Request().Context(), id, patch)
	if err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(product.ID), map[string]any{
		"type":       "product_updated",
		"product_id": product.ID,
		"name":       product.Name,
	})

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeactivateProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Catalog.Deactivate(c.Request().Context(), id); err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(id), map[string]any{
		"type":       "product_deactivated",
		"product_id": id,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("deactivated product #%d", id)})
}

func (h *CatalogHandler) RestoreProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Catalog.Restore(c.Request().Context(), id); err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(id), map[string]any{
		"type":       "product_restored",
		"product_id": id,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("restored product #%d", id)})
}

func (h *CatalogHandler) UpdateStock(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req transport.UpdateStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.Catalog.UpdateStock(c.Request().Context(), id, req.Stock); err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(id), map[string]any{
		"type":       "product_stock_updated",
		"product_id": id,
		"stock":      req.Stock,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("updated stock for product #%d", id)})
}
