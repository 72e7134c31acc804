package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler    *AuthHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	CatalogHandler *CatalogHandler
	AuthMW         *AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/refresh", d.AuthHandler.Refresh)
	v1.POST("/logout", d.AuthHandler.Logout)

	products := v1.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	v1.GET("/search", d.CatalogHandler.SearchProducts)

	cart := v1.Group("/cart", d.AuthMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("/:product_id", d.CartHandler.RemoveFromCart)

	v1.POST("/checkout", d.OrderHandler.Checkout, d.AuthMW.RequireAuth)
	v1.GET("/orders", d.OrderHandler.History, d.AuthMW.RequireAuth)

	admin := v1.Group("/admin", d.AuthMW.RequireAdmin)
	admin.GET("/users", d.AuthHandler.AdminUsers)
	admin.GET("/activities", d.OrderHandler.Activity)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.GET("/products/archived", d.CatalogHandler.GetArchivedProducts)
	admin.POST("/products/:id/deactivate", d.CatalogHandler.DeactivateProduct)
	admin.POST("/products/:id/restore", d.CatalogHandler.RestoreProduct)
	admin.PUT("/products/:id/stock", d.CatalogHandler.UpdateStock)
}
