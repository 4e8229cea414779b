package handlers

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes регистрирует маршруты сервиса заказов.
// /order/health статический и имеет приоритет над /order/:id.
func RegisterRoutes(e *echo.Echo, h *OrderHandler) {
	g := e.Group("/order")
	g.GET("/health", h.Health)
	g.POST("", h.CreateOrder)
	g.GET("", h.ListOrders)
	g.GET("/:id", h.GetOrder)
	g.PUT("/:id", h.UpdateStatus)
}
