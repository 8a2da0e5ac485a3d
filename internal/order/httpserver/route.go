package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	OrderHandler *OrderHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	orders := e.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.AllOrders)
	orders.GET("/user/:userId", d.OrderHandler.OrdersByUser)
	orders.GET("/:orderId", d.OrderHandler.OrderByID)
	orders.PUT("/:orderId/status", d.OrderHandler.UpdateStatus)
	orders.DELETE("/:orderId", d.OrderHandler.DeleteOrder)
}
