package server

import (
	"refurbmarket/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Admin   *handler.AdminHandler
	Health  *handler.HealthHandler
}

// /api 配下をまとめて登録する
func RegisterRoutes(e *echo.Echo, ac handler.AuthChain, limiter echo.MiddlewareFunc, h Handlers) {
	if h.Health != nil {
		h.Health.RegisterRoutes(e)
	}

	api := e.Group("/api")
	h.Auth.RegisterRoutes(api, limiter)
	h.User.RegisterRoutes(api, ac)
	h.Product.RegisterRoutes(api, ac)
	h.Order.RegisterRoutes(api, ac)
	h.Admin.RegisterRoutes(api, ac)
}
