package router

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/adapter/api/handler"
	"campustrade/internal/adapter/api/middleware"
)

// SetupDealRouter sets up deal lifecycle routes addressed by deal id
func SetupDealRouter(e *echo.Echo, dealHandler *handler.DealHandler, authMiddleware *middleware.AuthMiddleware) {
	dealGroup := e.Group("/v1/deals")
	dealGroup.Use(authMiddleware.Authenticate)

	dealGroup.POST("/:id/respond", dealHandler.RespondDeal)
	dealGroup.POST("/:id/pay", dealHandler.PayDeal)
}
