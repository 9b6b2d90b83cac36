package router

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/adapter/api/handler"
	"campustrade/internal/adapter/api/middleware"
)

// SetupBidRouter sets up bidding and notification routes
func SetupBidRouter(e *echo.Echo, bidHandler *handler.BidHandler, authMiddleware *middleware.AuthMiddleware) {
	listingGroup := e.Group("/v1/listings")
	listingGroup.Use(authMiddleware.Authenticate)

	listingGroup.POST("/:id/bids", bidHandler.PlaceBid)
	listingGroup.GET("/:id/bids", bidHandler.ListBids)

	notificationGroup := e.Group("/v1/notifications")
	notificationGroup.Use(authMiddleware.Authenticate)

	notificationGroup.GET("", bidHandler.ListNotifications)
	notificationGroup.PUT("/:id/read", bidHandler.MarkNotificationRead)
}
