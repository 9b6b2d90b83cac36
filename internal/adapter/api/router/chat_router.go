package router

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/adapter/api/handler"
	"campustrade/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, dealHandler *handler.DealHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate)

	// Session management
	chatGroup.POST("", chatHandler.StartChat)
	chatGroup.GET("", chatHandler.GetUserChats)
	chatGroup.GET("/:id", chatHandler.GetChatByID)
	chatGroup.PUT("/:id/read", chatHandler.MarkChatAsRead)

	// Message log
	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)

	// Deals live inside a chat session
	chatGroup.POST("/:id/deals", dealHandler.ProposeDeal)
	chatGroup.GET("/:id/deals/active", dealHandler.GetActiveDeal)
}
