package router

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes. No auth middleware here;
// the handler authenticates via the token query param before upgrading.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
