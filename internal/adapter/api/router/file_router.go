package router

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/adapter/api/handler"
	"campustrade/internal/adapter/api/middleware"
)

// SetupFileRouter sets up the attachment upload route
func SetupFileRouter(e *echo.Echo, fileHandler *handler.FileHandler, authMiddleware *middleware.AuthMiddleware) {
	fileGroup := e.Group("/v1/files")
	fileGroup.Use(authMiddleware.Authenticate)

	fileGroup.POST("", fileHandler.UploadFile)
}
