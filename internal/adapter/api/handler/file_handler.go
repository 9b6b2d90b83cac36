package handler

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/infrastructure/storage"
	"campustrade/pkg/errors"
	"campustrade/pkg/logger"
	"campustrade/pkg/response"
)

const maxAttachmentSize = 10 << 20 // 10 MB

type FileHandler struct {
	storageClient *storage.CloudStorageClient
}

func NewFileHandler(storageClient *storage.CloudStorageClient) *FileHandler {
	return &FileHandler{
		storageClient: storageClient,
	}
}

// UploadFile stores a chat attachment and returns its public URL. The message
// referencing the attachment is sent separately through the chat endpoint.
func (h *FileHandler) UploadFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("File is required", err))
	}

	if fileHeader.Size > maxAttachmentSize {
		return response.Error(c, errors.BadRequest("File exceeds the 10MB attachment limit", nil))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to open uploaded file", err))
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")

	url, err := h.storageClient.UploadFile(c.Request().Context(), src, contentType, "attachments")
	if err != nil {
		logger.Error("Attachment upload failed: %v", err)
		return response.Error(c, err)
	}

	logger.Debug("Uploaded attachment %s (%d bytes)", url, fileHeader.Size)
	return response.Created(c, map[string]string{"url": url})
}
