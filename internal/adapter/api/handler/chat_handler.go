package handler

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/usecase"
	"campustrade/pkg/response"
	"campustrade/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startChatRequest struct {
	ListingID      string `json:"listing_id" validate:"required"`
	InitialMessage string `json:"initial_message"`
}

type sendMessageRequest struct {
	Content       string `json:"content"`
	AttachmentURL string `json:"attachment_url,omitempty" validate:"omitempty,url"`
}

type markReadRequest struct {
	MessageID string `json:"message_id"`
}

// StartChat resolves or creates the chat session for the caller and a listing
func (h *ChatHandler) StartChat(c echo.Context) error {
	var req startChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.StartChat(c.Request().Context(), userID, usecase.StartChatInput{
		ListingID:      req.ListingID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

// GetUserChats gets all chats for the authenticated user
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	chats, total, err := h.chatUseCase.GetUserChats(c.Request().Context(), userID, pagination.Limit, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, chats, total, pagination.Limit, pagination.Offset)
}

// GetChatByID gets a specific chat by ID
func (h *ChatHandler) GetChatByID(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	chat, err := h.chatUseCase.GetChatByID(c.Request().Context(), userID, chatID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

// SendMessage appends a message to the chat's log
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ChatID:        chatID,
		Content:       req.Content,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetChatMessages pages through the chat history in send order. The `after`
// query param carries the last message id the caller has; the page resumes
// strictly after it.
func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")
	afterID := c.QueryParam("after")
	pagination := utils.GetPaginationParams(c)

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), userID, chatID, afterID, pagination.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// MarkChatAsRead clears the caller's unread counter for the chat
func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	if err := h.chatUseCase.MarkChatAsRead(c.Request().Context(), userID, chatID, req.MessageID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}
