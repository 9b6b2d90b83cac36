package handler

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/usecase"
	"campustrade/pkg/response"
	"campustrade/pkg/utils"
)

type BidHandler struct {
	bidUseCase *usecase.BidUseCase
}

func NewBidHandler(bidUseCase *usecase.BidUseCase) *BidHandler {
	return &BidHandler{
		bidUseCase: bidUseCase,
	}
}

type placeBidRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// PlaceBid records a bid on a listing and notifies the owner
func (h *BidHandler) PlaceBid(c echo.Context) error {
	var req placeBidRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	listingID := c.Param("id")

	result, err := h.bidUseCase.PlaceBid(c.Request().Context(), userID, usecase.PlaceBidInput{
		ListingID: listingID,
		Amount:    req.Amount,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if !result.NotificationDelivered {
		return response.CreatedWithWarning(c, result, "Bid recorded, but the owner notification could not be delivered")
	}

	return response.Created(c, result)
}

// ListBids pages through a listing's bids, newest first
func (h *BidHandler) ListBids(c echo.Context) error {
	listingID := c.Param("id")
	pagination := utils.GetPaginationParams(c)

	bids, total, err := h.bidUseCase.ListBids(c.Request().Context(), listingID, pagination.Limit, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, bids, total, pagination.Limit, pagination.Offset)
}

// ListNotifications pages through the caller's notifications, newest first
func (h *BidHandler) ListNotifications(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	notifications, total, err := h.bidUseCase.ListNotifications(c.Request().Context(), userID, pagination.Limit, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, notifications, total, pagination.Limit, pagination.Offset)
}

// MarkNotificationRead flags one of the caller's notifications as read
func (h *BidHandler) MarkNotificationRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	notificationID := c.Param("id")

	if err := h.bidUseCase.MarkNotificationRead(c.Request().Context(), userID, notificationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}
