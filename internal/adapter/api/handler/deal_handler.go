package handler

import (
	"github.com/labstack/echo/v4"

	"campustrade/internal/usecase"
	"campustrade/pkg/response"
)

type DealHandler struct {
	dealUseCase *usecase.DealUseCase
}

func NewDealHandler(dealUseCase *usecase.DealUseCase) *DealHandler {
	return &DealHandler{
		dealUseCase: dealUseCase,
	}
}

type respondDealRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept reject"`
}

// ProposeDeal opens a pending deal on the chat session
func (h *DealHandler) ProposeDeal(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	deal, err := h.dealUseCase.Propose(c.Request().Context(), userID, chatID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, deal)
}

// GetActiveDeal returns the chat's current deal, if any
func (h *DealHandler) GetActiveDeal(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	deal, err := h.dealUseCase.GetActiveDeal(c.Request().Context(), userID, chatID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, deal)
}

// RespondDeal accepts or rejects a pending deal
func (h *DealHandler) RespondDeal(c echo.Context) error {
	var req respondDealRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	dealID := c.Param("id")

	deal, err := h.dealUseCase.Respond(c.Request().Context(), userID, dealID, req.Decision)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, deal)
}

// PayDeal settles an accepted deal
func (h *DealHandler) PayDeal(c echo.Context) error {
	userID := c.Get("uid").(string)
	dealID := c.Param("id")

	deal, err := h.dealUseCase.MarkPaid(c.Request().Context(), userID, dealID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, deal)
}
