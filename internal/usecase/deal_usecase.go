package usecase

import (
	"context"
	"fmt"
	"log"

	"campustrade/internal/domain/entity"
	"campustrade/internal/domain/repository"
	ws "campustrade/internal/infrastructure/websocket"
	"campustrade/pkg/errors"
)

// Deal decisions accepted by Respond
const (
	DealDecisionAccept = "accept"
	DealDecisionReject = "reject"
)

type DealUseCase struct {
	dealRepo    repository.DealRepository
	chatRepo    repository.ChatRepository
	chatUseCase *ChatUseCase
	broadcaster Broadcaster
}

func NewDealUseCase(
	dealRepo repository.DealRepository,
	chatRepo repository.ChatRepository,
	chatUseCase *ChatUseCase,
	broadcaster Broadcaster,
) *DealUseCase {
	return &DealUseCase{
		dealRepo:    dealRepo,
		chatRepo:    chatRepo,
		chatUseCase: chatUseCase,
		broadcaster: broadcaster,
	}
}

// Propose opens a pending deal on the chat. The repository guarantees at most
// one non-terminal deal per session, so a second proposal while one is still
// pending or accepted fails with ACTIVE_DEAL_EXISTS.
func (uc *DealUseCase) Propose(ctx context.Context, userID, chatID string) (*entity.Deal, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		log.Printf("Propose Error: Chat %s not found: %v", chatID, err)
		return nil, err
	}

	if !chat.IsParticipant(userID) {
		return nil, errors.NotAParticipant(userID, chatID)
	}

	deal := &entity.Deal{
		ChatID:      chatID,
		BuyerID:     chat.BuyerID,
		SellerID:    chat.SellerID,
		ListingID:   chat.ListingID,
		RequestedBy: userID,
	}

	if err := uc.dealRepo.Create(ctx, deal); err != nil {
		log.Printf("Propose Error: Failed to create deal for chat %s: %v", chatID, err)
		return nil, err
	}

	if _, err := uc.chatUseCase.SendSystemMessage(ctx, chatID, "A deal has been proposed."); err != nil {
		log.Printf("Propose Warning: Failed to record system message for deal %s: %v", deal.ID, err)
	}

	uc.pushDealUpdate(chatID, deal)

	return deal, nil
}

// Respond resolves a pending deal. Only the counterparty of the proposer may
// respond; the proposer responding to itself is rejected outright. Of two
// concurrent responses only the first lands, the second fails with
// INVALID_TRANSITION carrying the already-applied status.
func (uc *DealUseCase) Respond(ctx context.Context, userID, dealID, decision string) (*entity.Deal, error) {
	deal, err := uc.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}

	if userID != deal.BuyerID && userID != deal.SellerID {
		return nil, errors.NotAParticipant(userID, deal.ChatID)
	}
	if userID == deal.RequestedBy {
		return nil, errors.NotCounterparty()
	}

	var target string
	switch decision {
	case DealDecisionAccept:
		target = entity.DealStatusAccepted
	case DealDecisionReject:
		target = entity.DealStatusRejected
	default:
		return nil, errors.BadRequest(fmt.Sprintf("Unknown decision %q, expected accept or reject", decision), nil)
	}

	updated, err := uc.dealRepo.Transition(ctx, dealID, entity.DealStatusPending, target)
	if err != nil {
		log.Printf("Respond Error: Failed to transition deal %s to %s: %v", dealID, target, err)
		return nil, err
	}

	if _, err := uc.chatUseCase.SendSystemMessage(ctx, updated.ChatID, fmt.Sprintf("The deal was %s.", updated.Status)); err != nil {
		log.Printf("Respond Warning: Failed to record system message for deal %s: %v", dealID, err)
	}

	uc.pushDealUpdate(updated.ChatID, updated)

	return updated, nil
}

// MarkPaid settles an accepted deal. Only the buyer may pay.
func (uc *DealUseCase) MarkPaid(ctx context.Context, userID, dealID string) (*entity.Deal, error) {
	deal, err := uc.dealRepo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}

	if userID != deal.BuyerID && userID != deal.SellerID {
		return nil, errors.NotAParticipant(userID, deal.ChatID)
	}
	if userID != deal.BuyerID {
		return nil, errors.NotBuyer()
	}

	updated, err := uc.dealRepo.Transition(ctx, dealID, entity.DealStatusAccepted, entity.DealStatusPaid)
	if err != nil {
		log.Printf("MarkPaid Error: Failed to transition deal %s to paid: %v", dealID, err)
		return nil, err
	}

	if _, err := uc.chatUseCase.SendSystemMessage(ctx, updated.ChatID, "The deal was paid."); err != nil {
		log.Printf("MarkPaid Warning: Failed to record system message for deal %s: %v", dealID, err)
	}

	uc.pushDealUpdate(updated.ChatID, updated)

	return updated, nil
}

func (uc *DealUseCase) GetActiveDeal(ctx context.Context, userID, chatID string) (*entity.Deal, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if !chat.IsParticipant(userID) {
		return nil, errors.NotAParticipant(userID, chatID)
	}

	return uc.dealRepo.GetActiveByChat(ctx, chatID)
}

func (uc *DealUseCase) pushDealUpdate(chatID string, deal *entity.Deal) {
	uc.broadcaster.SendToChatRoom(chatID, ws.Envelope(ws.MessageTypeDealUpdate, chatID, deal), "")
}
