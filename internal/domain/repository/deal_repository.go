package repository

import (
	"context"

	"campustrade/internal/domain/entity"
)

type DealRepository interface {
	// Create persists a pending deal and points the owning chat session at
	// it, atomically. Fails with ACTIVE_DEAL_EXISTS when the session's
	// current deal is in a non-terminal state.
	Create(ctx context.Context, deal *entity.Deal) error
	GetByID(ctx context.Context, id string) (*entity.Deal, error)
	GetActiveByChat(ctx context.Context, chatID string) (*entity.Deal, error)
	// Transition atomically moves the deal from one status to another,
	// re-reading the current status at the point of mutation. Fails with
	// INVALID_TRANSITION when the current status differs from `from`.
	Transition(ctx context.Context, dealID, from, to string) (*entity.Deal, error)
}
