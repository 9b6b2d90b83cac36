package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campustrade/internal/domain/entity"
	"campustrade/internal/domain/repository"
	"campustrade/pkg/errors"
)

type firestoreDealRepository struct {
	client *firestore.Client
}

func NewFirestoreDealRepository(client *firestore.Client) repository.DealRepository {
	return &firestoreDealRepository{
		client: client,
	}
}

// Create runs in a transaction so the "one non-terminal deal per chat" check
// and the write are atomic: the session document is re-read, its current deal
// inspected, and both the new deal and the session's activeDealId pointer are
// committed together. A concurrent proposer aborts and retries against the
// updated pointer, then fails with ACTIVE_DEAL_EXISTS.
func (r *firestoreDealRepository) Create(ctx context.Context, deal *entity.Deal) error {
	if deal.ID == "" {
		deal.ID = uuid.New().String()
	}

	now := time.Now()
	deal.Status = entity.DealStatusPending
	deal.CreatedAt = now
	deal.UpdatedAt = now

	chatRef := r.client.Collection(chatSessionsCollection).Doc(deal.ChatID)
	dealRef := r.client.Collection(dealsCollection).Doc(deal.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		chatDoc, err := tx.Get(chatRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat session", err)
			}
			return wrapFirestoreError(err, "Failed to get chat session")
		}

		var chat entity.ChatSession
		if err := chatDoc.DataTo(&chat); err != nil {
			return errors.Internal("Failed to parse chat session data", err)
		}

		if chat.ActiveDealID != "" {
			activeDoc, err := tx.Get(r.client.Collection(dealsCollection).Doc(chat.ActiveDealID))
			if err != nil && status.Code(err) != codes.NotFound {
				return wrapFirestoreError(err, "Failed to get active deal")
			}
			if err == nil {
				var active entity.Deal
				if err := activeDoc.DataTo(&active); err != nil {
					return errors.Internal("Failed to parse deal data", err)
				}
				if !active.Terminal() {
					return errors.ActiveDealExists(deal.ChatID)
				}
			}
		}

		if err := tx.Create(dealRef, deal); err != nil {
			return wrapFirestoreError(err, "Failed to create deal")
		}

		return tx.Update(chatRef, []firestore.Update{
			{Path: "activeDealId", Value: deal.ID},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return err
		}
		return wrapFirestoreError(err, "Failed to create deal")
	}

	return nil
}

func (r *firestoreDealRepository) GetByID(ctx context.Context, id string) (*entity.Deal, error) {
	doc, err := r.client.Collection(dealsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Deal", err)
		}
		return nil, wrapFirestoreError(err, "Failed to get deal")
	}

	var deal entity.Deal
	if err := doc.DataTo(&deal); err != nil {
		return nil, errors.Internal("Failed to parse deal data", err)
	}

	return &deal, nil
}

func (r *firestoreDealRepository) GetActiveByChat(ctx context.Context, chatID string) (*entity.Deal, error) {
	chatDoc, err := r.client.Collection(chatSessionsCollection).Doc(chatID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat session", err)
		}
		return nil, wrapFirestoreError(err, "Failed to get chat session")
	}

	var chat entity.ChatSession
	if err := chatDoc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat session data", err)
	}

	if chat.ActiveDealID == "" {
		return nil, errors.NotFound("Deal", nil)
	}

	return r.GetByID(ctx, chat.ActiveDealID)
}

// Transition re-reads the deal inside a transaction, so of two concurrent
// responders only the first to observe `from` succeeds; the second sees the
// already-applied status and gets INVALID_TRANSITION.
func (r *firestoreDealRepository) Transition(ctx context.Context, dealID, from, to string) (*entity.Deal, error) {
	dealRef := r.client.Collection(dealsCollection).Doc(dealID)
	var updated entity.Deal

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(dealRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Deal", err)
			}
			return wrapFirestoreError(err, "Failed to get deal")
		}

		var deal entity.Deal
		if err := doc.DataTo(&deal); err != nil {
			return errors.Internal("Failed to parse deal data", err)
		}

		if deal.Status != from {
			return errors.InvalidTransition(deal.Status, to)
		}

		deal.Status = to
		deal.UpdatedAt = time.Now()
		updated = deal

		return tx.Set(dealRef, &deal)
	})
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, wrapFirestoreError(err, "Failed to update deal")
	}

	return &updated, nil
}
