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

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	notification.CreatedAt = time.Now()

	_, err := r.client.Collection(notificationsCollection).Doc(notification.ID).Set(ctx, notification)
	if err != nil {
		return wrapFirestoreError(err, "Failed to create notification")
	}

	return nil
}

func (r *firestoreNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, int64, error) {
	query := r.client.Collection(notificationsCollection).
		Where("recipientId", "==", recipientID).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, wrapFirestoreError(err, "Failed to fetch notifications")
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var notifications []*entity.Notification
	for i := start; i < end; i++ {
		var notification entity.Notification
		if err := allDocs[i].DataTo(&notification); err != nil {
			continue
		}
		notifications = append(notifications, &notification)
	}

	return notifications, total, nil
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	docRef := r.client.Collection(notificationsCollection).Doc(id)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Notification", err)
			}
			return wrapFirestoreError(err, "Failed to get notification")
		}

		var notification entity.Notification
		if err := doc.DataTo(&notification); err != nil {
			return errors.Internal("Failed to parse notification data", err)
		}

		if notification.RecipientID != recipientID {
			return errors.NotFound("Notification", nil)
		}
		if notification.Read {
			return nil
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "read", Value: true},
		})
	})
}
