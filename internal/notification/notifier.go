package notification

import (
	"context"

	"github.com/google/uuid"
)

// StoreNotifier delivers notifications by persisting them to the inbox.
type StoreNotifier struct {
	store Store
}

func NewStoreNotifier(store Store) *StoreNotifier {
	return &StoreNotifier{store: store}
}

func (n *StoreNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string, requestID *uuid.UUID) error {
	return n.store.CreateNotification(ctx, &Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		RequestID: requestID,
	})
}
