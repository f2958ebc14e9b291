package notification

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// Notifier is the fire-and-forget sink the request state machine talks
// to. Callers must treat a returned error as non-fatal: log and move on.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, requestID *uuid.UUID) error
}
