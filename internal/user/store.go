package user

import (
	"context"

	"github.com/google/uuid"
)

// Store is the user directory seen by the rest of the system.
// Account management lives in the identity service; here we only
// resolve references.
type Store interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
