package request

import (
	"context"

	"github.com/google/uuid"
)

type Store interface {
	CreateRequest(ctx context.Context, req *ExchangeRequest) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*ExchangeRequest, error)
	HasPendingRequest(ctx context.Context, skillID, requesterID uuid.UUID) (bool, error)
	ListRequestsForUser(ctx context.Context, userID uuid.UUID, filter Filter) ([]*ExchangeRequest, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status Status) (*ExchangeRequest, error)
}
