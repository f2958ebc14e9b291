package request

import (
	"time"

	"github.com/google/uuid"
)

// Status of an exchange request. REJECTED, COMPLETED and CANCELLED are
// terminal; there is no path out of them.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Role filter for listing requests
type Role string

const (
	RoleRequester Role = "asRequester"
	RoleProvider  Role = "asProvider"
)

// ExchangeRequest binds a requester to the provider of a skill listing.
// ProviderID is fixed at creation time from the skill's owner and never
// re-derived.
type ExchangeRequest struct {
	ID          uuid.UUID `json:"id"`
	SkillID     uuid.UUID `json:"skillId"`
	RequesterID uuid.UUID `json:"requesterId"`
	ProviderID  uuid.UUID `json:"providerId"`
	Message     string    `json:"message"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRequestPayload struct {
	SkillID uuid.UUID `json:"skillId"`
	Message string    `json:"message"`
}

type UpdateStatusPayload struct {
	Status Status `json:"status"`
}

// Filter narrows ListMine results. Zero values mean no filtering.
type Filter struct {
	Status Status
	Role   Role
}
