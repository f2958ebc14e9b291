package skill

import (
	"context"

	"github.com/google/uuid"
)

// Store is the read side of the skill catalog. Listing CRUD is served
// elsewhere; the request state machine only resolves skills and their
// owners.
type Store interface {
	GetSkillByID(ctx context.Context, id uuid.UUID) (*Skill, error)
}
