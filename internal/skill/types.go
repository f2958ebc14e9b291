package skill

import (
	"time"

	"github.com/google/uuid"
)

// Skill is a listing in the campus catalog. OwnerID is the user
// offering it; a zero OwnerID means the listing is orphaned.
type Skill struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}
