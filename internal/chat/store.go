package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrRoomNotFound = errors.New("room not found")

// Store is the persistence surface of the chat domain. Pagination pages
// are one-based here; the wire translation happens in the gateway.
type Store interface {
	// CreateRoom persists a room with the given participant set. The
	// creator is always part of the room, listed or not.
	CreateRoom(ctx context.Context, participants []Participant, creatorID uuid.UUID) (*Room, error)

	GetRoomByID(ctx context.Context, roomID uuid.UUID) (*Room, error)

	// GetRoomsForUser lists rooms the user participates in, most
	// recently active first
	GetRoomsForUser(ctx context.Context, userID uuid.UUID, page Page) (*RoomPage, error)

	// CreateMessage persists a message and bumps the room's updated_at
	// so the room climbs in its participants' listings
	CreateMessage(ctx context.Context, roomID, senderID uuid.UUID, content string) (*Message, error)

	// GetMessagesForRoom returns a page of the room's history in
	// ascending creation order within the page
	GetMessagesForRoom(ctx context.Context, roomID uuid.UUID, page Page) (*MessagePage, error)
}
