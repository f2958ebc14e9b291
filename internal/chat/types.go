package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Participant is a user reference inside room and message payloads
type Participant struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username,omitempty"`
}

// Room is a persistent conversation with a fixed participant set.
// Membership is not the same thing as currently viewing the room; the
// latter lives in the presence registry.
type Room struct {
	ID           uuid.UUID     `json:"id"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// RoomRef is a bare room reference as sent by clients
type RoomRef struct {
	ID uuid.UUID `json:"id"`
}

// Message is immutable once created, ordered by createdAt within a room
type Message struct {
	ID        uuid.UUID   `json:"id"`
	Room      RoomRef     `json:"room"`
	Sender    Participant `json:"sender"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// MessageDraft is the addMessage payload. The room reference is
// mandatory; a draft without one is a protocol violation.
type MessageDraft struct {
	Room    *RoomRef `json:"room"`
	Content string   `json:"content"`
}

// Page is a pagination request. The wire convention is zero-based, the
// store convention is one-based; the gateway translates at the edge.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Meta is the pagination block clients consume alongside the items
type Meta struct {
	TotalItems   int `json:"totalItems"`
	ItemCount    int `json:"itemCount"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

type RoomPage struct {
	Items []Room `json:"items"`
	Meta  Meta   `json:"meta"`
}

type MessagePage struct {
	Items []Message `json:"items"`
	Meta  Meta      `json:"meta"`
}

// Frame is one JSON message on the socket, both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundFrame carries already-typed data towards one socket
type OutboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Wire event names. joindRoom is spelled the way the deployed clients
// spell it; renaming it breaks them.
const (
	EventRooms        = "rooms"
	EventMessages     = "messages"
	EventMessageAdded = "messageAdded"
	EventError        = "Error"

	EventCreateRoom   = "createRoom"
	EventPaginateRoom = "paginateRoom"
	EventJoinRoom     = "joindRoom"
	EventLeaveRoom    = "leaveRoom"
	EventAddMessage   = "addMessage"
)
