package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	firstPage        = 1
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Client is one live socket as the gateway sees it. Emit must never
// block the caller; a client that cannot keep up is dropped.
type Client interface {
	SocketID() string
	UserID() uuid.UUID
	Emit(event string, data any)
	Close()
}

// Gateway coordinates realtime sessions: it owns the socket directory,
// drives the presence registry and fans events out to the right
// sockets. One gateway instance serves the whole process.
type Gateway struct {
	store    Store
	registry *Registry
	log      *slog.Logger

	mu      sync.RWMutex
	clients map[string]Client
}

func NewGateway(store Store, registry *Registry, log *slog.Logger) *Gateway {
	return &Gateway{
		store:    store,
		registry: registry,
		log:      log,
		clients:  make(map[string]Client),
	}
}

// Register wires an authenticated socket into the gateway and pushes
// the user's first page of rooms to that socket alone
func (g *Gateway) Register(ctx context.Context, c Client) error {
	g.mu.Lock()
	g.clients[c.SocketID()] = c
	g.mu.Unlock()

	g.registry.Connect(c.SocketID(), c.UserID())

	rooms, err := g.store.GetRoomsForUser(ctx, c.UserID(), Page{Page: firstPage, Limit: defaultPageLimit})
	if err != nil {
		return fmt.Errorf("failed to load rooms on connect: %w", err)
	}

	c.Emit(EventRooms, wireRoomPage(rooms))

	g.log.Info("socket connected",
		"socket_id", c.SocketID(),
		"user_id", c.UserID())

	return nil
}

// Disconnect removes the socket from the directory and wipes its
// presence state. Always called on the way out, whatever the reason.
func (g *Gateway) Disconnect(c Client) {
	g.mu.Lock()
	delete(g.clients, c.SocketID())
	g.mu.Unlock()

	g.registry.DisconnectSocket(c.SocketID())

	g.log.Info("socket disconnected", "socket_id", c.SocketID())
}

// HandleFrame dispatches one inbound frame. A returned error is fatal
// for the socket; recoverable failures are reported on the Error event
// and the socket lives on.
func (g *Gateway) HandleFrame(ctx context.Context, c Client, f Frame) error {
	switch f.Event {
	case EventCreateRoom:
		draft := Room{}
		if err := json.Unmarshal(f.Data, &draft); err != nil {
			return fmt.Errorf("malformed %s payload: %w", EventCreateRoom, err)
		}
		g.handleCreateRoom(ctx, c, draft)

	case EventPaginateRoom:
		page := Page{}
		if err := json.Unmarshal(f.Data, &page); err != nil {
			return fmt.Errorf("malformed %s payload: %w", EventPaginateRoom, err)
		}
		g.handlePaginateRoom(ctx, c, page)

	case EventJoinRoom:
		ref := RoomRef{}
		if err := json.Unmarshal(f.Data, &ref); err != nil {
			return fmt.Errorf("malformed %s payload: %w", EventJoinRoom, err)
		}
		g.handleJoinRoom(ctx, c, ref)

	case EventLeaveRoom:
		g.registry.LeaveSocket(c.SocketID())

	case EventAddMessage:
		draft := MessageDraft{}
		if err := json.Unmarshal(f.Data, &draft); err != nil {
			return fmt.Errorf("malformed %s payload: %w", EventAddMessage, err)
		}
		return g.handleAddMessage(ctx, c, draft)

	default:
		g.log.Warn("unknown event ignored",
			"event", f.Event,
			"socket_id", c.SocketID())
	}

	return nil
}

// handleCreateRoom persists the room and pushes a refreshed room list
// to every live socket of every participant, creator included
func (g *Gateway) handleCreateRoom(ctx context.Context, c Client, draft Room) {
	room, err := g.store.CreateRoom(ctx, draft.Participants, c.UserID())
	if err != nil {
		g.emitError(c, "failed to create room")
		g.log.Error("failed to create room",
			"socket_id", c.SocketID(),
			"error", err)
		return
	}

	for _, p := range room.Participants {
		g.pushRoomsToUser(ctx, p.ID)
	}
}

// handlePaginateRoom answers a room-list page request on the asking
// socket only
func (g *Gateway) handlePaginateRoom(ctx context.Context, c Client, page Page) {
	rooms, err := g.store.GetRoomsForUser(ctx, c.UserID(), normalizeWirePage(page))
	if err != nil {
		g.emitError(c, "failed to load rooms")
		g.log.Error("failed to paginate rooms",
			"socket_id", c.SocketID(),
			"error", err)
		return
	}

	c.Emit(EventRooms, wireRoomPage(rooms))
}

// handleJoinRoom sends the newest page of history and marks the socket
// as viewing the room, so later messages reach it
func (g *Gateway) handleJoinRoom(ctx context.Context, c Client, ref RoomRef) {
	if ref.ID == uuid.Nil {
		g.log.Warn("join without room id ignored", "socket_id", c.SocketID())
		return
	}

	messages, err := g.store.GetMessagesForRoom(ctx, ref.ID, Page{Page: firstPage, Limit: defaultPageLimit})
	if err != nil {
		g.emitError(c, "failed to load messages")
		g.log.Error("failed to load messages",
			"socket_id", c.SocketID(),
			"room_id", ref.ID,
			"error", err)
		return
	}

	g.registry.JoinRoom(c.SocketID(), ref.ID)

	c.Emit(EventMessages, wireMessagePage(messages))
}

// handleAddMessage persists the message and fans it out to the sockets
// currently viewing the room. Participants who are not viewing get
// nothing; they catch up from history when they join. A draft without
// a room reference is a protocol violation and kills the socket.
func (g *Gateway) handleAddMessage(ctx context.Context, c Client, draft MessageDraft) error {
	if draft.Room == nil || draft.Room.ID == uuid.Nil {
		return fmt.Errorf("message without room reference from socket %s", c.SocketID())
	}

	msg, err := g.store.CreateMessage(ctx, draft.Room.ID, c.UserID(), draft.Content)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	room, err := g.store.GetRoomByID(ctx, msg.Room.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve message room: %w", err)
	}

	for _, socketID := range g.registry.SocketsViewingRoom(room.ID) {
		g.emitTo(socketID, EventMessageAdded, msg)
	}

	return nil
}

// pushRoomsToUser recomputes the user's first room page and sends it
// to each of their live sockets
func (g *Gateway) pushRoomsToUser(ctx context.Context, userID uuid.UUID) {
	sockets := g.registry.SocketsForUser(userID)
	if len(sockets) == 0 {
		return
	}

	rooms, err := g.store.GetRoomsForUser(ctx, userID, Page{Page: firstPage, Limit: defaultPageLimit})
	if err != nil {
		g.log.Error("failed to refresh rooms",
			"user_id", userID,
			"error", err)
		return
	}

	wired := wireRoomPage(rooms)
	for _, socketID := range sockets {
		g.emitTo(socketID, EventRooms, wired)
	}
}

func (g *Gateway) emitTo(socketID, event string, data any) {
	g.mu.RLock()
	c, ok := g.clients[socketID]
	g.mu.RUnlock()

	if ok {
		c.Emit(event, data)
	}
}

func (g *Gateway) emitError(c Client, message string) {
	c.Emit(EventError, map[string]string{"message": message})
}

// normalizeWirePage converts a zero-based client page into the store's
// one-based convention and caps the limit
func normalizeWirePage(p Page) Page {
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	p.Page++
	if p.Page < firstPage {
		p.Page = firstPage
	}
	return p
}

// wireRoomPage shifts the meta back to the zero-based wire convention
func wireRoomPage(p *RoomPage) *RoomPage {
	p.Meta.CurrentPage--
	return p
}

func wireMessagePage(p *MessagePage) *MessagePage {
	p.Meta.CurrentPage--
	return p
}
