package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks which sockets are connected, which user each belongs
// to, and which rooms each socket is currently viewing. It is purely
// in-memory: a fresh registry after a restart is exactly the clean
// slate the gateway needs, stale sessions from a previous run cannot
// survive into it.
//
// A user may hold several sockets at once (several tabs), and a socket
// may view several rooms if the client joins without leaving first.
type Registry struct {
	mu sync.RWMutex

	// socket id -> owning user
	connected map[string]uuid.UUID

	// user -> live socket ids
	userSockets map[uuid.UUID]map[string]struct{}

	// socket id -> rooms it currently views
	socketRooms map[string]map[uuid.UUID]struct{}

	// room -> socket ids viewing it
	roomSockets map[uuid.UUID]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		connected:   make(map[string]uuid.UUID),
		userSockets: make(map[uuid.UUID]map[string]struct{}),
		socketRooms: make(map[string]map[uuid.UUID]struct{}),
		roomSockets: make(map[uuid.UUID]map[string]struct{}),
	}
}

// Connect records a live socket for a user
func (r *Registry) Connect(socketID string, userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connected[socketID] = userID
	if r.userSockets[userID] == nil {
		r.userSockets[userID] = make(map[string]struct{})
	}
	r.userSockets[userID][socketID] = struct{}{}
}

// DisconnectSocket removes every trace of a socket: its connection
// record and all of its joined rooms. Safe to call for sockets the
// registry never saw.
func (r *Registry) DisconnectSocket(socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID, ok := r.connected[socketID]; ok {
		delete(r.connected, socketID)
		if sockets := r.userSockets[userID]; sockets != nil {
			delete(sockets, socketID)
			if len(sockets) == 0 {
				delete(r.userSockets, userID)
			}
		}
	}

	r.leaveAllLocked(socketID)
}

// UserID resolves the user behind a socket
func (r *Registry) UserID(socketID string) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.connected[socketID]
	return userID, ok
}

// SocketsForUser returns every live socket of a user
func (r *Registry) SocketsForUser(userID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sockets := make([]string, 0, len(r.userSockets[userID]))
	for id := range r.userSockets[userID] {
		sockets = append(sockets, id)
	}
	return sockets
}

// JoinRoom marks the socket as viewing a room
func (r *Registry) JoinRoom(socketID string, roomID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.socketRooms[socketID] == nil {
		r.socketRooms[socketID] = make(map[uuid.UUID]struct{})
	}
	r.socketRooms[socketID][roomID] = struct{}{}

	if r.roomSockets[roomID] == nil {
		r.roomSockets[roomID] = make(map[string]struct{})
	}
	r.roomSockets[roomID][socketID] = struct{}{}
}

// LeaveSocket clears every room the socket was viewing. A socket that
// was not viewing anything is a no-op.
func (r *Registry) LeaveSocket(socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveAllLocked(socketID)
}

// SocketsViewingRoom returns the sockets that joined a room and have
// not left or disconnected since
func (r *Registry) SocketsViewingRoom(roomID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sockets := make([]string, 0, len(r.roomSockets[roomID]))
	for id := range r.roomSockets[roomID] {
		sockets = append(sockets, id)
	}
	return sockets
}

func (r *Registry) leaveAllLocked(socketID string) {
	for roomID := range r.socketRooms[socketID] {
		if sockets := r.roomSockets[roomID]; sockets != nil {
			delete(sockets, socketID)
			if len(sockets) == 0 {
				delete(r.roomSockets, roomID)
			}
		}
	}
	delete(r.socketRooms, socketID)
}
