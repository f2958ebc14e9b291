package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nbenali/skillswap/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatStore keeps rooms and messages in memory with the same
// paging contract as the real store: one-based pages, newest rooms
// first, message pages cut from the newest end then flipped
type fakeChatStore struct {
	rooms    map[uuid.UUID]*Room
	messages map[uuid.UUID][]Message

	lastRoomsPage    Page
	lastMessagesPage Page

	failRooms    bool
	failMessages bool
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		rooms:    make(map[uuid.UUID]*Room),
		messages: make(map[uuid.UUID][]Message),
	}
}

func (f *fakeChatStore) CreateRoom(_ context.Context, participants []Participant, creatorID uuid.UUID) (*Room, error) {
	if f.failRooms {
		return nil, errors.New("store down")
	}

	members := map[uuid.UUID]struct{}{creatorID: {}}
	for _, p := range participants {
		if p.ID != uuid.Nil {
			members[p.ID] = struct{}{}
		}
	}

	room := &Room{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	for id := range members {
		room.Participants = append(room.Participants, Participant{ID: id})
	}

	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeChatStore) GetRoomByID(_ context.Context, roomID uuid.UUID) (*Room, error) {
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (f *fakeChatStore) GetRoomsForUser(_ context.Context, userID uuid.UUID, page Page) (*RoomPage, error) {
	f.lastRoomsPage = page
	if f.failRooms {
		return nil, errors.New("store down")
	}

	mine := []Room{}
	for _, room := range f.rooms {
		for _, p := range room.Participants {
			if p.ID == userID {
				mine = append(mine, *room)
				break
			}
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].UpdatedAt.After(mine[j].UpdatedAt) })

	total := len(mine)
	start := (page.Page - 1) * page.Limit
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	items := mine[start:end]

	return &RoomPage{Items: items, Meta: buildMeta(total, len(items), page)}, nil
}

func (f *fakeChatStore) CreateMessage(_ context.Context, roomID, senderID uuid.UUID, content string) (*Message, error) {
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}

	msg := Message{
		ID:        uuid.New(),
		Room:      RoomRef{ID: roomID},
		Sender:    Participant{ID: senderID},
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.messages[roomID] = append(f.messages[roomID], msg)
	room.UpdatedAt = msg.CreatedAt

	return &msg, nil
}

func (f *fakeChatStore) GetMessagesForRoom(_ context.Context, roomID uuid.UUID, page Page) (*MessagePage, error) {
	f.lastMessagesPage = page
	if f.failMessages {
		return nil, errors.New("store down")
	}

	all := f.messages[roomID]
	total := len(all)
	start := (page.Page - 1) * page.Limit
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}

	// Newest-first window, flipped to reading order
	items := []Message{}
	for i := total - 1 - start; i >= total-end; i-- {
		items = append(items, all[i])
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	return &MessagePage{Items: items, Meta: buildMeta(total, len(items), page)}, nil
}

// fakeClient records everything the gateway emits to it
type fakeClient struct {
	id     string
	userID uuid.UUID
	frames []OutboundFrame
	closed bool
}

func newFakeClient(userID uuid.UUID) *fakeClient {
	return &fakeClient{id: uuid.NewString(), userID: userID}
}

func (c *fakeClient) SocketID() string  { return c.id }
func (c *fakeClient) UserID() uuid.UUID { return c.userID }
func (c *fakeClient) Close()            { c.closed = true }

func (c *fakeClient) Emit(event string, data any) {
	c.frames = append(c.frames, OutboundFrame{Event: event, Data: data})
}

func (c *fakeClient) framesFor(event string) []OutboundFrame {
	matched := []OutboundFrame{}
	for _, f := range c.frames {
		if f.Event == event {
			matched = append(matched, f)
		}
	}
	return matched
}

func newTestGateway(store Store) *Gateway {
	return NewGateway(store, NewRegistry(), logger.Discard().Logger)
}

func mustFrame(t *testing.T, event string, payload any) Frame {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return Frame{Event: event, Data: data}
}

func TestRegister_PushesFirstRoomPage(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	userID := uuid.New()
	room, err := store.CreateRoom(ctx, nil, userID)
	require.NoError(t, err)

	c := newFakeClient(userID)
	require.NoError(t, gw.Register(ctx, c))

	frames := c.framesFor(EventRooms)
	require.Len(t, frames, 1)

	page, ok := frames[0].Data.(*RoomPage)
	require.True(t, ok)
	require.Len(t, page.Items, 1)
	assert.Equal(t, room.ID, page.Items[0].ID)

	// Internal first page is 1, the wire speaks zero-based
	assert.Equal(t, 0, page.Meta.CurrentPage)
	assert.Equal(t, defaultPageLimit, page.Meta.ItemsPerPage)

	assert.Equal(t, Page{Page: 1, Limit: defaultPageLimit}, store.lastRoomsPage)
}

func TestRegister_StoreFailureIsFatal(t *testing.T) {
	store := newFakeChatStore()
	store.failRooms = true
	gw := newTestGateway(store)

	c := newFakeClient(uuid.New())
	err := gw.Register(context.Background(), c)

	require.Error(t, err)
}

func TestCreateRoom_PushesRoomsToEveryParticipantSocket(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	creator := uuid.New()
	other := uuid.New()
	offline := uuid.New()

	creatorSock := newFakeClient(creator)
	otherTab1 := newFakeClient(other)
	otherTab2 := newFakeClient(other)
	require.NoError(t, gw.Register(ctx, creatorSock))
	require.NoError(t, gw.Register(ctx, otherTab1))
	require.NoError(t, gw.Register(ctx, otherTab2))

	draft := Room{Participants: []Participant{{ID: other}, {ID: offline}}}
	err := gw.HandleFrame(ctx, creatorSock, mustFrame(t, EventCreateRoom, draft))
	require.NoError(t, err)

	// One rooms frame from Register plus one from the creation push
	assert.Len(t, creatorSock.framesFor(EventRooms), 2)
	assert.Len(t, otherTab1.framesFor(EventRooms), 2)
	assert.Len(t, otherTab2.framesFor(EventRooms), 2)

	pushed := otherTab1.framesFor(EventRooms)[1].Data.(*RoomPage)
	require.Len(t, pushed.Items, 1)
	assert.Len(t, pushed.Items[0].Participants, 3)
}

func TestCreateRoom_StoreFailureKeepsSocketAlive(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	c := newFakeClient(uuid.New())
	require.NoError(t, gw.Register(ctx, c))

	store.failRooms = true
	err := gw.HandleFrame(ctx, c, mustFrame(t, EventCreateRoom, Room{}))

	require.NoError(t, err)
	assert.Len(t, c.framesFor(EventError), 1)
	assert.False(t, c.closed)
}

func TestPaginateRoom_TranslatesPageAndClampsLimit(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	c := newFakeClient(uuid.New())
	require.NoError(t, gw.Register(ctx, c))

	err := gw.HandleFrame(ctx, c, mustFrame(t, EventPaginateRoom, Page{Page: 2, Limit: 500}))
	require.NoError(t, err)

	// Zero-based wire page 2 is internal page 3, limit capped at 100
	assert.Equal(t, Page{Page: 3, Limit: maxPageLimit}, store.lastRoomsPage)

	frames := c.framesFor(EventRooms)
	require.Len(t, frames, 2)
	page := frames[1].Data.(*RoomPage)
	assert.Equal(t, 2, page.Meta.CurrentPage)
	assert.Equal(t, maxPageLimit, page.Meta.ItemsPerPage)
}

func TestPaginateRoom_AnswersRequestingSocketOnly(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	userID := uuid.New()
	tab1 := newFakeClient(userID)
	tab2 := newFakeClient(userID)
	require.NoError(t, gw.Register(ctx, tab1))
	require.NoError(t, gw.Register(ctx, tab2))

	err := gw.HandleFrame(ctx, tab1, mustFrame(t, EventPaginateRoom, Page{Page: 0, Limit: 10}))
	require.NoError(t, err)

	assert.Len(t, tab1.framesFor(EventRooms), 2)
	assert.Len(t, tab2.framesFor(EventRooms), 1)
}

func TestJoinRoom_SendsHistoryAndRegistersViewer(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	userID := uuid.New()
	room, err := store.CreateRoom(ctx, nil, userID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.CreateMessage(ctx, room.ID, userID, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	c := newFakeClient(userID)
	require.NoError(t, gw.Register(ctx, c))

	err = gw.HandleFrame(ctx, c, mustFrame(t, EventJoinRoom, RoomRef{ID: room.ID}))
	require.NoError(t, err)

	frames := c.framesFor(EventMessages)
	require.Len(t, frames, 1)
	page := frames[0].Data.(*MessagePage)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "msg 0", page.Items[0].Content)
	assert.Equal(t, "msg 2", page.Items[2].Content)
	assert.Equal(t, 0, page.Meta.CurrentPage)

	assert.ElementsMatch(t, []string{c.SocketID()}, gw.registry.SocketsViewingRoom(room.ID))
}

func TestAddMessage_FansOutToViewingSocketsOnly(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	room, err := store.CreateRoom(ctx, []Participant{{ID: bob}}, alice)
	require.NoError(t, err)

	aliceSock := newFakeClient(alice)
	bobViewing := newFakeClient(bob)
	bobElsewhere := newFakeClient(bob)
	require.NoError(t, gw.Register(ctx, aliceSock))
	require.NoError(t, gw.Register(ctx, bobViewing))
	require.NoError(t, gw.Register(ctx, bobElsewhere))

	require.NoError(t, gw.HandleFrame(ctx, aliceSock, mustFrame(t, EventJoinRoom, RoomRef{ID: room.ID})))
	require.NoError(t, gw.HandleFrame(ctx, bobViewing, mustFrame(t, EventJoinRoom, RoomRef{ID: room.ID})))

	draft := MessageDraft{Room: &RoomRef{ID: room.ID}, Content: "salut"}
	require.NoError(t, gw.HandleFrame(ctx, aliceSock, mustFrame(t, EventAddMessage, draft)))

	// Sender's viewing socket and bob's viewing tab get it, the
	// non-viewing tab gets nothing
	require.Len(t, aliceSock.framesFor(EventMessageAdded), 1)
	require.Len(t, bobViewing.framesFor(EventMessageAdded), 1)
	assert.Empty(t, bobElsewhere.framesFor(EventMessageAdded))

	msg := bobViewing.framesFor(EventMessageAdded)[0].Data.(*Message)
	assert.Equal(t, "salut", msg.Content)
	assert.Equal(t, alice, msg.Sender.ID)
	assert.Equal(t, room.ID, msg.Room.ID)
}

func TestAddMessage_WithoutRoomIsFatal(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	c := newFakeClient(uuid.New())
	require.NoError(t, gw.Register(ctx, c))

	err := gw.HandleFrame(ctx, c, mustFrame(t, EventAddMessage, MessageDraft{Content: "orphan"}))
	require.Error(t, err)
}

func TestAddMessage_UnknownRoomIsFatal(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	c := newFakeClient(uuid.New())
	require.NoError(t, gw.Register(ctx, c))

	draft := MessageDraft{Room: &RoomRef{ID: uuid.New()}, Content: "nowhere"}
	err := gw.HandleFrame(ctx, c, mustFrame(t, EventAddMessage, draft))
	require.Error(t, err)
}

func TestLeaveRoom_StopsDelivery(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	room, err := store.CreateRoom(ctx, []Participant{{ID: bob}}, alice)
	require.NoError(t, err)

	aliceSock := newFakeClient(alice)
	bobSock := newFakeClient(bob)
	require.NoError(t, gw.Register(ctx, aliceSock))
	require.NoError(t, gw.Register(ctx, bobSock))

	require.NoError(t, gw.HandleFrame(ctx, bobSock, mustFrame(t, EventJoinRoom, RoomRef{ID: room.ID})))
	require.NoError(t, gw.HandleFrame(ctx, bobSock, mustFrame(t, EventLeaveRoom, nil)))

	draft := MessageDraft{Room: &RoomRef{ID: room.ID}, Content: "anyone?"}
	require.NoError(t, gw.HandleFrame(ctx, aliceSock, mustFrame(t, EventAddMessage, draft)))

	assert.Empty(t, bobSock.framesFor(EventMessageAdded))
}

func TestDisconnect_CleansPresence(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	userID := uuid.New()
	room, err := store.CreateRoom(ctx, nil, userID)
	require.NoError(t, err)

	c := newFakeClient(userID)
	require.NoError(t, gw.Register(ctx, c))
	require.NoError(t, gw.HandleFrame(ctx, c, mustFrame(t, EventJoinRoom, RoomRef{ID: room.ID})))

	gw.Disconnect(c)

	assert.Empty(t, gw.registry.SocketsForUser(userID))
	assert.Empty(t, gw.registry.SocketsViewingRoom(room.ID))

	// Events emitted to a gone socket go nowhere, without error
	gw.emitTo(c.SocketID(), EventRooms, nil)
	assert.Len(t, c.framesFor(EventRooms), 1)
}

func TestHandleFrame_UnknownEventIgnored(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	c := newFakeClient(uuid.New())
	require.NoError(t, gw.Register(ctx, c))

	err := gw.HandleFrame(ctx, c, Frame{Event: "selfDestruct"})
	require.NoError(t, err)
}

func TestHandleFrame_MalformedPayloadIsFatal(t *testing.T) {
	store := newFakeChatStore()
	gw := newTestGateway(store)
	ctx := context.Background()

	c := newFakeClient(uuid.New())
	require.NoError(t, gw.Register(ctx, c))

	err := gw.HandleFrame(ctx, c, Frame{Event: EventAddMessage, Data: json.RawMessage(`"not an object"`)})
	require.Error(t, err)
}

func TestNormalizeWirePage_Defaults(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: defaultPageLimit}, normalizeWirePage(Page{}))
	assert.Equal(t, Page{Page: 1, Limit: maxPageLimit}, normalizeWirePage(Page{Page: 0, Limit: 100}))
	assert.Equal(t, Page{Page: 1, Limit: defaultPageLimit}, normalizeWirePage(Page{Page: -4, Limit: -1}))
}
