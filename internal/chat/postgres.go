package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// CreateRoom persists a room and its participant set. The creator is
// added whether or not the caller listed them.
func (s *PostgresStore) CreateRoom(ctx context.Context, participants []Participant, creatorID uuid.UUID) (*Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	roomID := uuid.New()
	now := time.Now()

	_, err = tx.Exec(ctx,
		`INSERT INTO rooms (id, created_at, updated_at) VALUES ($1, $2, $3)`,
		roomID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	members := map[uuid.UUID]struct{}{creatorID: {}}
	for _, p := range participants {
		if p.ID != uuid.Nil {
			members[p.ID] = struct{}{}
		}
	}

	for userID := range members {
		_, err = tx.Exec(ctx,
			`INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2)`,
			roomID, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to add participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit room: %w", err)
	}

	return s.GetRoomByID(ctx, roomID)
}

// GetRoomByID retrieves a room with its participants
func (s *PostgresStore) GetRoomByID(ctx context.Context, roomID uuid.UUID) (*Room, error) {
	room := &Room{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, created_at, updated_at FROM rooms WHERE id = $1`,
		roomID,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	room.Participants, err = s.loadParticipants(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	return room, nil
}

// GetRoomsForUser lists the user's rooms, most recently active first,
// one-based page in
func (s *PostgresStore) GetRoomsForUser(ctx context.Context, userID uuid.UUID, page Page) (*RoomPage, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_participants WHERE user_id = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count rooms: %w", err)
	}

	query := `
		SELECT r.id, r.created_at, r.updated_at
		FROM rooms r
		JOIN room_participants rp ON rp.room_id = r.id
		WHERE rp.user_id = $1
		ORDER BY r.updated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, userID, page.Limit, offset(page))
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []Room{}
	for rows.Next() {
		room := Room{}
		if err := rows.Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}

	// TODO: batch the participant loads, this is one query per room
	for i := range rooms {
		rooms[i].Participants, err = s.loadParticipants(ctx, rooms[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return &RoomPage{Items: rooms, Meta: buildMeta(total, len(rooms), page)}, nil
}

// CreateMessage persists a message and touches the room so it surfaces
// at the top of its participants' room lists
func (s *PostgresStore) CreateMessage(ctx context.Context, roomID, senderID uuid.UUID, content string) (*Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	msg := &Message{
		ID:        uuid.New(),
		Room:      RoomRef{ID: roomID},
		Sender:    Participant{ID: senderID},
		Content:   content,
		CreatedAt: time.Now(),
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, room_id, sender_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, roomID, senderID, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE rooms SET updated_at = $2 WHERE id = $1`,
		roomID, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to touch room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrRoomNotFound
	}

	err = tx.QueryRow(ctx,
		`SELECT username FROM users WHERE id = $1`,
		senderID,
	).Scan(&msg.Sender.Username)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	return msg, nil
}

// GetMessagesForRoom returns one page of history. The page window is
// cut from the newest end, then flipped so items read oldest to newest.
func (s *PostgresStore) GetMessagesForRoom(ctx context.Context, roomID uuid.UUID, page Page) (*MessagePage, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE room_id = $1`,
		roomID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	query := `
		SELECT m.id, m.room_id, m.sender_id, COALESCE(u.username, ''), m.content, m.created_at
		FROM messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, roomID, page.Limit, offset(page))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		msg := Message{}
		err := rows.Scan(
			&msg.ID,
			&msg.Room.ID,
			&msg.Sender.ID,
			&msg.Sender.Username,
			&msg.Content,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &MessagePage{Items: messages, Meta: buildMeta(total, len(messages), page)}, nil
}

func (s *PostgresStore) loadParticipants(ctx context.Context, roomID uuid.UUID) ([]Participant, error) {
	query := `
		SELECT u.id, u.username
		FROM room_participants rp
		JOIN users u ON u.id = rp.user_id
		WHERE rp.room_id = $1
		ORDER BY u.username
	`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	participants := []Participant{}
	for rows.Next() {
		p := Participant{}
		if err := rows.Scan(&p.ID, &p.Username); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return participants, nil
}

func offset(page Page) int {
	p := page.Page
	if p < 1 {
		p = 1
	}
	return (p - 1) * page.Limit
}

// buildMeta computes the pagination block with a one-based current page
func buildMeta(total, count int, page Page) Meta {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}

	return Meta{
		TotalItems:   total,
		ItemCount:    count,
		ItemsPerPage: page.Limit,
		TotalPages:   totalPages,
		CurrentPage:  page.Page,
	}
}
