package request

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

// CreateRequest persists a new exchange request
func (s *PostgresStore) CreateRequest(ctx context.Context, req *ExchangeRequest) error {
	query := `
		INSERT INTO requests (id, skill_id, requester_id, provider_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	req.ID = uuid.New()
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := s.pool.Exec(ctx, query,
		req.ID,
		req.SkillID,
		req.RequesterID,
		req.ProviderID,
		req.Message,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetRequestByID retrieves a request by its ID
func (s *PostgresStore) GetRequestByID(ctx context.Context, id uuid.UUID) (*ExchangeRequest, error) {
	query := `
		SELECT id, skill_id, requester_id, provider_id, message, status, created_at, updated_at
		FROM requests
		WHERE id = $1
	`

	req := &ExchangeRequest{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.SkillID,
		&req.RequesterID,
		&req.ProviderID,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// HasPendingRequest checks the one-pending-per-(skill, requester) rule
func (s *PostgresStore) HasPendingRequest(ctx context.Context, skillID, requesterID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE skill_id = $1 AND requester_id = $2 AND status = $3
		)
	`

	var exists bool
	err := s.pool.QueryRow(ctx, query, skillID, requesterID, StatusPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}

	return exists, nil
}

// ListRequestsForUser lists requests where the user is requester,
// provider or either, newest first
func (s *PostgresStore) ListRequestsForUser(ctx context.Context, userID uuid.UUID, filter Filter) ([]*ExchangeRequest, error) {
	query := `
		SELECT id, skill_id, requester_id, provider_id, message, status, created_at, updated_at
		FROM requests
		WHERE
	`

	args := []any{userID}
	switch filter.Role {
	case RoleRequester:
		query += ` requester_id = $1`
	case RoleProvider:
		query += ` provider_id = $1`
	default:
		query += ` (requester_id = $1 OR provider_id = $1)`
	}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := []*ExchangeRequest{}
	for rows.Next() {
		req := &ExchangeRequest{}
		err := rows.Scan(
			&req.ID,
			&req.SkillID,
			&req.RequesterID,
			&req.ProviderID,
			&req.Message,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, nil
}

// UpdateRequestStatus persists a new status and returns the updated row
func (s *PostgresStore) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status Status) (*ExchangeRequest, error) {
	query := `
		UPDATE requests
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, skill_id, requester_id, provider_id, message, status, created_at, updated_at
	`

	req := &ExchangeRequest{}
	err := s.pool.QueryRow(ctx, query, id, status, time.Now()).Scan(
		&req.ID,
		&req.SkillID,
		&req.RequesterID,
		&req.ProviderID,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	return req, nil
}
