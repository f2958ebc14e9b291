package skill

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("skill not found")

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// GetSkillByID retrieves a skill with its owner reference
func (s *PostgresStore) GetSkillByID(ctx context.Context, id uuid.UUID) (*Skill, error) {
	query := `
		SELECT id, COALESCE(owner_id, '00000000-0000-0000-0000-000000000000'), title, description, category, created_at
		FROM skills
		WHERE id = $1
	`
	skill := &Skill{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&skill.ID,
		&skill.OwnerID,
		&skill.Title,
		&skill.Description,
		&skill.Category,
		&skill.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}

	return skill, nil
}
