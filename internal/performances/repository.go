package performances

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neon-karaoke/backend/internal/models"
)

// Repository handles performance persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a performances repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a new performance. The timestamp is server-assigned and the
// reaction counters start at zero; both are written back to p. Each save is a
// single atomic insert, so no optimistic concurrency is needed.
func (r *Repository) Insert(ctx context.Context, p *models.Performance) error {
	const q = `INSERT INTO performances (id, username, title, audio_url)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at, reactions_laugh, reactions_love, reactions_kiss`
	err := r.pool.QueryRow(ctx, q, p.Username, p.Title, p.AudioURL).
		Scan(&p.ID, &p.Timestamp, &p.Reactions.Laugh, &p.Reactions.Love, &p.Reactions.Kiss)
	if err != nil {
		return fmt.Errorf("insert performance: %w", err)
	}
	return nil
}

// List returns the full current performance set ordered most recent first,
// ties broken by id so the order is stable across re-renders.
func (r *Repository) List(ctx context.Context) ([]models.Performance, error) {
	const q = `SELECT id, username, title, audio_url, created_at, reactions_laugh, reactions_love, reactions_kiss
		FROM performances ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list performances: %w", err)
	}
	defer rows.Close()
	var list []models.Performance
	for rows.Next() {
		var p models.Performance
		if err := rows.Scan(&p.ID, &p.Username, &p.Title, &p.AudioURL, &p.Timestamp,
			&p.Reactions.Laugh, &p.Reactions.Love, &p.Reactions.Kiss); err != nil {
			return nil, fmt.Errorf("scan performance: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// IncrementReaction bumps one of the fixed reaction counters.
func (r *Repository) IncrementReaction(ctx context.Context, id uuid.UUID, kind string) error {
	if !models.ValidReaction(kind) {
		return fmt.Errorf("unknown reaction %q", kind)
	}
	q := fmt.Sprintf(`UPDATE performances SET reactions_%s = reactions_%s + 1 WHERE id = $1`, kind, kind)
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("increment reaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("performance %s not found", id)
	}
	return nil
}
