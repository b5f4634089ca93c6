package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/ams/internal/domain"
)

type sequenceRepository struct {
	db *sql.DB
}

// NewSequenceRepository создаёт PostgreSQL-реализацию SequenceRepository.
// Одна строка-счётчик вместо SEQUENCE: идентификаторы остаются плотными,
// даже если транзакция откатилась.
func NewSequenceRepository(store *Store) domain.SequenceRepository {
	return &sequenceRepository{db: store.DB()}
}

func (r *sequenceRepository) Next() (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var next int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE auction_sequence
		SET current_id = current_id + 1
		WHERE id = 1
		RETURNING current_id
	`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("advance auction sequence: %w", err)
	}

	return uint64(next), nil
}

func (r *sequenceRepository) Current() (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var current int64
	err := r.db.QueryRowContext(ctx, `
		SELECT current_id FROM auction_sequence WHERE id = 1
	`).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("read auction sequence: %w", err)
	}

	return uint64(current), nil
}

var _ domain.SequenceRepository = (*sequenceRepository)(nil)
