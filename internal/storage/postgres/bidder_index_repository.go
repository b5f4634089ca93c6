package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/ams/internal/domain"
)

type bidderIndexRepository struct {
	db *sql.DB
}

// NewBidderIndexRepository создаёт PostgreSQL-реализацию BidderIndexRepository.
// Отдельной таблицы-индекса нет: auction_bids с индексом (bidder, auction_id)
// покрывает оба запроса.
func NewBidderIndexRepository(store *Store) domain.BidderIndexRepository {
	return &bidderIndexRepository{db: store.DB()}
}

func (r *bidderIndexRepository) Has(bidder string, auctionID uint64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var seq int64
	err := r.db.QueryRowContext(ctx, `
		SELECT seq FROM auction_bids
		WHERE bidder = $1 AND auction_id = $2
	`, bidder, int64(auctionID)).Scan(&seq)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check bidder participation: %w", err)
}

func (r *bidderIndexRepository) ListForBidder(bidder string, startAfter *uint64, limit int) ([]domain.Bid, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT auction_id, bidder, amount, placed_at
		FROM auction_bids
		WHERE bidder = $1
	`
	args := []any{bidder}
	if startAfter != nil {
		query += ` AND auction_id > $2`
		args = append(args, int64(*startAfter))
	}
	query += ` ORDER BY auction_id ASC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bids for bidder: %w", err)
	}
	defer rows.Close()

	bids := make([]domain.Bid, 0)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bidder bids: %w", err)
	}

	return bids, nil
}

var _ domain.BidderIndexRepository = (*bidderIndexRepository)(nil)
