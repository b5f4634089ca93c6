package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/ams/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type auctionRepository struct {
	db *sql.DB
}

// NewAuctionRepository создаёт PostgreSQL-реализацию AuctionRepository.
func NewAuctionRepository(store *Store) domain.AuctionRepository {
	return &auctionRepository{db: store.DB()}
}

func (r *auctionRepository) Create(auction domain.Auction) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO auctions (
			id, name, max_participants, in_progress, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		int64(auction.ID), auction.Name, int64(auction.MaxParticipants),
		auction.InProgress, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAuctionAlreadyExists
		}
		return fmt.Errorf("insert auction: %w", err)
	}

	return nil
}

func (r *auctionRepository) Get(id uint64) (domain.Auction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	auction, err := r.loadAuction(ctx, id)
	if err != nil {
		return domain.Auction{}, err
	}

	bids, err := r.loadBids(ctx, id, nil, 0)
	if err != nil {
		return domain.Auction{}, err
	}
	auction.SortedBids = bids

	return auction, nil
}

// PlaceBid выполняет обе записи — строку ставки и блокировку строки аукциона —
// в одной транзакции: либо ставка видна целиком, либо не видна вовсе.
func (r *auctionRepository) PlaceBid(bid domain.Bid) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		inProgress      bool
		maxParticipants int64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT in_progress, max_participants
		FROM auctions
		WHERE id = $1
		FOR UPDATE
	`, int64(bid.AuctionID)).Scan(&inProgress, &maxParticipants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrAuctionNotFound
			return err
		}
		return fmt.Errorf("lock auction row: %w", err)
	}
	if !inProgress {
		err = domain.ErrAuctionNotInProgress
		return err
	}

	var bidCount int64
	if err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM auction_bids WHERE auction_id = $1
	`, int64(bid.AuctionID)).Scan(&bidCount); err != nil {
		return fmt.Errorf("count auction bids: %w", err)
	}
	if bidCount >= maxParticipants {
		err = domain.ErrMaxParticipantsReached
		return err
	}

	// seq (BIGSERIAL) фиксирует порядок подачи: сортировка по (amount, seq)
	// даёт список, эквивалентный вставке в отсортированную позицию.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO auction_bids (auction_id, bidder, amount, placed_at)
		VALUES ($1,$2,$3,$4)
	`, int64(bid.AuctionID), bid.Bidder, int64(bid.Amount), bid.Timestamp)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrBidAlreadyPlaced
			return err
		}
		return fmt.Errorf("insert bid: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE auctions SET updated_at = $2 WHERE id = $1
	`, int64(bid.AuctionID), time.Now().UTC()); err != nil {
		return fmt.Errorf("touch auction: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit place bid: %w", err)
	}

	return nil
}

func (r *auctionRepository) Close(id uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE auctions
		SET in_progress = FALSE,
		    updated_at = $2
		WHERE id = $1
		  AND in_progress
	`, int64(id), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("close auction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.auctionExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrAuctionNotFound
		}
		return domain.ErrAuctionNotInProgress
	}

	return nil
}

func (r *auctionRepository) SetWinner(id uint64, winner domain.Winner) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE auctions
		SET winner_bidder = $2,
		    winner_amount_owed = $3,
		    updated_at = $4
		WHERE id = $1
		  AND winner_bidder IS NULL
	`, int64(id), winner.Bidder, int64(winner.AmountOwed), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set auction winner: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.auctionExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrAuctionNotFound
		}
		return domain.ErrWinnerAlreadySet
	}

	return nil
}

func (r *auctionRepository) ListBids(auctionID uint64, startAfter *uint64, limit int) ([]domain.Bid, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	exists, err := r.auctionExists(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrAuctionNotFound
	}

	return r.loadBids(ctx, auctionID, startAfter, limit)
}

func (r *auctionRepository) loadAuction(ctx context.Context, id uint64) (domain.Auction, error) {
	var (
		auction         domain.Auction
		auctionID       int64
		maxParticipants int64
		winnerBidder    sql.NullString
		winnerOwed      sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, max_participants, in_progress, winner_bidder, winner_amount_owed
		FROM auctions
		WHERE id = $1
	`, int64(id)).Scan(
		&auctionID, &auction.Name, &maxParticipants,
		&auction.InProgress, &winnerBidder, &winnerOwed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Auction{}, domain.ErrAuctionNotFound
		}
		return domain.Auction{}, fmt.Errorf("select auction: %w", err)
	}

	auction.ID = uint64(auctionID)
	auction.MaxParticipants = uint64(maxParticipants)
	if winnerBidder.Valid {
		auction.Winner = &domain.Winner{
			AuctionID:  auction.ID,
			Bidder:     winnerBidder.String,
			AmountOwed: uint64(winnerOwed.Int64),
		}
	}

	return auction, nil
}

func (r *auctionRepository) loadBids(ctx context.Context, auctionID uint64, startAfter *uint64, limit int) ([]domain.Bid, error) {
	query := `
		SELECT auction_id, bidder, amount, placed_at
		FROM auction_bids
		WHERE auction_id = $1
	`
	args := []any{int64(auctionID)}
	if startAfter != nil {
		query += ` AND amount > $2`
		args = append(args, int64(*startAfter))
	}
	query += ` ORDER BY amount ASC, seq ASC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load auction bids: %w", err)
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
		return nil, fmt.Errorf("iterate auction bids: %w", err)
	}

	return bids, nil
}

func (r *auctionRepository) auctionExists(ctx context.Context, id uint64) (bool, error) {
	var found int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM auctions WHERE id = $1`, int64(id)).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check auction exists: %w", err)
}

func scanBid(rows *sql.Rows) (domain.Bid, error) {
	var (
		bid       domain.Bid
		auctionID int64
		amount    int64
	)
	if err := rows.Scan(&auctionID, &bid.Bidder, &amount, &bid.Timestamp); err != nil {
		return domain.Bid{}, fmt.Errorf("scan bid row: %w", err)
	}
	bid.AuctionID = uint64(auctionID)
	bid.Amount = uint64(amount)
	return bid, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.AuctionRepository = (*auctionRepository)(nil)
