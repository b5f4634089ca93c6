package memory

import (
	"github.com/vladislavdragonenkov/ams/internal/domain"
)

// auctionRepositoryInMemory — реализация AuctionRepository поверх общего Store.
type auctionRepositoryInMemory struct {
	store *Store
}

// NewAuctionRepository возвращает in-memory репозиторий аукционов.
func NewAuctionRepository(store *Store) domain.AuctionRepository {
	return &auctionRepositoryInMemory{store: store}
}

// Create сохраняет новый аукцион, если ID ещё не занят.
func (r *auctionRepositoryInMemory) Create(auction domain.Auction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.auctions[auction.ID]; exists {
		return domain.ErrAuctionAlreadyExists
	}
	r.store.auctions[auction.ID] = cloneAuction(auction)
	return nil
}

// Get возвращает аукцион или ErrAuctionNotFound, если его нет.
func (r *auctionRepositoryInMemory) Get(id uint64) (domain.Auction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	auction, ok := r.store.auctions[id]
	if !ok {
		return domain.Auction{}, domain.ErrAuctionNotFound
	}
	return cloneAuction(auction), nil
}

// PlaceBid применяет обе записи — отсортированный список и индекс участников —
// под одним lock, поэтому частичное применение невозможно.
func (r *auctionRepositoryInMemory) PlaceBid(bid domain.Bid) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	auction, ok := r.store.auctions[bid.AuctionID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if !auction.InProgress {
		return domain.ErrAuctionNotInProgress
	}
	if _, dup := r.store.bidderIndex[bid.Bidder][bid.AuctionID]; dup {
		return domain.ErrBidAlreadyPlaced
	}

	updated := cloneAuction(auction)
	if err := updated.InsertBid(bid); err != nil {
		return err
	}

	r.store.auctions[bid.AuctionID] = updated
	byAuction, ok := r.store.bidderIndex[bid.Bidder]
	if !ok {
		byAuction = make(map[uint64]domain.Bid)
		r.store.bidderIndex[bid.Bidder] = byAuction
	}
	byAuction[bid.AuctionID] = bid

	return nil
}

// Close переводит аукцион в закрытое состояние; повторное закрытие — ошибка.
func (r *auctionRepositoryInMemory) Close(id uint64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	auction, ok := r.store.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if !auction.InProgress {
		return domain.ErrAuctionNotInProgress
	}

	auction.InProgress = false
	r.store.auctions[id] = auction
	return nil
}

// SetWinner кэширует победителя; уже установленное значение не перезаписывается.
func (r *auctionRepositoryInMemory) SetWinner(id uint64, winner domain.Winner) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	auction, ok := r.store.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if auction.Winner != nil {
		return domain.ErrWinnerAlreadySet
	}

	auction.Winner = &winner
	r.store.auctions[id] = auction
	return nil
}

// ListBids возвращает срез ставок аукциона по возрастанию суммы с курсорной пагинацией.
func (r *auctionRepositoryInMemory) ListBids(auctionID uint64, startAfter *uint64, limit int) ([]domain.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	auction, ok := r.store.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}

	result := make([]domain.Bid, 0, len(auction.SortedBids))
	for _, bid := range auction.SortedBids {
		if startAfter != nil && bid.Amount <= *startAfter {
			continue
		}
		result = append(result, bid)
		if limit > 0 && len(result) >= limit {
			break
		}
	}

	return result, nil
}

var _ domain.AuctionRepository = (*auctionRepositoryInMemory)(nil)
