package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/ams/internal/domain"
)

// bidderIndexInMemory — реализация BidderIndexRepository поверх общего Store.
type bidderIndexInMemory struct {
	store *Store
}

// NewBidderIndexRepository возвращает in-memory индекс участников.
func NewBidderIndexRepository(store *Store) domain.BidderIndexRepository {
	return &bidderIndexInMemory{store: store}
}

// Has проверяет наличие ставки участника в аукционе.
func (r *bidderIndexInMemory) Has(bidder string, auctionID uint64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.bidderIndex[bidder][auctionID]
	return ok, nil
}

// ListForBidder возвращает ставки участника по возрастанию ID аукциона.
// Для неизвестного участника возвращается пустой список, не ошибка.
func (r *bidderIndexInMemory) ListForBidder(bidder string, startAfter *uint64, limit int) ([]domain.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	byAuction := r.store.bidderIndex[bidder]
	ids := make([]uint64, 0, len(byAuction))
	for id := range byAuction {
		if startAfter != nil && id <= *startAfter {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	result := make([]domain.Bid, 0, len(ids))
	for _, id := range ids {
		result = append(result, byAuction[id])
	}

	return result, nil
}

var _ domain.BidderIndexRepository = (*bidderIndexInMemory)(nil)
