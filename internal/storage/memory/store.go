package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/ams/internal/domain"
)

// Store — общее in-memory состояние всех репозиториев. Один mutex на три
// региона (аукционы, индекс участников, счётчик) гарантирует, что двойная
// запись PlaceBid выполняется в одной критической секции.
type Store struct {
	mu          sync.RWMutex
	auctions    map[uint64]domain.Auction
	bidderIndex map[string]map[uint64]domain.Bid
	currentID   uint64
}

// NewStore создаёт пустое in-memory хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		auctions:    make(map[uint64]domain.Auction),
		bidderIndex: make(map[string]map[uint64]domain.Bid),
	}
}

// cloneAuction делает глубокую копию, чтобы избежать непредсказуемых мутаций извне.
func cloneAuction(src domain.Auction) domain.Auction {
	dst := src
	dst.SortedBids = append([]domain.Bid(nil), src.SortedBids...)
	if src.Winner != nil {
		winner := *src.Winner
		dst.Winner = &winner
	}
	return dst
}
