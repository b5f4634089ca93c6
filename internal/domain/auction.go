package domain

import "sort"

// MinParticipants — минимально допустимый cap участников: аукцион второй
// цены не определён для меньшего числа ставок.
const MinParticipants = 2

// Auction агрегирует состояние одного аукциона и его отсортированный список ставок.
type Auction struct {
	// ID назначается аллокатором один раз и никогда не переиспользуется.
	ID uint64
	// Name — отображаемое имя аукциона.
	Name string
	// MaxParticipants ограничивает число принимаемых ставок.
	MaxParticipants uint64
	// InProgress — флаг жизненного цикла: true с создания до закрытия,
	// обратного перехода нет.
	InProgress bool
	// SortedBids отсортирован по возрастанию суммы; при равных суммах
	// сохраняется порядок подачи.
	SortedBids []Bid
	// Winner кэшируется после первого вычисления и больше не перезаписывается.
	Winner *Winner
}

// NewAuction создаёт открытый аукцион без ставок.
func NewAuction(id uint64, name string, maxParticipants uint64) Auction {
	return Auction{
		ID:              id,
		Name:            name,
		MaxParticipants: maxParticipants,
		InProgress:      true,
		SortedBids:      []Bid{},
	}
}

// InsertBid вставляет ставку в отсортированную позицию. Агрегат — чистое
// значение: персистентность лежит на репозитории, метод только мутирует слайс.
func (a *Auction) InsertBid(bid Bid) error {
	if uint64(len(a.SortedBids)) >= a.MaxParticipants {
		return ErrMaxParticipantsReached
	}

	// Первая позиция со строго большей суммой: равные суммы остаются
	// перед новой ставкой, порядок подачи сохраняется.
	idx := sort.Search(len(a.SortedBids), func(i int) bool {
		return a.SortedBids[i].Amount > bid.Amount
	})

	a.SortedBids = append(a.SortedBids, Bid{})
	copy(a.SortedBids[idx+1:], a.SortedBids[idx:])
	a.SortedBids[idx] = bid

	return nil
}

// HighestBid возвращает ставку с максимальным ключом (amount, timestamp):
// при равных суммах побеждает более поздняя ставка.
func (a *Auction) HighestBid() (Bid, bool) {
	idx := a.highestBidIndex()
	if idx < 0 {
		return Bid{}, false
	}
	return a.SortedBids[idx], true
}

// SecondHighestBid возвращает максимальную по (amount, timestamp) ставку
// среди всех, кроме наивысшей. Требует минимум двух ставок.
func (a *Auction) SecondHighestBid() (Bid, bool) {
	if len(a.SortedBids) < 2 {
		return Bid{}, false
	}

	highest := a.highestBidIndex()
	best := -1
	for i := range a.SortedBids {
		if i == highest {
			continue
		}
		if best < 0 || bidLess(a.SortedBids[best], a.SortedBids[i]) {
			best = i
		}
	}
	return a.SortedBids[best], true
}

func (a *Auction) highestBidIndex() int {
	best := -1
	for i := range a.SortedBids {
		if best < 0 || !bidLess(a.SortedBids[i], a.SortedBids[best]) {
			best = i
		}
	}
	return best
}

// bidLess сравнивает ставки по ключу (amount, timestamp).
func bidLess(x, y Bid) bool {
	if x.Amount != y.Amount {
		return x.Amount < y.Amount
	}
	return x.Timestamp.Before(y.Timestamp)
}

// ValidateInvariants проверяет согласованность агрегата и возвращает список замечаний.
func (a *Auction) ValidateInvariants() []error {
	var errs []error

	if a.Name == "" {
		errs = append(errs, ErrAuctionNameRequired)
	}
	if a.MaxParticipants < MinParticipants {
		errs = append(errs, ErrTooFewParticipants)
	}
	if uint64(len(a.SortedBids)) > a.MaxParticipants {
		errs = append(errs, ErrMaxParticipantsReached)
	}
	for i := 1; i < len(a.SortedBids); i++ {
		if a.SortedBids[i-1].Amount > a.SortedBids[i].Amount {
			errs = append(errs, ErrBidsNotSorted)
			break
		}
	}
	if a.Winner != nil && a.InProgress {
		errs = append(errs, ErrAuctionInProgress)
	}

	return errs
}
