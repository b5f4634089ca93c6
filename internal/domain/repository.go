package domain

// AuctionRepository описывает требования к хранилищу аукционов.
//
// PlaceBid — единственная операция с двумя записями: ставка попадает и в
// отсортированный список аукциона, и в индекс участников. Реализация обязана
// применить обе записи атомарно: частично применённая ставка — нарушение
// консистентности.
type AuctionRepository interface {
	// Create сохраняет новый аукцион. Возвращает ErrAuctionAlreadyExists,
	// если запись с таким ID уже существует.
	Create(auction Auction) error
	// Get возвращает аукцион по идентификатору или ErrAuctionNotFound, если его нет.
	Get(id uint64) (Auction, error)
	// PlaceBid вставляет ставку в отсортированный список аукциона и в индекс
	// участников одной транзакцией. Возвращает ErrAuctionNotFound,
	// ErrAuctionNotInProgress, ErrMaxParticipantsReached или ErrBidAlreadyPlaced.
	PlaceBid(bid Bid) error
	// Close переводит аукцион в закрытое состояние. Повторное закрытие —
	// ErrAuctionNotInProgress, а не тихий no-op.
	Close(id uint64) error
	// SetWinner кэширует вычисленного победителя. Уже установленный победитель
	// не перезаписывается: ErrWinnerAlreadySet.
	SetWinner(id uint64, winner Winner) error
	// ListBids возвращает ставки аукциона по возрастанию суммы. Курсор
	// startAfter исключающий (пропускаются ставки с суммой <= курсора),
	// limit <= 0 означает «все оставшиеся».
	ListBids(auctionID uint64, startAfter *uint64, limit int) ([]Bid, error)
}

// BidderIndexRepository — вторичный индекс (участник, аукцион) -> ставка.
// Записи в индекс идут только через AuctionRepository.PlaceBid.
type BidderIndexRepository interface {
	// Has сообщает, есть ли у участника ставка в данном аукционе.
	Has(bidder string, auctionID uint64) (bool, error)
	// ListForBidder возвращает все ставки участника по возрастанию ID
	// аукциона. Курсор startAfter исключающий, limit <= 0 — «все оставшиеся».
	// Для неизвестного участника возвращается пустой список, не ошибка.
	ListForBidder(bidder string, startAfter *uint64, limit int) ([]Bid, error)
}

// SequenceRepository выдаёт плотные монотонные идентификаторы аукционов.
type SequenceRepository interface {
	// Next атомарно инкрементирует счётчик и возвращает новое значение.
	Next() (uint64, error)
	// Current возвращает идентификатор последнего стартовавшего аукциона
	// (0 до первого старта).
	Current() (uint64, error)
}
