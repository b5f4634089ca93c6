package domain

import "errors"

var (
	// Ошибка отсутствующего имени аукциона.
	ErrAuctionNameRequired = errors.New("auction name is required")
	// Ошибка при cap участников меньше двух.
	ErrTooFewParticipants = errors.New("there must be at least 2 participants")
	// Ошибка отсутствующего идентификатора участника.
	ErrBidderRequired = errors.New("bidder is required")
	// Ошибка нулевой ставки.
	ErrBidAmountTooLow = errors.New("bid amount must be greater than 0")
	// ErrAuctionAlreadyExists возвращается при попытке создать аукцион с занятым ID.
	ErrAuctionAlreadyExists = errors.New("auction already exists")
	// ErrAuctionNotFound возвращается, если аукцион не найден в репозитории.
	ErrAuctionNotFound = errors.New("auction not found")
	// ErrAuctionNotInProgress — ставка или закрытие по уже закрытому аукциону.
	ErrAuctionNotInProgress = errors.New("auction is not in progress")
	// ErrAuctionInProgress — запрос победителя до закрытия аукциона.
	ErrAuctionInProgress = errors.New("auction is in progress")
	// ErrBidAlreadyPlaced — участник уже сделал ставку в этом аукционе.
	ErrBidAlreadyPlaced = errors.New("participant has already placed a bid for this auction")
	// ErrMaxParticipantsReached — список ставок заполнен до cap.
	ErrMaxParticipantsReached = errors.New("auction has reached the maximum number of participants")
	// ErrNoBidsFound — победитель не вычислим: ставок нет.
	ErrNoBidsFound = errors.New("auction has no bids, cannot determine winner")
	// ErrNotEnoughBids — победитель не вычислим: вторая цена не определена.
	ErrNotEnoughBids = errors.New("auction has only one bid, cannot determine winner")
	// ErrWinnerAlreadySet — защита от перезаписи закэшированного победителя.
	ErrWinnerAlreadySet = errors.New("auction winner is already set")
	// ErrBidsNotSorted сигнализирует о нарушении сортировки списка ставок.
	ErrBidsNotSorted = errors.New("sorted_bids are not sorted by amount")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)
