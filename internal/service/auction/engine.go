package auction

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ams/internal/domain"
	"github.com/vladislavdragonenkov/ams/internal/metrics"
)

// Option настраивает Engine.
type Option func(*Engine)

// WithOutbox задаёт outbox-репозиторий для публикации событий.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(e *Engine) {
		e.outbox = outbox
	}
}

// WithMetrics задаёт метрики движка.
func WithMetrics(m *metrics.AuctionMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger задаёт logger движка.
func WithLogger(logger *log.Entry) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock задаёт источник времени для ставок.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine реализует аукцион второй цены: побеждает наивысшая ставка,
// а платит победитель сумму второй по величине.
type Engine struct {
	auctions domain.AuctionRepository
	bidders  domain.BidderIndexRepository
	sequence domain.SequenceRepository
	outbox   domain.OutboxRepository
	metrics  *metrics.AuctionMetrics
	logger   *log.Entry
	now      func() time.Time
}

// NewEngine создаёт движок аукционов поверх репозиториев хранилища.
func NewEngine(
	auctions domain.AuctionRepository,
	bidders domain.BidderIndexRepository,
	sequence domain.SequenceRepository,
	options ...Option,
) *Engine {
	engine := &Engine{
		auctions: auctions,
		bidders:  bidders,
		sequence: sequence,
		now:      time.Now,
	}
	for _, option := range options {
		option(engine)
	}

	if engine.logger == nil {
		engine.logger = log.WithField("component", "auction-engine")
	}

	return engine
}

// StartAuction открывает новый аукцион и возвращает его с присвоенным ID.
// Идентификатор выделяется только после валидации входа, чтобы счётчик
// оставался плотным.
func (e *Engine) StartAuction(name string, maxParticipants uint64) (domain.Auction, error) {
	defer e.observeDuration("start_auction", e.nowUTC())

	if name == "" {
		return domain.Auction{}, domain.ErrAuctionNameRequired
	}
	if maxParticipants < domain.MinParticipants {
		return domain.Auction{}, domain.ErrTooFewParticipants
	}

	id, err := e.sequence.Next()
	if err != nil {
		return domain.Auction{}, fmt.Errorf("allocate auction id: %w", err)
	}

	auction := domain.NewAuction(id, name, maxParticipants)
	if err := e.auctions.Create(auction); err != nil {
		return domain.Auction{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordAuctionStarted()
	}
	e.emitEvent(id, "auction.started", map[string]any{
		"auction_id":       id,
		"name":             name,
		"max_participants": maxParticipants,
	})

	e.logger.WithFields(log.Fields{
		"auction_id":       id,
		"max_participants": maxParticipants,
	}).Info("auction started")

	return auction, nil
}

// PlaceBid принимает ставку участника в открытом аукционе.
func (e *Engine) PlaceBid(auctionID uint64, bidder string, amount uint64) error {
	defer e.observeDuration("place_bid", e.nowUTC())

	bid := domain.Bid{
		AuctionID: auctionID,
		Amount:    amount,
		Bidder:    bidder,
		Timestamp: e.nowUTC(),
	}
	if errs := bid.ValidateInvariants(); len(errs) > 0 {
		e.recordBidRejected(errs[0])
		return errs[0]
	}

	// Быстрая проверка по индексу до записи: репозиторий всё равно
	// повторит её атомарно.
	has, err := e.bidders.Has(bidder, auctionID)
	if err != nil {
		return fmt.Errorf("check existing bid: %w", err)
	}
	if has {
		e.recordBidRejected(domain.ErrBidAlreadyPlaced)
		return domain.ErrBidAlreadyPlaced
	}

	if err := e.auctions.PlaceBid(bid); err != nil {
		e.recordBidRejected(err)
		return err
	}

	if e.metrics != nil {
		e.metrics.RecordBidPlaced()
	}
	e.emitEvent(auctionID, "bid.placed", map[string]any{
		"auction_id": auctionID,
		"bidder":     bidder,
		"amount":     amount,
	})

	e.logger.WithFields(log.Fields{
		"auction_id": auctionID,
		"bidder":     bidder,
		"amount":     amount,
	}).Info("bid placed")

	return nil
}

// CloseAuction прекращает приём ставок. Закрыть можно с любым числом
// ставок, в том числе без единой.
func (e *Engine) CloseAuction(auctionID uint64) error {
	defer e.observeDuration("close_auction", e.nowUTC())

	if err := e.auctions.Close(auctionID); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.RecordAuctionClosed()
	}
	e.emitEvent(auctionID, "auction.closed", map[string]any{
		"auction_id": auctionID,
	})

	e.logger.WithField("auction_id", auctionID).Info("auction closed")

	return nil
}

// Winner возвращает победителя закрытого аукциона. Первый успешный вызов
// вычисляет и запоминает результат, последующие отдают сохранённый.
func (e *Engine) Winner(auctionID uint64) (domain.Winner, error) {
	defer e.observeDuration("winner", e.nowUTC())

	auction, err := e.auctions.Get(auctionID)
	if err != nil {
		return domain.Winner{}, err
	}
	if auction.InProgress {
		return domain.Winner{}, domain.ErrAuctionInProgress
	}
	if auction.Winner != nil {
		return *auction.Winner, nil
	}

	switch len(auction.SortedBids) {
	case 0:
		return domain.Winner{}, domain.ErrNoBidsFound
	case 1:
		return domain.Winner{}, domain.ErrNotEnoughBids
	}

	highest, ok := auction.HighestBid()
	if !ok {
		return domain.Winner{}, domain.ErrNoBidsFound
	}
	second, ok := auction.SecondHighestBid()
	if !ok {
		return domain.Winner{}, domain.ErrNotEnoughBids
	}

	winner := domain.Winner{
		AuctionID:  auctionID,
		Bidder:     highest.Bidder,
		AmountOwed: second.Amount,
	}

	if err := e.auctions.SetWinner(auctionID, winner); err != nil {
		// Конкурирующий вызов успел записать результат первым.
		if errors.Is(err, domain.ErrWinnerAlreadySet) {
			stored, getErr := e.auctions.Get(auctionID)
			if getErr == nil && stored.Winner != nil {
				return *stored.Winner, nil
			}
		}
		return domain.Winner{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordWinnerComputed()
	}
	e.emitEvent(auctionID, "winner.determined", map[string]any{
		"auction_id":  auctionID,
		"bidder":      winner.Bidder,
		"amount_owed": winner.AmountOwed,
	})

	e.logger.WithFields(log.Fields{
		"auction_id":  auctionID,
		"bidder":      winner.Bidder,
		"amount_owed": winner.AmountOwed,
	}).Info("winner determined")

	return winner, nil
}

// Auction возвращает аукцион со всеми его ставками.
func (e *Engine) Auction(auctionID uint64) (domain.Auction, error) {
	return e.auctions.Get(auctionID)
}

// BidsForAuction возвращает ставки аукциона по возрастанию суммы.
// startAfter — исключающий курсор по сумме, limit<=0 отдаёт все оставшиеся.
func (e *Engine) BidsForAuction(auctionID uint64, startAfter *uint64, limit int) ([]domain.Bid, error) {
	defer e.observeDuration("bids_for_auction", e.nowUTC())
	return e.auctions.ListBids(auctionID, startAfter, limit)
}

// BidsForBidder возвращает ставки участника по возрастанию ID аукциона.
// startAfter — исключающий курсор по ID аукциона.
func (e *Engine) BidsForBidder(bidder string, startAfter *uint64, limit int) ([]domain.Bid, error) {
	defer e.observeDuration("bids_for_bidder", e.nowUTC())

	if bidder == "" {
		return nil, domain.ErrBidderRequired
	}
	return e.bidders.ListForBidder(bidder, startAfter, limit)
}

// CurrentAuctionID возвращает ID последнего запущенного аукциона.
// До первого запуска счётчик равен нулю.
func (e *Engine) CurrentAuctionID() (uint64, error) {
	return e.sequence.Current()
}

func (e *Engine) emitEvent(auctionID uint64, eventType string, payload map[string]any) {
	if e.outbox == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		e.logger.WithError(err).WithField("event_type", eventType).Warn("failed to marshal outbox payload")
		return
	}

	_, err = e.outbox.Enqueue(domain.NewAuctionEventMessage(auctionID, eventType, body))
	if err != nil {
		e.logger.WithError(err).WithFields(log.Fields{
			"auction_id": auctionID,
			"event_type": eventType,
		}).Warn("failed to enqueue outbox event")
		return
	}

	if e.metrics != nil {
		e.metrics.RecordOutboxEvent()
	}
}

func (e *Engine) recordBidRejected(err error) {
	if e.metrics == nil {
		return
	}

	reason := "invalid"
	switch {
	case errors.Is(err, domain.ErrBidAlreadyPlaced):
		reason = "duplicate"
	case errors.Is(err, domain.ErrMaxParticipantsReached):
		reason = "capacity"
	case errors.Is(err, domain.ErrAuctionNotInProgress):
		reason = "closed"
	case errors.Is(err, domain.ErrAuctionNotFound):
		reason = "not_found"
	}
	e.metrics.RecordBidRejected(reason)
}

func (e *Engine) observeDuration(operation string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordOperationDuration(operation, time.Since(start))
}

func (e *Engine) nowUTC() time.Time {
	return e.now().UTC()
}
