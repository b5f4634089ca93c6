package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ams/internal/domain"
	"github.com/vladislavdragonenkov/ams/internal/service/auction"
)

// Типы операций внешнего API. Закрытое множество: любой другой type
// отклоняется без частичного разбора payload.
const (
	OpStartAuction        = "execute_start_auction"
	OpBid                 = "execute_bid"
	OpCloseAuction        = "execute_close_auction"
	OpGetAuctionWinner    = "query_get_auction_winner"
	OpGetBidsForBidder    = "query_get_bids_for_bidder"
	OpGetBidsForAuction   = "query_get_bids_for_auction"
	OpGetCurrentAuctionID = "query_get_current_auction_id"
)

// Envelope — входной конверт запроса.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StartAuctionRequest открывает новый аукцион.
type StartAuctionRequest struct {
	Name            string `json:"name"`
	MaxParticipants uint64 `json:"max_participants"`
}

// BidRequest регистрирует ставку участника. Нулевой auction_id означает
// «текущий аукцион»: идентификаторы выдаются с единицы, ноль свободен.
type BidRequest struct {
	AuctionID uint64 `json:"auction_id,omitempty"`
	Bidder    string `json:"bidder"`
	Amount    uint64 `json:"amount"`
}

// CloseAuctionRequest прекращает приём ставок. Нулевой auction_id означает
// «текущий аукцион».
type CloseAuctionRequest struct {
	AuctionID uint64 `json:"auction_id,omitempty"`
}

// GetAuctionWinnerRequest запрашивает победителя закрытого аукциона.
type GetAuctionWinnerRequest struct {
	AuctionID uint64 `json:"auction_id"`
}

// GetBidsForBidderRequest запрашивает ставки участника с курсором по ID аукциона.
type GetBidsForBidderRequest struct {
	Bidder     string  `json:"bidder"`
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      int     `json:"limit,omitempty"`
}

// GetBidsForAuctionRequest запрашивает ставки аукциона с курсором по сумме.
type GetBidsForAuctionRequest struct {
	AuctionID  uint64  `json:"auction_id"`
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      int     `json:"limit,omitempty"`
}

// StartAuctionResponse возвращает ID открытого аукциона.
type StartAuctionResponse struct {
	AuctionID uint64 `json:"auction_id"`
}

// WinnerResponse возвращает победителя и сумму к оплате.
type WinnerResponse struct {
	AuctionID  uint64 `json:"auction_id"`
	Bidder     string `json:"bidder"`
	AmountOwed uint64 `json:"amount_owed"`
}

// BidView — ставка в ответе API.
type BidView struct {
	AuctionID uint64    `json:"auction_id"`
	Bidder    string    `json:"bidder"`
	Amount    uint64    `json:"amount"`
	PlacedAt  time.Time `json:"placed_at"`
}

// BidsResponse — страница ставок.
type BidsResponse struct {
	Bids []BidView `json:"bids"`
}

// CurrentAuctionIDResponse возвращает ID последнего запущенного аукциона.
type CurrentAuctionIDResponse struct {
	AuctionID uint64 `json:"auction_id"`
}

// Dispatcher разбирает конверты запросов и вызывает движок аукционов.
type Dispatcher struct {
	engine *auction.Engine
	logger *log.Entry
}

// NewDispatcher создаёт диспетчер поверх движка.
func NewDispatcher(engine *auction.Engine, logger *log.Entry) *Dispatcher {
	if logger == nil {
		logger = log.WithField("component", "dispatch")
	}
	return &Dispatcher{engine: engine, logger: logger}
}

// Dispatch выполняет одну операцию и возвращает её результат.
func (d *Dispatcher) Dispatch(envelope Envelope) (any, error) {
	switch envelope.Type {
	case OpStartAuction:
		var req StartAuctionRequest
		if err := decodePayload(envelope.Payload, &req); err != nil {
			return nil, err
		}
		started, err := d.engine.StartAuction(req.Name, req.MaxParticipants)
		if err != nil {
			return nil, err
		}
		return StartAuctionResponse{AuctionID: started.ID}, nil

	case OpBid:
		var req BidRequest
		if err := decodePayload(envelope.Payload, &req); err != nil {
			return nil, err
		}
		auctionID, err := d.resolveAuctionID(req.AuctionID)
		if err != nil {
			return nil, err
		}
		if err := d.engine.PlaceBid(auctionID, req.Bidder, req.Amount); err != nil {
			return nil, err
		}
		return struct{}{}, nil

	case OpCloseAuction:
		var req CloseAuctionRequest
		if err := decodePayload(envelope.Payload, &req); err != nil {
			return nil, err
		}
		auctionID, err := d.resolveAuctionID(req.AuctionID)
		if err != nil {
			return nil, err
		}
		if err := d.engine.CloseAuction(auctionID); err != nil {
			return nil, err
		}
		return struct{}{}, nil

	case OpGetAuctionWinner:
		var req GetAuctionWinnerRequest
		if err := decodePayload(envelope.Payload, &req); err != nil {
			return nil, err
		}
		winner, err := d.engine.Winner(req.AuctionID)
		if err != nil {
			return nil, err
		}
		return WinnerResponse{
			AuctionID:  winner.AuctionID,
			Bidder:     winner.Bidder,
			AmountOwed: winner.AmountOwed,
		}, nil

	case OpGetBidsForBidder:
		var req GetBidsForBidderRequest
		if err := decodePayload(envelope.Payload, &req); err != nil {
			return nil, err
		}
		bids, err := d.engine.BidsForBidder(req.Bidder, req.StartAfter, req.Limit)
		if err != nil {
			return nil, err
		}
		return toBidsResponse(bids), nil

	case OpGetBidsForAuction:
		var req GetBidsForAuctionRequest
		if err := decodePayload(envelope.Payload, &req); err != nil {
			return nil, err
		}
		bids, err := d.engine.BidsForAuction(req.AuctionID, req.StartAfter, req.Limit)
		if err != nil {
			return nil, err
		}
		return toBidsResponse(bids), nil

	case OpGetCurrentAuctionID:
		current, err := d.engine.CurrentAuctionID()
		if err != nil {
			return nil, err
		}
		return CurrentAuctionIDResponse{AuctionID: current}, nil

	default:
		return nil, errUnknownOperation(envelope.Type)
	}
}

// resolveAuctionID подставляет текущий аукцион вместо нулевого идентификатора.
// Движок сам ambient-состояния не читает: подстановка — ответственность API.
func (d *Dispatcher) resolveAuctionID(requested uint64) (uint64, error) {
	if requested != 0 {
		return requested, nil
	}
	current, err := d.engine.CurrentAuctionID()
	if err != nil {
		return 0, err
	}
	if current == 0 {
		return 0, domain.ErrAuctionNotFound
	}
	return current, nil
}

func decodePayload(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return errMalformedPayload(fmt.Errorf("payload is required"))
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return errMalformedPayload(err)
	}
	return nil
}

func toBidsResponse(bids []domain.Bid) BidsResponse {
	views := make([]BidView, 0, len(bids))
	for _, bid := range bids {
		views = append(views, BidView{
			AuctionID: bid.AuctionID,
			Bidder:    bid.Bidder,
			Amount:    bid.Amount,
			PlacedAt:  bid.Timestamp,
		})
	}
	return BidsResponse{Bids: views}
}
