package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/ams/internal/domain"
	"github.com/vladislavdragonenkov/ams/internal/service/auction"
	"github.com/vladislavdragonenkov/ams/internal/service/dispatch"
	"github.com/vladislavdragonenkov/ams/internal/storage/memory"
)

// AuctionLifecycleTestSuite гоняет полный цикл аукциона через HTTP API:
// старт, ставки, закрытие, определение победителя, запросы истории.
type AuctionLifecycleTestSuite struct {
	suite.Suite
	server *httptest.Server
	outbox domain.OutboxRepository
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (suite *AuctionLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "integration-test")

	store := memory.NewStore()
	suite.outbox = memory.NewOutboxRepository()

	engine := auction.NewEngine(
		memory.NewAuctionRepository(store),
		memory.NewBidderIndexRepository(store),
		memory.NewSequenceRepository(store),
		auction.WithOutbox(suite.outbox),
		auction.WithLogger(logger),
	)

	suite.server = httptest.NewServer(dispatch.NewDispatcher(engine, logger).Handler())
}

func (suite *AuctionLifecycleTestSuite) TearDownTest() {
	suite.server.Close()
}

// call отправляет конверт {type, payload} и возвращает разобранный ответ.
func (suite *AuctionLifecycleTestSuite) call(opType string, payload any) (int, apiResponse) {
	envelope := map[string]any{"type": opType}
	if payload != nil {
		envelope["payload"] = payload
	}
	body, err := json.Marshal(envelope)
	require.NoError(suite.T(), err)

	resp, err := suite.server.Client().Post(
		suite.server.URL+"/v1/dispatch",
		"application/json",
		bytes.NewReader(body),
	)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	var parsed apiResponse
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func (suite *AuctionLifecycleTestSuite) mustCall(opType string, payload any, result any) {
	status, parsed := suite.call(opType, payload)
	require.Equal(suite.T(), http.StatusOK, status)
	require.True(suite.T(), parsed.OK)
	if result != nil {
		require.NoError(suite.T(), json.Unmarshal(parsed.Result, result))
	}
}

func (suite *AuctionLifecycleTestSuite) startAuction(name string, maxParticipants int) uint64 {
	var started struct {
		AuctionID uint64 `json:"auction_id"`
	}
	suite.mustCall("execute_start_auction", map[string]any{
		"name":             name,
		"max_participants": maxParticipants,
	}, &started)
	return started.AuctionID
}

func (suite *AuctionLifecycleTestSuite) placeBid(auctionID uint64, bidder string, amount uint64) {
	suite.mustCall("execute_bid", map[string]any{
		"auction_id": auctionID,
		"bidder":     bidder,
		"amount":     amount,
	}, nil)
}

func (suite *AuctionLifecycleTestSuite) TestSuccessfulAuctionLifecycle() {
	// 1. Стартуем аукцион
	auctionID := suite.startAuction("vintage-guitar", 5)
	require.Equal(suite.T(), uint64(1), auctionID)

	// 2. Три участника делают ставки
	suite.placeBid(auctionID, "alice", 300)
	suite.placeBid(auctionID, "bob", 150)
	suite.placeBid(auctionID, "carol", 225)

	// 3. Ставки возвращаются по возрастанию суммы
	var bids struct {
		Bids []struct {
			Bidder string `json:"bidder"`
			Amount uint64 `json:"amount"`
		} `json:"bids"`
	}
	suite.mustCall("query_get_bids_for_auction", map[string]any{"auction_id": auctionID}, &bids)
	require.Len(suite.T(), bids.Bids, 3)
	require.Equal(suite.T(), []uint64{150, 225, 300}, []uint64{
		bids.Bids[0].Amount, bids.Bids[1].Amount, bids.Bids[2].Amount,
	})

	// 4. Закрываем аукцион
	suite.mustCall("execute_close_auction", map[string]any{"auction_id": auctionID}, nil)

	// 5. Победитель платит вторую цену
	var winner struct {
		AuctionID  uint64 `json:"auction_id"`
		Bidder     string `json:"bidder"`
		AmountOwed uint64 `json:"amount_owed"`
	}
	suite.mustCall("query_get_auction_winner", map[string]any{"auction_id": auctionID}, &winner)
	require.Equal(suite.T(), "alice", winner.Bidder)
	require.Equal(suite.T(), uint64(225), winner.AmountOwed)

	// 6. Повторный запрос возвращает тот же мемоизированный результат
	var repeated struct {
		Bidder     string `json:"bidder"`
		AmountOwed uint64 `json:"amount_owed"`
	}
	suite.mustCall("query_get_auction_winner", map[string]any{"auction_id": auctionID}, &repeated)
	require.Equal(suite.T(), winner.Bidder, repeated.Bidder)
	require.Equal(suite.T(), winner.AmountOwed, repeated.AmountOwed)

	// 7. Outbox содержит полную последовательность событий
	messages, err := suite.outbox.PullPending(0)
	require.NoError(suite.T(), err)

	eventTypes := make([]string, 0, len(messages))
	for _, msg := range messages {
		require.Equal(suite.T(), "auction", msg.AggregateType)
		require.Equal(suite.T(), "1", msg.AggregateID)
		eventTypes = append(eventTypes, msg.EventType)
	}
	require.Equal(suite.T(), []string{
		"auction.started",
		"bid.placed",
		"bid.placed",
		"bid.placed",
		"auction.closed",
		"winner.determined",
	}, eventTypes)
}

func (suite *AuctionLifecycleTestSuite) TestTieBreakLatestBidWins() {
	auctionID := suite.startAuction("tie-break", 4)

	suite.placeBid(auctionID, "alice", 500)
	suite.placeBid(auctionID, "bob", 500)

	suite.mustCall("execute_close_auction", map[string]any{"auction_id": auctionID}, nil)

	var winner struct {
		Bidder     string `json:"bidder"`
		AmountOwed uint64 `json:"amount_owed"`
	}
	suite.mustCall("query_get_auction_winner", map[string]any{"auction_id": auctionID}, &winner)

	// При равных суммах выигрывает более поздняя ставка.
	require.Equal(suite.T(), "bob", winner.Bidder)
	require.Equal(suite.T(), uint64(500), winner.AmountOwed)
}

func (suite *AuctionLifecycleTestSuite) TestConflictAndNotFoundMapping() {
	auctionID := suite.startAuction("small-lot", 2)
	suite.placeBid(auctionID, "alice", 100)

	// Повторная ставка того же участника
	status, resp := suite.call("execute_bid", map[string]any{
		"auction_id": auctionID, "bidder": "alice", "amount": 200,
	})
	require.Equal(suite.T(), http.StatusConflict, status)
	require.Equal(suite.T(), "bid_already_placed", resp.Error.Code)

	// Переполнение лимита участников
	suite.placeBid(auctionID, "bob", 120)
	status, resp = suite.call("execute_bid", map[string]any{
		"auction_id": auctionID, "bidder": "carol", "amount": 300,
	})
	require.Equal(suite.T(), http.StatusConflict, status)
	require.Equal(suite.T(), "max_participants_reached", resp.Error.Code)

	// Победитель до закрытия аукциона
	status, resp = suite.call("query_get_auction_winner", map[string]any{"auction_id": auctionID})
	require.Equal(suite.T(), http.StatusConflict, status)
	require.Equal(suite.T(), "auction_in_progress", resp.Error.Code)

	// Несуществующий аукцион
	status, resp = suite.call("execute_close_auction", map[string]any{"auction_id": uint64(999)})
	require.Equal(suite.T(), http.StatusNotFound, status)
	require.Equal(suite.T(), "auction_not_found", resp.Error.Code)
}

func (suite *AuctionLifecycleTestSuite) TestNotEnoughBidsForWinner() {
	auctionID := suite.startAuction("lonely-lot", 3)
	suite.placeBid(auctionID, "alice", 100)

	suite.mustCall("execute_close_auction", map[string]any{"auction_id": auctionID}, nil)

	status, resp := suite.call("query_get_auction_winner", map[string]any{"auction_id": auctionID})
	require.Equal(suite.T(), http.StatusConflict, status)
	require.Equal(suite.T(), "not_enough_bids", resp.Error.Code)
}

func (suite *AuctionLifecycleTestSuite) TestBidderHistoryAcrossAuctions() {
	first := suite.startAuction("lot-1", 3)
	second := suite.startAuction("lot-2", 3)
	third := suite.startAuction("lot-3", 3)

	suite.placeBid(first, "alice", 100)
	suite.placeBid(second, "alice", 200)
	suite.placeBid(third, "alice", 300)
	suite.placeBid(second, "bob", 500)

	// Полная история участника по возрастанию ID аукциона
	var history struct {
		Bids []struct {
			AuctionID uint64 `json:"auction_id"`
			Amount    uint64 `json:"amount"`
		} `json:"bids"`
	}
	suite.mustCall("query_get_bids_for_bidder", map[string]any{"bidder": "alice"}, &history)
	require.Len(suite.T(), history.Bids, 3)
	require.Equal(suite.T(), uint64(first), history.Bids[0].AuctionID)
	require.Equal(suite.T(), uint64(third), history.Bids[2].AuctionID)

	// Пагинация с исключающим курсором
	var page struct {
		Bids []struct {
			AuctionID uint64 `json:"auction_id"`
		} `json:"bids"`
	}
	suite.mustCall("query_get_bids_for_bidder", map[string]any{
		"bidder":      "alice",
		"start_after": first,
		"limit":       1,
	}, &page)
	require.Len(suite.T(), page.Bids, 1)
	require.Equal(suite.T(), second, page.Bids[0].AuctionID)

	// Текущий счётчик аукционов
	var current struct {
		AuctionID uint64 `json:"auction_id"`
	}
	suite.mustCall("query_get_current_auction_id", nil, &current)
	require.Equal(suite.T(), third, current.AuctionID)
}

func TestAuctionLifecycle(t *testing.T) {
	suite.Run(t, new(AuctionLifecycleTestSuite))
}
