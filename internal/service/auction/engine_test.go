package auction_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ams/internal/domain"
	"github.com/vladislavdragonenkov/ams/internal/service/auction"
	"github.com/vladislavdragonenkov/ams/internal/storage/memory"
)

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

// fakeClock выдаёт строго возрастающие метки времени.
type fakeClock struct {
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

func newTestEngine(t *testing.T) (*auction.Engine, domain.OutboxRepository) {
	t.Helper()

	store := memory.NewStore()
	outbox := memory.NewOutboxRepository()
	engine := auction.NewEngine(
		memory.NewAuctionRepository(store),
		memory.NewBidderIndexRepository(store),
		memory.NewSequenceRepository(store),
		auction.WithOutbox(outbox),
		auction.WithLogger(loggerForTests()),
		auction.WithClock(newFakeClock().Now),
	)
	return engine, outbox
}

func TestEngine_StartAuction(t *testing.T) {
	engine, _ := newTestEngine(t)

	first, err := engine.StartAuction("rare-painting", 5)
	require.NoError(t, err)
	require.Equal(t, uint64(1), first.ID)
	require.True(t, first.InProgress)

	second, err := engine.StartAuction("vintage-car", 2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.ID)

	current, err := engine.CurrentAuctionID()
	require.NoError(t, err)
	require.Equal(t, uint64(2), current)
}

func TestEngine_StartAuctionValidation(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.StartAuction("", 5)
	require.ErrorIs(t, err, domain.ErrAuctionNameRequired)

	_, err = engine.StartAuction("solo", 1)
	require.ErrorIs(t, err, domain.ErrTooFewParticipants)

	// Отклонённые запросы не тратят идентификаторы.
	current, err := engine.CurrentAuctionID()
	require.NoError(t, err)
	require.Equal(t, uint64(0), current)
}

func TestEngine_PlaceBid(t *testing.T) {
	engine, _ := newTestEngine(t)

	started, err := engine.StartAuction("rare-painting", 3)
	require.NoError(t, err)

	require.NoError(t, engine.PlaceBid(started.ID, "alice", 300))
	require.NoError(t, engine.PlaceBid(started.ID, "bob", 100))
	require.NoError(t, engine.PlaceBid(started.ID, "carol", 200))

	bids, err := engine.BidsForAuction(started.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, bids, 3)
	require.Equal(t, uint64(100), bids[0].Amount)
	require.Equal(t, uint64(200), bids[1].Amount)
	require.Equal(t, uint64(300), bids[2].Amount)
}

func TestEngine_PlaceBidValidation(t *testing.T) {
	engine, _ := newTestEngine(t)

	started, err := engine.StartAuction("rare-painting", 2)
	require.NoError(t, err)

	require.ErrorIs(t, engine.PlaceBid(started.ID, "", 100), domain.ErrBidderRequired)
	require.ErrorIs(t, engine.PlaceBid(started.ID, "alice", 0), domain.ErrBidAmountTooLow)
	require.ErrorIs(t, engine.PlaceBid(99, "alice", 100), domain.ErrAuctionNotFound)

	require.NoError(t, engine.PlaceBid(started.ID, "alice", 100))
	require.ErrorIs(t, engine.PlaceBid(started.ID, "alice", 500), domain.ErrBidAlreadyPlaced)

	require.NoError(t, engine.PlaceBid(started.ID, "bob", 200))
	require.ErrorIs(t, engine.PlaceBid(started.ID, "carol", 300), domain.ErrMaxParticipantsReached)
}

func TestEngine_CloseAuction(t *testing.T) {
	engine, _ := newTestEngine(t)

	started, err := engine.StartAuction("rare-painting", 2)
	require.NoError(t, err)

	require.NoError(t, engine.CloseAuction(started.ID))
	require.ErrorIs(t, engine.CloseAuction(started.ID), domain.ErrAuctionNotInProgress)
	require.ErrorIs(t, engine.CloseAuction(99), domain.ErrAuctionNotFound)

	require.ErrorIs(t, engine.PlaceBid(started.ID, "alice", 100), domain.ErrAuctionNotInProgress)
}

func TestEngine_Winner(t *testing.T) {
	engine, _ := newTestEngine(t)

	started, err := engine.StartAuction("rare-painting", 5)
	require.NoError(t, err)

	require.NoError(t, engine.PlaceBid(started.ID, "alice", 300))
	require.NoError(t, engine.PlaceBid(started.ID, "bob", 100))
	require.NoError(t, engine.PlaceBid(started.ID, "carol", 200))

	_, err = engine.Winner(started.ID)
	require.ErrorIs(t, err, domain.ErrAuctionInProgress)

	require.NoError(t, engine.CloseAuction(started.ID))

	winner, err := engine.Winner(started.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", winner.Bidder)
	// Победитель платит вторую по величине ставку.
	require.Equal(t, uint64(200), winner.AmountOwed)

	// Повторный запрос отдаёт сохранённый результат.
	again, err := engine.Winner(started.ID)
	require.NoError(t, err)
	require.Equal(t, winner, again)
}

func TestEngine_WinnerTieLatestBidWins(t *testing.T) {
	engine, _ := newTestEngine(t)

	started, err := engine.StartAuction("rare-painting", 3)
	require.NoError(t, err)

	require.NoError(t, engine.PlaceBid(started.ID, "alice", 300))
	require.NoError(t, engine.PlaceBid(started.ID, "bob", 300))
	require.NoError(t, engine.CloseAuction(started.ID))

	winner, err := engine.Winner(started.ID)
	require.NoError(t, err)
	// При равных суммах побеждает более поздняя ставка.
	require.Equal(t, "bob", winner.Bidder)
	require.Equal(t, uint64(300), winner.AmountOwed)
}

func TestEngine_WinnerNotEnoughBids(t *testing.T) {
	engine, _ := newTestEngine(t)

	empty, err := engine.StartAuction("empty", 2)
	require.NoError(t, err)
	require.NoError(t, engine.CloseAuction(empty.ID))
	_, err = engine.Winner(empty.ID)
	require.ErrorIs(t, err, domain.ErrNoBidsFound)

	single, err := engine.StartAuction("single", 2)
	require.NoError(t, err)
	require.NoError(t, engine.PlaceBid(single.ID, "alice", 100))
	require.NoError(t, engine.CloseAuction(single.ID))
	_, err = engine.Winner(single.ID)
	require.ErrorIs(t, err, domain.ErrNotEnoughBids)

	_, err = engine.Winner(99)
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func TestEngine_BidsForBidder(t *testing.T) {
	engine, _ := newTestEngine(t)

	for i := 0; i < 4; i++ {
		started, err := engine.StartAuction("auction", 5)
		require.NoError(t, err)
		require.NoError(t, engine.PlaceBid(started.ID, "alice", uint64(100*(i+1))))
	}

	bids, err := engine.BidsForBidder("alice", nil, 0)
	require.NoError(t, err)
	require.Len(t, bids, 4)
	require.Equal(t, uint64(1), bids[0].AuctionID)
	require.Equal(t, uint64(4), bids[3].AuctionID)

	cursor := uint64(1)
	page, err := engine.BidsForBidder("alice", &cursor, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(2), page[0].AuctionID)
	require.Equal(t, uint64(3), page[1].AuctionID)

	_, err = engine.BidsForBidder("", nil, 0)
	require.ErrorIs(t, err, domain.ErrBidderRequired)

	empty, err := engine.BidsForBidder("nobody", nil, 0)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestEngine_BidsForAuctionPagination(t *testing.T) {
	engine, _ := newTestEngine(t)

	started, err := engine.StartAuction("paginated", 10)
	require.NoError(t, err)
	for i, bidder := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, engine.PlaceBid(started.ID, bidder, uint64(100*(i+1))))
	}

	cursor := uint64(200)
	page, err := engine.BidsForAuction(started.ID, &cursor, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(300), page[0].Amount)
	require.Equal(t, uint64(400), page[1].Amount)
}

func TestEngine_OutboxEvents(t *testing.T) {
	engine, outbox := newTestEngine(t)

	started, err := engine.StartAuction("rare-painting", 3)
	require.NoError(t, err)
	require.NoError(t, engine.PlaceBid(started.ID, "alice", 300))
	require.NoError(t, engine.PlaceBid(started.ID, "bob", 100))
	require.NoError(t, engine.CloseAuction(started.ID))
	_, err = engine.Winner(started.ID)
	require.NoError(t, err)

	pending, err := outbox.PullPending(0)
	require.NoError(t, err)
	require.Len(t, pending, 5)

	types := make([]string, 0, len(pending))
	for _, msg := range pending {
		require.Equal(t, "auction", msg.AggregateType)
		require.Equal(t, "1", msg.AggregateID)
		types = append(types, msg.EventType)
	}
	require.Equal(t, []string{
		"auction.started",
		"bid.placed",
		"bid.placed",
		"auction.closed",
		"winner.determined",
	}, types)
}
