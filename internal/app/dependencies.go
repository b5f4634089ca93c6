package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ams/internal/domain"
	"github.com/vladislavdragonenkov/ams/internal/storage/memory"
	"github.com/vladislavdragonenkov/ams/internal/storage/postgres"
)

// dependencies собирает репозитории выбранного хранилища.
type dependencies struct {
	auctions domain.AuctionRepository
	bidders  domain.BidderIndexRepository
	sequence domain.SequenceRepository
	outbox   domain.OutboxRepository

	// storageCheck используется health-проверкой хранилища.
	storageCheck func() error
	close        func()
}

// initStorage выбирает бекенд: PostgreSQL при заданном DSN, иначе in-memory.
func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*dependencies, error) {
	if cfg.PostgresDSN == "" {
		logger.Info("postgres DSN is not set, using in-memory storage")
		store := memory.NewStore()
		return &dependencies{
			auctions:     memory.NewAuctionRepository(store),
			bidders:      memory.NewBidderIndexRepository(store),
			sequence:     memory.NewSequenceRepository(store),
			outbox:       memory.NewOutboxRepository(),
			storageCheck: func() error { return nil },
			close:        func() {},
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres storage: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}
	logger.Info("postgres storage initialized")

	return &dependencies{
		auctions: postgres.NewAuctionRepository(store),
		bidders:  postgres.NewBidderIndexRepository(store),
		sequence: postgres.NewSequenceRepository(store),
		outbox:   postgres.NewOutboxRepository(store),
		storageCheck: func() error {
			return store.Ping(context.Background())
		},
		close: func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("failed to close postgres store")
			}
		},
	}, nil
}
