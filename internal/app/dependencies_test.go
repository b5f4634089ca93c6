package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitStorageMemory(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := initStorage(context.Background(), cfg, log.WithField("component", "test"))
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}
	defer deps.close()

	if deps.auctions == nil || deps.bidders == nil || deps.sequence == nil || deps.outbox == nil {
		t.Fatal("expected all repositories to be initialized")
	}
	if err := deps.storageCheck(); err != nil {
		t.Fatalf("memory storage check must always pass, got %v", err)
	}

	current, err := deps.sequence.Current()
	if err != nil {
		t.Fatalf("sequence current: %v", err)
	}
	if current != 0 {
		t.Fatalf("expected fresh sequence counter, got %d", current)
	}
}
