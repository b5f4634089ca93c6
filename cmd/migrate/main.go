// Команда migrate управляет схемой аукционного хранилища:
//
//	migrate -direction=up              применить все миграции
//	migrate -direction=down -steps=2   откатить две последние
//	migrate -direction=status          показать текущую версию
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/ams/internal/storage/postgres"
)

type migrateConfig struct {
	direction string
	steps     int
	dsn       string
	timeout   time.Duration
}

func parseConfig() migrateConfig {
	cfg := migrateConfig{}
	flag.StringVar(&cfg.direction, "direction", "up", "migration direction: up|down|status")
	flag.IntVar(&cfg.steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	flag.StringVar(&cfg.dsn, "dsn", "", "PostgreSQL DSN (fallback: AMS_POSTGRES_DSN)")
	flag.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "overall operation timeout")
	flag.Parse()

	if strings.TrimSpace(cfg.dsn) == "" {
		cfg.dsn = strings.TrimSpace(os.Getenv("AMS_POSTGRES_DSN"))
	}
	cfg.direction = strings.ToLower(strings.TrimSpace(cfg.direction))
	return cfg
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		fail("AMS_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	store, err := postgres.Open(ctx, cfg.dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := run(ctx, store, cfg); err != nil {
		fail("%v", err)
	}
}

func run(ctx context.Context, store *postgres.Store, cfg migrateConfig) error {
	switch cfg.direction {
	case "up":
		if err := store.MigrateUp(ctx, cfg.steps); err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
	case "down":
		steps := cfg.steps
		if steps <= 0 {
			steps = 1
		}
		if err := store.MigrateDown(ctx, steps); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
	case "status":
		// Только отчёт ниже.
	default:
		return fmt.Errorf("unsupported direction: %s (use up|down|status)", cfg.direction)
	}

	version, applied, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	fmt.Printf("auction schema: direction=%s version=%d applied=%d\n", cfg.direction, version, applied)
	return nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
