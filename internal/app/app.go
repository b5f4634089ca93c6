package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ams/internal/health"
	"github.com/vladislavdragonenkov/ams/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ams/internal/metrics"
	"github.com/vladislavdragonenkov/ams/internal/service/auction"
	"github.com/vladislavdragonenkov/ams/internal/service/dispatch"
	"github.com/vladislavdragonenkov/ams/internal/service/outbox"
	"github.com/vladislavdragonenkov/ams/internal/version"
)

// Run запускает сервис аукционов и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	engineMetrics := metrics.NewAuctionMetrics()
	engine := auction.NewEngine(
		deps.auctions,
		deps.bidders,
		deps.sequence,
		auction.WithOutbox(deps.outbox),
		auction.WithMetrics(engineMetrics),
		auction.WithLogger(logger.WithField("layer", "engine")),
	)

	// Kafka + outbox worker опциональны: без брокера события копятся
	// в outbox и сервис остаётся полностью работоспособным.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	var workerWG sync.WaitGroup
	if kafkaProducer != nil {
		worker := outbox.NewWorker(
			deps.outbox,
			kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicAuctionEvents),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)),
			outbox.WithLogger(logger.WithField("layer", "outbox")),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		)
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			worker.Run(ctx)
		}()
	}

	healthHandler := healthcheck.NewHandler(version.String())
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", deps.storageCheck))
	if kafkaProducer != nil {
		// Без брокера backlog не публикуется и расти ему положено,
		// поэтому проверка есть только при работающем worker'е.
		healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxBacklogChecker(
			"outbox", deps.outbox, cfg.OutboxBatchSize*10, 10*cfg.OutboxPollInterval))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	dispatcher := dispatch.NewDispatcher(engine, logger.WithField("layer", "dispatch"))
	mux := http.NewServeMux()
	mux.Handle("/v1/dispatch", dispatcher.Handler())

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем сервис")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		workerWG.Wait()
		closeKafka(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		workerWG.Wait()
		closeKafka(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
