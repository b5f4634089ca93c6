package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AuctionMetrics содержит метрики аукционного движка.
type AuctionMetrics struct {
	// Счётчики операций
	auctionsStarted prometheus.Counter
	auctionsClosed  prometheus.Counter
	bidsPlaced      prometheus.Counter
	bidsRejected    *prometheus.CounterVec
	winnersComputed prometheus.Counter

	// Гистограмма времени выполнения операций
	opDuration *prometheus.HistogramVec

	// Счётчик событий outbox
	outboxEvents prometheus.Counter

	// Gauge открытых аукционов
	auctionsInProgress prometheus.Gauge
}

// NewAuctionMetrics создаёт новый экземпляр метрик аукционов.
func NewAuctionMetrics() *AuctionMetrics {
	return newAuctionMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newAuctionMetricsWithRegisterer(registerer prometheus.Registerer) *AuctionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &AuctionMetrics{
		auctionsStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ams_auctions_started_total",
			Help: "Total number of auctions started",
		}),
		auctionsClosed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ams_auctions_closed_total",
			Help: "Total number of auctions closed",
		}),
		bidsPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ams_bids_placed_total",
			Help: "Total number of bids accepted",
		}),
		bidsRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ams_bids_rejected_total",
			Help: "Total number of bids rejected, labeled by reason",
		}, []string{"reason"}),
		winnersComputed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ams_winners_computed_total",
			Help: "Total number of auction winners computed",
		}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "ams_operation_duration_seconds",
			Help:    "Duration of auction engine operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ams_outbox_events_total",
			Help: "Total number of outbox events published",
		}),
		auctionsInProgress: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "ams_auctions_in_progress",
			Help: "Number of auctions currently accepting bids",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordAuctionStarted увеличивает счётчик запущенных аукционов.
func (m *AuctionMetrics) RecordAuctionStarted() {
	m.auctionsStarted.Inc()
	m.auctionsInProgress.Inc()
}

// RecordAuctionClosed увеличивает счётчик закрытых аукционов.
func (m *AuctionMetrics) RecordAuctionClosed() {
	m.auctionsClosed.Inc()
	m.auctionsInProgress.Dec()
}

// RecordBidPlaced увеличивает счётчик принятых ставок.
func (m *AuctionMetrics) RecordBidPlaced() {
	m.bidsPlaced.Inc()
}

// RecordBidRejected увеличивает счётчик отклонённых ставок по причине.
func (m *AuctionMetrics) RecordBidRejected(reason string) {
	m.bidsRejected.WithLabelValues(reason).Inc()
}

// RecordWinnerComputed увеличивает счётчик вычисленных победителей.
func (m *AuctionMetrics) RecordWinnerComputed() {
	m.winnersComputed.Inc()
}

// RecordOperationDuration записывает время выполнения операции движка.
func (m *AuctionMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *AuctionMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
