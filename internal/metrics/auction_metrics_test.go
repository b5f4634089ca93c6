package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewAuctionMetrics(t *testing.T) {
	metrics := newAuctionMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newAuctionMetricsWithRegisterer should not return nil")
	}

	if metrics.auctionsStarted == nil {
		t.Error("auctionsStarted counter should not be nil")
	}

	if metrics.auctionsClosed == nil {
		t.Error("auctionsClosed counter should not be nil")
	}

	if metrics.bidsPlaced == nil {
		t.Error("bidsPlaced counter should not be nil")
	}

	if metrics.bidsRejected == nil {
		t.Error("bidsRejected counter vec should not be nil")
	}

	if metrics.winnersComputed == nil {
		t.Error("winnersComputed counter should not be nil")
	}

	if metrics.opDuration == nil {
		t.Error("opDuration histogram vec should not be nil")
	}

	if metrics.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}

	if metrics.auctionsInProgress == nil {
		t.Error("auctionsInProgress gauge should not be nil")
	}
}

func TestAuctionLifecycleGauge(t *testing.T) {
	reg := prometheus.NewRegistry()

	started := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_auctions_started_total",
		Help: "Test counter",
	})
	closed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_auctions_closed_total",
		Help: "Test counter",
	})
	inProgress := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_auctions_in_progress",
		Help: "Test gauge",
	})

	reg.MustRegister(started, closed, inProgress)

	metrics := &AuctionMetrics{
		auctionsStarted:    started,
		auctionsClosed:     closed,
		auctionsInProgress: inProgress,
	}

	metrics.RecordAuctionStarted() // in progress: 1
	metrics.RecordAuctionStarted() // in progress: 2
	metrics.RecordAuctionStarted() // in progress: 3
	metrics.RecordAuctionClosed()  // in progress: 2

	gaugeMetric := &dto.Metric{}
	if err := inProgress.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}
	if gaugeMetric.Gauge.GetValue() != 2.0 {
		t.Errorf("expected 2 auctions in progress, got %f", gaugeMetric.Gauge.GetValue())
	}

	startedMetric := &dto.Metric{}
	if err := started.Write(startedMetric); err != nil {
		t.Fatalf("failed to write started counter: %v", err)
	}
	if startedMetric.Counter.GetValue() != 3.0 {
		t.Errorf("expected 3 started auctions, got %f", startedMetric.Counter.GetValue())
	}

	closedMetric := &dto.Metric{}
	if err := closed.Write(closedMetric); err != nil {
		t.Fatalf("failed to write closed counter: %v", err)
	}
	if closedMetric.Counter.GetValue() != 1.0 {
		t.Errorf("expected 1 closed auction, got %f", closedMetric.Counter.GetValue())
	}
}

func TestRecordBidRejected(t *testing.T) {
	reg := prometheus.NewRegistry()

	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_bids_rejected_total",
		Help: "Test counter vec",
	}, []string{"reason"})

	reg.MustRegister(rejected)

	metrics := &AuctionMetrics{bidsRejected: rejected}

	metrics.RecordBidRejected("duplicate")
	metrics.RecordBidRejected("duplicate")
	metrics.RecordBidRejected("capacity")

	metric := &dto.Metric{}
	if err := rejected.WithLabelValues("duplicate").Write(metric); err != nil {
		t.Fatalf("failed to write counter: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected 2 duplicate rejections, got %f", metric.Counter.GetValue())
	}
}

func TestRecordOperationDuration(t *testing.T) {
	reg := prometheus.NewRegistry()

	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "test_operation_duration_seconds",
		Help:    "Test histogram vec",
		Buckets: []float64{0.001, 0.01, 0.1, 1.0},
	}, []string{"operation"})

	reg.MustRegister(opDuration)

	metrics := &AuctionMetrics{opDuration: opDuration}

	metrics.RecordOperationDuration("place_bid", 50*time.Millisecond)
	metrics.RecordOperationDuration("place_bid", 100*time.Millisecond)
	metrics.RecordOperationDuration("winner", 25*time.Millisecond)

	metric := &dto.Metric{}
	observer := opDuration.WithLabelValues("place_bid")
	if err := observer.(prometheus.Histogram).Write(metric); err != nil {
		t.Fatalf("failed to write histogram: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("expected 2 samples for place_bid, got %d", metric.Histogram.GetSampleCount())
	}
}

func TestRegisterTwiceReusesCollector(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newAuctionMetricsWithRegisterer(reg)
	second := newAuctionMetricsWithRegisterer(reg)

	first.RecordWinnerComputed()
	second.RecordWinnerComputed()

	metric := &dto.Metric{}
	if err := first.winnersComputed.Write(metric); err != nil {
		t.Fatalf("failed to write counter: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", metric.Counter.GetValue())
	}
}
