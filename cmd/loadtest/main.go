package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	opStartAuction = "execute_start_auction"
	opBid          = "execute_bid"
	opCloseAuction = "execute_close_auction"
	opWinner       = "query_get_auction_winner"
)

type config struct {
	addr        string
	total       int
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	bidders     int
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type operationReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Statuses  map[string]int64 `json:"statuses"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time                  `json:"started_at"`
	DurationSeconds   float64                    `json:"duration_seconds"`
	TotalScenarios    int64                      `json:"total_scenarios"`
	SuccessScenarios  int64                      `json:"success_scenarios"`
	FailedScenarios   int64                      `json:"failed_scenarios"`
	ErrorRate         float64                    `json:"error_rate"`
	RPS               float64                    `json:"rps"`
	ScenarioLatencyMs latencySummary             `json:"scenario_latency_ms"`
	Operations        map[string]operationReport `json:"operations"`
}

type operationStats struct {
	calls     int64
	success   int64
	failed    int64
	statuses  map[string]int64
	latencies []float64
}

type collector struct {
	mu         sync.Mutex
	operations map[string]*operationStats
}

func newCollector() *collector {
	return &collector{
		operations: make(map[string]*operationStats),
	}
}

func (c *collector) record(operation string, latency time.Duration, status int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, found := c.operations[operation]
	if !found {
		stats = &operationStats{statuses: make(map[string]int64)}
		c.operations[operation] = stats
	}

	stats.calls++
	if ok {
		stats.success++
	} else {
		stats.failed++
	}
	stats.statuses[fmt.Sprintf("%d", status)]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func (c *collector) buildReports() map[string]operationReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make(map[string]operationReport, len(c.operations))
	for operation, stats := range c.operations {
		errorRate := 0.0
		if stats.calls > 0 {
			errorRate = float64(stats.failed) / float64(stats.calls)
		}
		result[operation] = operationReport{
			Calls:     stats.calls,
			Success:   stats.success,
			Failed:    stats.failed,
			ErrorRate: errorRate,
			Statuses:  stats.statuses,
			LatencyMs: summarize(stats.latencies),
		}
	}
	return result
}

func summarize(latencies []float64) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}

	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

// percentile ожидает отсортированный по возрастанию срез.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

type client struct {
	httpClient *http.Client
	baseURL    string
	stats      *collector
}

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
}

func (c *client) call(ctx context.Context, operation string, payload any, result any) error {
	body, err := json.Marshal(envelope{Type: operation, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/dispatch", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.stats.record(operation, latency, 0, false)
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode == http.StatusOK
	c.stats.record(operation, latency, resp.StatusCode, ok)
	if !ok {
		return fmt.Errorf("%s returned status %d", operation, resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	if !parsed.OK {
		return fmt.Errorf("%s rejected by server", operation)
	}
	if result != nil {
		if err := json.Unmarshal(parsed.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", operation, err)
		}
	}
	return nil
}

// runScenario прогоняет полный цикл: запуск аукциона, ставки, закрытие,
// запрос победителя.
func (c *client) runScenario(ctx context.Context, scenarioID int64, bidders int, rng *rand.Rand) error {
	var started struct {
		AuctionID uint64 `json:"auction_id"`
	}
	err := c.call(ctx, opStartAuction, map[string]any{
		"name":             fmt.Sprintf("loadtest-%d", scenarioID),
		"max_participants": bidders,
	}, &started)
	if err != nil {
		return err
	}

	for i := 0; i < bidders; i++ {
		err := c.call(ctx, opBid, map[string]any{
			"auction_id": started.AuctionID,
			"bidder":     fmt.Sprintf("bidder-%d-%d", scenarioID, i),
			"amount":     100 + rng.Intn(10000),
		}, nil)
		if err != nil {
			return err
		}
	}

	if err := c.call(ctx, opCloseAuction, map[string]any{"auction_id": started.AuctionID}, nil); err != nil {
		return err
	}

	return c.call(ctx, opWinner, map[string]any{"auction_id": started.AuctionID}, nil)
}

func parseFlags() config {
	cfg := config{}
	flag.StringVar(&cfg.addr, "addr", "http://localhost:8080", "base URL of the auction service")
	flag.IntVar(&cfg.total, "total", 100, "total number of scenarios to run")
	flag.DurationVar(&cfg.duration, "duration", 0, "run for a fixed duration instead of a fixed total")
	flag.IntVar(&cfg.concurrency, "concurrency", 4, "number of concurrent workers")
	flag.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.IntVar(&cfg.bidders, "bidders", 3, "bidders per auction (min 2)")
	flag.StringVar(&cfg.outputPath, "output", "", "optional path for the JSON report")
	flag.Parse()

	if cfg.concurrency < 1 {
		cfg.concurrency = 1
	}
	if cfg.bidders < 2 {
		cfg.bidders = 2
	}
	return cfg
}

func main() {
	cfg := parseFlags()

	stats := newCollector()
	apiClient := &client{
		httpClient: &http.Client{Timeout: cfg.timeout},
		baseURL:    strings.TrimRight(cfg.addr, "/"),
		stats:      stats,
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if cfg.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	var (
		scenarioSeq       int64
		successScenarios  int64
		failedScenarios   int64
		scenarioLatencies []float64
		latencyMu         sync.Mutex
	)

	startedAt := time.Now()
	var wg sync.WaitGroup
	for worker := 0; worker < cfg.concurrency; worker++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))

			for {
				if ctx.Err() != nil {
					return
				}
				id := atomic.AddInt64(&scenarioSeq, 1)
				if cfg.duration <= 0 && id > int64(cfg.total) {
					return
				}

				start := time.Now()
				err := apiClient.runScenario(ctx, id, cfg.bidders, rng)
				elapsed := time.Since(start)

				latencyMu.Lock()
				scenarioLatencies = append(scenarioLatencies, float64(elapsed.Microseconds())/1000.0)
				latencyMu.Unlock()

				if err != nil {
					atomic.AddInt64(&failedScenarios, 1)
					fmt.Fprintf(os.Stderr, "scenario %d failed: %v\n", id, err)
				} else {
					atomic.AddInt64(&successScenarios, 1)
				}
			}
		}(startedAt.UnixNano() + int64(worker))
	}
	wg.Wait()

	elapsed := time.Since(startedAt)
	total := successScenarios + failedScenarios
	errorRate := 0.0
	if total > 0 {
		errorRate = float64(failedScenarios) / float64(total)
	}

	finalReport := report{
		StartedAt:         startedAt.UTC(),
		DurationSeconds:   elapsed.Seconds(),
		TotalScenarios:    total,
		SuccessScenarios:  successScenarios,
		FailedScenarios:   failedScenarios,
		ErrorRate:         errorRate,
		RPS:               float64(total) / elapsed.Seconds(),
		ScenarioLatencyMs: summarize(scenarioLatencies),
		Operations:        stats.buildReports(),
	}

	encoded, err := json.MarshalIndent(finalReport, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))

	if cfg.outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.outputPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create report dir: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(cfg.outputPath, encoded, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if failedScenarios > 0 {
		os.Exit(1)
	}
}
