package scenario

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"pool-bench/internal/client"
	"pool-bench/internal/logger"
	"pool-bench/internal/metrics"
	"pool-bench/internal/server"
	"pool-bench/internal/workload"
)

// Config はシナリオの設定
type Config struct {
	Name        string        // シナリオ名
	Description string        // 説明
	Modes       []server.Mode // 比較する実行戦略

	// サーバー設定
	Workers    int // ワーカー数
	Iterations int // リクエスト毎の級数の項数

	// クライアント設定
	Concurrency int           // 同時接続数
	Requests    uint64        // リクエスト数（0で Duration を使用）
	Duration    time.Duration // 実行時間
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:        "default",
		Description: "Default comparison",
		Modes:       []server.Mode{server.ModeAsync, server.ModePool},
		Workers:     4,
		Iterations:  workload.DefaultIterations,
		Concurrency: 16,
		Duration:    10 * time.Second,
	}
}

// ModeResult は一つの実行戦略の結果
type ModeResult struct {
	Mode     server.Mode
	Snapshot metrics.Snapshot
}

// Result はシナリオ実行結果
type Result struct {
	ScenarioName string
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	Workers      int
	Concurrency  int
	Modes        []ModeResult
}

// Engine はシナリオ実行エンジン
type Engine struct {
	config     Config
	listenAddr string

	mu      sync.Mutex
	running bool
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	return &Engine{
		config:     config,
		listenAddr: "127.0.0.1:0",
	}
}

// Config は設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run は全ての実行戦略を順番に計測する
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("scenario is already running")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	if len(e.config.Modes) == 0 {
		return nil, fmt.Errorf("scenario %q has no modes", e.config.Name)
	}
	if e.config.Requests == 0 && e.config.Duration <= 0 {
		return nil, fmt.Errorf("scenario %q needs requests or duration", e.config.Name)
	}

	logger.Info("", "=== Scenario '%s' started ===", e.config.Name)
	logger.Info("", "Description: %s", e.config.Description)

	result := &Result{
		ScenarioName: e.config.Name,
		StartTime:    time.Now(),
		Workers:      e.config.Workers,
		Concurrency:  e.config.Concurrency,
	}

	for _, mode := range e.config.Modes {
		if ctx.Err() != nil {
			break
		}
		snap, err := e.runMode(ctx, mode)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mode, err)
		}
		result.Modes = append(result.Modes, ModeResult{Mode: mode, Snapshot: *snap})
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	logger.Info("", "=== Scenario '%s' completed ===", e.config.Name)
	return result, nil
}

// runMode は一つの実行戦略でサーバーを起動して負荷をかける
func (e *Engine) runMode(ctx context.Context, mode server.Mode) (*metrics.Snapshot, error) {
	srvConfig := server.DefaultConfig()
	srvConfig.Mode = mode
	srvConfig.Workers = e.config.Workers
	srvConfig.Iterations = e.config.Iterations

	// プールを起動する前にリッスンする
	ln, err := net.Listen("tcp", e.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	srv, err := server.New(srvConfig)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	srvCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(srvCtx, ln)
	}()

	clConfig := client.DefaultConfig()
	clConfig.Addr = ln.Addr().String()
	clConfig.Concurrency = e.config.Concurrency
	cl, err := client.New(clConfig)
	if err != nil {
		stop()
		<-errCh
		return nil, err
	}

	var snap *metrics.Snapshot
	if e.config.Requests > 0 {
		snap, err = cl.RunRequests(ctx, e.config.Requests)
	} else {
		snap, err = cl.RunFor(ctx, e.config.Duration)
	}

	stop()
	if serveErr := <-errCh; serveErr != nil && err == nil {
		err = serveErr
	}
	if err != nil {
		return nil, err
	}

	logger.Info("", "%s: %d requests, %.2f req/s, p99 %v",
		mode, snap.TotalRequests, snap.RPS, snap.P99Latency)
	return snap, nil
}

// Report は結果のレポートを生成する
func (r *Result) Report() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("╔══════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(&b, "║  Scenario: %-50s║\n", r.ScenarioName)
	b.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(&b, "║  Duration:    %-47v║\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "║  Workers:     %-47d║\n", r.Workers)
	fmt.Fprintf(&b, "║  Concurrency: %-47d║\n", r.Concurrency)
	b.WriteString("╠══════════════════════════════════════════════════════════════╣\n")
	fmt.Fprintf(&b, "║  %-6s %9s %11s %10s %10s %10s ║\n", "MODE", "REQUESTS", "REQ/S", "AVG", "P50", "P99")
	for _, m := range r.Modes {
		s := m.Snapshot
		fmt.Fprintf(&b, "║  %-6s %9d %11.2f %10v %10v %10v ║\n",
			m.Mode, s.TotalRequests, s.RPS,
			s.AverageLatency.Round(time.Microsecond),
			s.P50Latency.Round(time.Microsecond),
			s.P99Latency.Round(time.Microsecond))
	}
	b.WriteString("╚══════════════════════════════════════════════════════════════╝\n")

	return b.String()
}
