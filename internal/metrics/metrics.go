package metrics

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config はメトリクスの設定
type Config struct {
	MaxLatencySamples int // 保持するレイテンシのサンプル数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		MaxLatencySamples: 10000,
	}
}

// Metrics はリクエストのメトリクスを収集する
type Metrics struct {
	totalRequests   atomic.Uint64
	successRequests atomic.Uint64
	failedRequests  atomic.Uint64
	totalLatencyNs  atomic.Uint64

	mu         sync.Mutex
	startTime  time.Time
	minLatency time.Duration
	maxLatency time.Duration
	latencies  []time.Duration
	maxSamples int
}

// New はデフォルト設定でメトリクスを作成する
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *Metrics {
	maxSamples := config.MaxLatencySamples
	if maxSamples <= 0 {
		maxSamples = DefaultConfig().MaxLatencySamples
	}
	return &Metrics{
		startTime:  time.Now(),
		minLatency: math.MaxInt64,
		latencies:  make([]time.Duration, 0, min(maxSamples, 1024)),
		maxSamples: maxSamples,
	}
}

// RecordSuccess は成功したリクエストを記録する
func (m *Metrics) RecordSuccess(latency time.Duration) {
	m.successRequests.Add(1)
	m.record(latency)

	m.mu.Lock()
	if len(m.latencies) < m.maxSamples {
		m.latencies = append(m.latencies, latency)
	}
	m.mu.Unlock()
}

// RecordFailure は失敗したリクエストを記録する
// 失敗のレイテンシはパーセンタイルに含めない
func (m *Metrics) RecordFailure(latency time.Duration) {
	m.failedRequests.Add(1)
	m.record(latency)
}

func (m *Metrics) record(latency time.Duration) {
	m.totalRequests.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	m.mu.Lock()
	m.minLatency = min(m.minLatency, latency)
	m.maxLatency = max(m.maxLatency, latency)
	m.mu.Unlock()
}

// TotalRequests は総リクエスト数を返す
func (m *Metrics) TotalRequests() uint64 {
	return m.totalRequests.Load()
}

// SuccessRequests は成功リクエスト数を返す
func (m *Metrics) SuccessRequests() uint64 {
	return m.successRequests.Load()
}

// FailedRequests は失敗リクエスト数を返す
func (m *Metrics) FailedRequests() uint64 {
	return m.failedRequests.Load()
}

// RPS は開始からの平均 Requests Per Second を返す
func (m *Metrics) RPS() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.totalRequests.Load()) / elapsed
}

// AverageLatency は平均レイテンシを返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.totalRequests.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatencyNs.Load() / total)
}

// percentile は samples の p (0〜1) パーセンタイルを返す。samples は並べ替えられる
func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	slices.Sort(samples)

	idx := int(float64(len(samples)) * p)
	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return samples[idx]
}

// ErrorRate はエラー率を返す（0.0〜1.0）
func (m *Metrics) ErrorRate() float64 {
	total := m.totalRequests.Load()
	if total == 0 {
		return 0
	}
	return float64(m.failedRequests.Load()) / float64(total)
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	TotalRequests   uint64
	SuccessRequests uint64
	FailedRequests  uint64
	RPS             float64
	AverageLatency  time.Duration
	MinLatency      time.Duration
	MaxLatency      time.Duration
	P50Latency      time.Duration
	P99Latency      time.Duration
	ErrorRate       float64
	Elapsed         time.Duration
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	samples := slices.Clone(m.latencies)
	minLatency, maxLatency := m.minLatency, m.maxLatency
	m.mu.Unlock()

	if m.totalRequests.Load() == 0 {
		minLatency = 0
	}

	return Snapshot{
		TotalRequests:   m.TotalRequests(),
		SuccessRequests: m.SuccessRequests(),
		FailedRequests:  m.FailedRequests(),
		RPS:             m.RPS(),
		AverageLatency:  m.AverageLatency(),
		MinLatency:      minLatency,
		MaxLatency:      maxLatency,
		P50Latency:      percentile(samples, 0.50),
		P99Latency:      percentile(samples, 0.99),
		ErrorRate:       m.ErrorRate(),
		Elapsed:         time.Since(m.startTime),
	}
}

// Report は人が読むためのレポートを返す
func (s Snapshot) Report() string {
	var b strings.Builder
	b.WriteString("Results\n")
	b.WriteString("=======\n")
	fmt.Fprintf(&b, "Requests:   %d (success: %d, failed: %d)\n",
		s.TotalRequests, s.SuccessRequests, s.FailedRequests)
	fmt.Fprintf(&b, "Elapsed:    %v\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "Throughput: %.2f req/s\n", s.RPS)
	fmt.Fprintf(&b, "Latency:    avg %v, min %v, p50 %v, p99 %v, max %v\n",
		s.AverageLatency, s.MinLatency, s.P50Latency, s.P99Latency, s.MaxLatency)
	fmt.Fprintf(&b, "Error rate: %.2f%%\n", s.ErrorRate*100)
	return b.String()
}
