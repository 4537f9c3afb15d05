package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"pool-bench/internal/logger"
	"pool-bench/internal/metrics"
	"pool-bench/internal/worker"
)

// Config はClientの設定
type Config struct {
	Addr        string        // 接続先
	Concurrency int           // 同時接続数（ワーカー数）
	Timeout     time.Duration // リクエスト毎のタイムアウト
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Addr:        "127.0.0.1:8080",
		Concurrency: 16,
		Timeout:     10 * time.Second,
	}
}

// Client は負荷生成器
type Client struct {
	config  Config
	metrics *metrics.Metrics
}

// New は新しいClientを作成する
func New(config Config) (*Client, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("client: address is required")
	}
	if config.Concurrency < 1 {
		return nil, fmt.Errorf("client: concurrency must be at least 1, got %d", config.Concurrency)
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		config:  config,
		metrics: metrics.New(),
	}, nil
}

// Metrics は直近の実行のメトリクスを返す
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// RunRequests は count 個のリクエストを実行して結果を返す
// ctx がキャンセルされると未実行のリクエストは送信せずに終わる
func (c *Client) RunRequests(ctx context.Context, count uint64) (*metrics.Snapshot, error) {
	pool, err := worker.New(c.config.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	c.metrics = metrics.New()
	logger.Info("client", "Sending %d requests to %s (concurrency: %d)",
		count, c.config.Addr, c.config.Concurrency)

	for range count {
		if err := pool.Execute(func() {
			if ctx.Err() != nil {
				return
			}
			c.do(ctx)
		}); err != nil {
			pool.Stop()
			return nil, fmt.Errorf("failed to submit request: %w", err)
		}
	}
	pool.Stop()

	snapshot := c.metrics.Snapshot()
	return &snapshot, nil
}

// RunFor は duration の間リクエストを送り続けて結果を返す
func (c *Client) RunFor(ctx context.Context, duration time.Duration) (*metrics.Snapshot, error) {
	pool, err := worker.New(c.config.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	c.metrics = metrics.New()

	logger.Info("client", "Sending requests to %s for %v (concurrency: %d)",
		c.config.Addr, duration, c.config.Concurrency)

	// ワーカー毎に一つ、期限まで繰り返すジョブを投入する
	for range c.config.Concurrency {
		if err := pool.Execute(func() {
			for ctx.Err() == nil {
				c.do(ctx)
			}
		}); err != nil {
			pool.Stop()
			return nil, fmt.Errorf("failed to submit request loop: %w", err)
		}
	}
	pool.Stop()

	snapshot := c.metrics.Snapshot()
	return &snapshot, nil
}

// do は一つのリクエストを送信して結果を記録する
func (c *Client) do(ctx context.Context) {
	start := time.Now()
	err := c.roundTrip(ctx)
	latency := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			// 期限切れで中断したリクエストは数えない
			return
		}
		logger.Debug("client", "Request failed: %v", err)
		c.metrics.RecordFailure(latency)
		return
	}
	c.metrics.RecordSuccess(latency)
}

// roundTrip は接続、送信、応答の読み込みを行う
func (c *Client) roundTrip(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.config.Addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", c.config.Addr); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	r := bufio.NewReader(conn)
	status, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	if !strings.HasPrefix(status, "HTTP/1.1 200") {
		return fmt.Errorf("unexpected status: %q", strings.TrimSpace(status))
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return nil
}
