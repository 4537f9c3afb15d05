package client

import (
	"context"
	"net"
	"testing"
	"time"

	"pool-bench/internal/server"
)

// startServer はテスト用のサーバーを起動する
func startServer(t *testing.T, mode server.Mode) string {
	t.Helper()

	config := server.DefaultConfig()
	config.Mode = mode
	config.Workers = 2
	config.Iterations = 100

	srv, err := server.New(config)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, ln)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return ln.Addr().String()
}

func TestDefaultClientConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Concurrency != 16 {
		t.Errorf("expected Concurrency 16, got %d", config.Concurrency)
	}
	if config.Timeout != 10*time.Second {
		t.Errorf("expected Timeout 10s, got %v", config.Timeout)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := New(Config{Concurrency: 1}); err == nil {
		t.Error("expected error for empty address")
	}
	if _, err := New(Config{Addr: "127.0.0.1:1", Concurrency: 0}); err == nil {
		t.Error("expected error for zero concurrency")
	}
}

func TestClientRunRequests(t *testing.T) {
	for _, mode := range []server.Mode{server.ModeAsync, server.ModePool} {
		t.Run(string(mode), func(t *testing.T) {
			addr := startServer(t, mode)

			config := DefaultConfig()
			config.Addr = addr
			config.Concurrency = 4
			config.Timeout = 2 * time.Second
			cl, err := New(config)
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}

			snap, err := cl.RunRequests(context.Background(), 50)
			if err != nil {
				t.Fatalf("RunRequests failed: %v", err)
			}

			if snap.TotalRequests != 50 {
				t.Errorf("expected 50 requests, got %d", snap.TotalRequests)
			}
			if snap.FailedRequests != 0 {
				t.Errorf("expected no failures, got %d", snap.FailedRequests)
			}
		})
	}
}

func TestClientRunFor(t *testing.T) {
	addr := startServer(t, server.ModePool)

	config := DefaultConfig()
	config.Addr = addr
	config.Concurrency = 2
	cl, err := New(config)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	start := time.Now()
	snap, err := cl.RunFor(context.Background(), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("RunFor failed: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("RunFor took too long: %v", elapsed)
	}
	if snap.SuccessRequests == 0 {
		t.Error("expected some successful requests")
	}
	if cl.Metrics().TotalRequests() != snap.TotalRequests {
		t.Errorf("expected metrics to match snapshot")
	}
}

func TestClientRecordsFailures(t *testing.T) {
	// 空いているポートを確保してから閉じる
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	config := DefaultConfig()
	config.Addr = addr
	config.Concurrency = 2
	config.Timeout = 500 * time.Millisecond
	cl, err := New(config)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	snap, err := cl.RunRequests(context.Background(), 5)
	if err != nil {
		t.Fatalf("RunRequests failed: %v", err)
	}

	if snap.FailedRequests != 5 {
		t.Errorf("expected 5 failures, got %d", snap.FailedRequests)
	}
	if snap.ErrorRate != 1 {
		t.Errorf("expected error rate 1, got %f", snap.ErrorRate)
	}
}

func TestClientRunRequestsCancelled(t *testing.T) {
	addr := startServer(t, server.ModePool)

	config := DefaultConfig()
	config.Addr = addr
	config.Concurrency = 2
	cl, err := New(config)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := cl.RunRequests(ctx, 100)
	if err != nil {
		t.Fatalf("RunRequests failed: %v", err)
	}
	if snap.TotalRequests != 0 {
		t.Errorf("expected no requests after cancel, got %d", snap.TotalRequests)
	}
}
