package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"pool-bench/internal/worker"
)

func testConfig(mode Mode) Config {
	config := DefaultConfig()
	config.Addr = "127.0.0.1:0"
	config.Mode = mode
	config.Workers = 2
	config.Iterations = 1000
	config.ReadTimeout = time.Second
	config.ShutdownTimeout = 2 * time.Second
	return config
}

// startServer はテスト用サーバーを起動し、停止関数を返す
func startServer(t *testing.T, config Config) (string, func() error) {
	t.Helper()

	srv, err := New(config)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ctx, ln)
	}()

	stop := func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(3 * time.Second):
			t.Fatal("server did not stop")
			return nil
		}
	}
	return ln.Addr().String(), stop
}

func request(addr string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: %s\r\n\r\n", addr); err != nil {
		return "", err
	}
	body, err := io.ReadAll(conn)
	return string(body), err
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
	}{
		{"async", ModeAsync},
		{"tokio", ModeAsync},
		{"pool", ModePool},
		{"ThreadPool", ModePool},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if err != nil {
			t.Errorf("ParseMode(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseMode(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}

	if _, err := ParseMode("fork"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestNewServerRejectsEmptyPool(t *testing.T) {
	config := testConfig(ModePool)
	config.Workers = 0

	_, err := New(config)
	if !errors.Is(err, worker.ErrEmptyPoolConfig) {
		t.Errorf("expected ErrEmptyPoolConfig, got %v", err)
	}
}

func TestNewServerUnknownMode(t *testing.T) {
	if _, err := New(testConfig(Mode("fork"))); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestServerResponds(t *testing.T) {
	for _, mode := range []Mode{ModeAsync, ModePool} {
		t.Run(string(mode), func(t *testing.T) {
			addr, stop := startServer(t, testConfig(mode))

			const clients = 20
			var wg sync.WaitGroup
			errs := make(chan error, clients)

			for range clients {
				wg.Add(1)
				go func() {
					defer wg.Done()
					body, err := request(addr)
					if err != nil {
						errs <- err
						return
					}
					if body != Response {
						errs <- fmt.Errorf("unexpected response %q", body)
					}
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Error(err)
			}

			if err := stop(); err != nil {
				t.Errorf("expected clean stop, got %v", err)
			}
		})
	}
}

func TestServerRespondsWithoutRequest(t *testing.T) {
	addr, stop := startServer(t, testConfig(ModePool))
	defer func() { _ = stop() }()

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	if err := conn.(*net.TCPConn).CloseWrite(); err != nil {
		t.Fatalf("failed to close write side: %v", err)
	}

	body, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if string(body) != Response {
		t.Errorf("unexpected response %q", body)
	}
}

func TestServerRespondsBeforeReadTimeout(t *testing.T) {
	for _, mode := range []Mode{ModeAsync, ModePool} {
		t.Run(string(mode), func(t *testing.T) {
			config := testConfig(mode)
			config.ReadTimeout = 3 * time.Second
			addr, stop := startServer(t, config)
			defer func() { _ = stop() }()

			// 何も送らず書き込み側も開いたままのクライアント
			conn, err := net.DialTimeout("tcp", addr, time.Second)
			if err != nil {
				t.Fatalf("failed to dial: %v", err)
			}
			defer func() { _ = conn.Close() }()

			start := time.Now()
			_ = conn.SetReadDeadline(start.Add(time.Second))
			body, err := io.ReadAll(conn)
			if err != nil {
				t.Fatalf("failed to read response: %v", err)
			}
			if string(body) != Response {
				t.Errorf("unexpected response %q", body)
			}
			if elapsed := time.Since(start); elapsed >= time.Second {
				t.Errorf("response waited for read timeout: %v", elapsed)
			}
		})
	}
}

func TestServerMaxConns(t *testing.T) {
	config := testConfig(ModeAsync)
	config.MaxConns = 2
	addr, stop := startServer(t, config)
	defer func() { _ = stop() }()

	for i := range 10 {
		body, err := request(addr)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if body != Response {
			t.Errorf("request %d: unexpected response %q", i, body)
		}
	}
}

func TestServerListenerClosed(t *testing.T) {
	srv, err := New(testConfig(ModePool))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(context.Background(), ln)
	}()

	// Serve がリスナーを登録するまで待つ
	deadline := time.After(time.Second)
	for srv.Addr() == nil {
		select {
		case <-deadline:
			t.Fatal("server did not start")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	_ = ln.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, net.ErrClosed) {
			t.Errorf("expected net.ErrClosed, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after listener close")
	}
}
