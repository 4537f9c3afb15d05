package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"pool-bench/internal/logger"
	"pool-bench/internal/workload"
)

// Mode は実行戦略を表す
type Mode string

const (
	ModeAsync Mode = "async"
	ModePool  Mode = "pool"
)

// ParseMode は文字列から実行戦略を解析する
// "tokio" と "threadpool" も別名として受け付ける
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "async", "tokio":
		return ModeAsync, nil
	case "pool", "threadpool":
		return ModePool, nil
	default:
		return "", fmt.Errorf("unknown server mode: %s (choose async or pool)", s)
	}
}

// Config はサーバーの設定
type Config struct {
	Addr            string
	Mode            Mode
	Workers         int           // プールのワーカー数（async では並列度）
	Iterations      int           // リクエスト毎の級数の項数
	MaxConns        int           // 同時接続数の上限（0で無制限）
	ReadTimeout     time.Duration // 応答後にリクエストを読み捨てる時間の上限
	ShutdownTimeout time.Duration // 停止時に処理中の接続を待つ時間
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		Mode:            ModePool,
		Workers:         4,
		Iterations:      workload.DefaultIterations,
		ReadTimeout:     time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// acceptBackoff は Accept が連続して失敗したときの待ち時間
const acceptBackoff = 5 * time.Millisecond

// Server はTCPサーバー
type Server struct {
	config     Config
	dispatcher dispatcher

	mu       sync.Mutex
	listener net.Listener
}

// New は新しいサーバーを作成する
// ModePool ではこの時点でワーカープールを起動する
func New(config Config) (*Server, error) {
	var d dispatcher
	switch config.Mode {
	case ModeAsync:
		d = newAsyncDispatcher()
	case ModePool:
		pd, err := newPoolDispatcher(config.Workers)
		if err != nil {
			return nil, fmt.Errorf("failed to create worker pool: %w", err)
		}
		d = pd
	default:
		return nil, fmt.Errorf("unknown server mode: %q", config.Mode)
	}

	return &Server{
		config:     config,
		dispatcher: d,
	}, nil
}

// Addr はリッスン中のアドレスを返す。起動前は nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe は設定のアドレスでリッスンして Serve する
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		_ = s.dispatcher.close(ctx)
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve は ctx がキャンセルされるまで接続を受け付ける
// 終了時は処理中の接続を ShutdownTimeout まで待つ
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.config.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConns)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	logger.Info("server", "%s server running on %s", s.config.Mode, ln.Addr())

	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				acceptErr = err
				break
			}
			logger.Warn("server", "Error accepting connection: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}

		h := s.handler(conn)
		if err := s.dispatcher.dispatch(h); err != nil {
			logger.Warn("server", "Rejected connection from %s: %v", conn.RemoteAddr(), err)
			_ = conn.Close()
		}
	}

	_ = ln.Close()
	logger.Info("server", "Listener closed, draining in-flight connections")

	shutdownCtx := context.Background()
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.config.ShutdownTimeout)
		defer cancel()
	}
	if err := s.dispatcher.close(shutdownCtx); err != nil {
		return fmt.Errorf("failed to drain connections: %w", err)
	}

	if acceptErr != nil {
		return fmt.Errorf("listener closed: %w", acceptErr)
	}
	return nil
}

// handler は接続を処理する関数を作る
func (s *Server) handler(conn net.Conn) func() {
	return func() {
		handleConn(conn, s.config.Iterations, s.config.ReadTimeout)
	}
}
