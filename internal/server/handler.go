package server

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pool-bench/internal/logger"
	"pool-bench/internal/workload"
)

// Response は全ての接続に返す固定レスポンス
const Response = "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"

// handleConn は級数を評価してレスポンスを書き、リクエストを読み捨ててから閉じる
func handleConn(conn net.Conn, iterations int, readTimeout time.Duration) {
	defer func() { _ = conn.Close() }()

	id := uuid.NewString()
	start := time.Now()

	_ = workload.PiBBP(iterations)

	if _, err := conn.Write([]byte(Response)); err != nil {
		logger.Warn("conn", "Failed to write response to %s (%s): %v", conn.RemoteAddr(), id, err)
		return
	}

	// FIN を先に送り、クライアントが EOF まで読めるようにする
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	drainRequest(conn, readTimeout)

	logger.Debug("conn", "Handled %s from %s in %v", id, conn.RemoteAddr(), time.Since(start))
}

// drainRequest はリクエストヘッドを読み捨てる
// 未読のデータを残したまま閉じると RST になり、クライアントがレスポンスを失う
func drainRequest(conn net.Conn, readTimeout time.Duration) {
	if readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
	if req, err := http.ReadRequest(bufio.NewReader(conn)); err == nil {
		_ = req.Body.Close()
	}
}
