// Package client provides a load generator for benchmarking a running server.
//
// The Client opens one TCP connection per request, sends a minimal HTTP/1.1
// GET, reads the response to EOF and records the latency. Requests are
// issued from a worker.Pool so the generator's own concurrency is fixed.
//
// # Basic Usage
//
//	config := client.DefaultConfig()
//	config.Addr = "127.0.0.1:8080"
//	config.Concurrency = 32
//	cl, err := client.New(config)
//
//	// Run a fixed number of requests
//	snap, err := cl.RunRequests(ctx, 10000)
//
//	// Or run for a duration
//	snap, err := cl.RunFor(ctx, 10*time.Second)
//	fmt.Println(snap.Report())
//
// # Configuration
//
// The Config struct allows tuning:
//   - Addr: server address
//   - Concurrency: parallel connections (pool workers)
//   - Timeout: per-request dial/read/write deadline
package client
