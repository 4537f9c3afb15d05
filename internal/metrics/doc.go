// Package metrics collects request latency and throughput on the client side.
//
// Metrics counts successes and failures, keeps a bounded sample of
// latencies for percentiles, and tracks min/max. It is safe for concurrent
// use by many load generator workers.
//
// # Basic Usage
//
//	m := metrics.New()
//
//	start := time.Now()
//	// ... send a request ...
//	m.RecordSuccess(time.Since(start))
//
//	snap := m.Snapshot()
//	fmt.Println(snap.Report())
//
// # Configuration
//
// Use NewWithConfig to keep more samples for steadier percentiles:
//
//	m := metrics.NewWithConfig(metrics.Config{MaxLatencySamples: 50000})
package metrics
