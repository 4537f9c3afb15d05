// Package server accepts TCP connections and answers each one after running
// the synthetic workload, using one of two execution strategies.
//
// ModeAsync hands every connection to its own goroutine and lets the Go
// runtime's network poller multiplex them. ModePool converts every
// connection into a job for a fixed-size worker.Pool.
//
// # Basic Usage
//
//	config := server.DefaultConfig()
//	config.Mode = server.ModePool
//	config.Workers = 8
//
//	srv, err := server.New(config)
//	if err != nil {
//	    return err
//	}
//	return srv.ListenAndServe(ctx) // returns after ctx is cancelled and in-flight requests finish
package server
