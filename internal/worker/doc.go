// Package worker provides a fixed-size goroutine pool for concurrent job execution.
//
// The Pool starts a fixed number of worker goroutines when it is created.
// Every worker pulls jobs from one shared, unbounded FIFO queue and runs
// them one at a time until it receives a termination token.
//
// # Basic Usage
//
//	pool, err := worker.New(4) // 4 workers, already running
//	if err != nil {
//	    return err
//	}
//	defer pool.Stop()
//
//	for i := 0; i < 100; i++ {
//	    if err := pool.Execute(func() {
//	        // do work
//	    }); err != nil {
//	        logger.Warn("", "rejected: %v", err)
//	    }
//	}
//
// # Configuration
//
// Use NewWithConfig for custom settings:
//
//	config := worker.PoolConfig{
//	    NumWorkers:    8,
//	    QueueCapacity: 1024, // initial buffer, grows as needed
//	    PanicHandler: func(id int, r any) {
//	        // called after a job on worker id panicked
//	    },
//	}
//	pool, err := worker.NewWithConfig(config)
//
// # Shutdown
//
// Shutdown (and Stop) moves the pool to the Draining state, so Execute fails
// with ErrPoolShuttingDown from then on. One termination token per worker is
// queued behind every job that was already accepted, so those jobs still
// run. Shutdown returns once every worker goroutine has exited. Only the
// first call tears the pool down; later or concurrent calls wait for it.
//
// # Faults
//
// A panicking job is recovered and logged; its worker keeps serving the
// queue. A job that calls runtime.Goexit takes its worker down with it. That
// exit is logged, and once no worker is left Execute reports
// ErrChannelClosed. Jobs still queued at that point can never run; they are
// logged as discarded and counted by Pool.Discarded.
package worker
