package server

import (
	"context"
	"sync"

	"pool-bench/internal/worker"
)

// dispatcher は受け付けた接続の処理をどこで実行するかを決める
type dispatcher interface {
	dispatch(handle func()) error
	close(ctx context.Context) error
}

// asyncDispatcher は接続毎にゴルーチンを起動する
type asyncDispatcher struct {
	wg sync.WaitGroup
}

func newAsyncDispatcher() *asyncDispatcher {
	return &asyncDispatcher{}
}

func (d *asyncDispatcher) dispatch(handle func()) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		handle()
	}()
	return nil
}

func (d *asyncDispatcher) close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// poolDispatcher は接続をワーカープールのジョブとして投入する
type poolDispatcher struct {
	pool *worker.Pool
}

func newPoolDispatcher(workers int) (*poolDispatcher, error) {
	pool, err := worker.New(workers)
	if err != nil {
		return nil, err
	}
	return &poolDispatcher{pool: pool}, nil
}

func (d *poolDispatcher) dispatch(handle func()) error {
	return d.pool.Execute(handle)
}

func (d *poolDispatcher) close(ctx context.Context) error {
	return d.pool.Shutdown(ctx)
}
