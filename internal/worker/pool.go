package worker

import (
	"context"
	"fmt"
	"sync"

	"pool-bench/internal/logger"
)

// State はプール全体の状態を表す
type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	NumWorkers    int          // ワーカー数（1以上）
	QueueCapacity int          // キューの初期容量（不足すると自動で拡張）
	PanicHandler  PanicHandler // ジョブの panic 通知（任意）
}

// DefaultPoolConfig はデフォルト設定を返す
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers:    1,
		QueueCapacity: 64,
	}
}

// Pool は固定数のワーカーゴルーチンを管理する
type Pool struct {
	numWorkers int
	queue      *queue
	workers    []*worker
	wg         sync.WaitGroup

	mu    sync.RWMutex
	state State
	done  chan struct{}
}

// New は numWorkers 個のワーカーで起動済みのプールを作成する
func New(numWorkers int) (*Pool, error) {
	config := DefaultPoolConfig()
	config.NumWorkers = numWorkers
	return NewWithConfig(config)
}

// NewWithConfig は設定を指定してプールを作成する
// ワーカーはすぐに起動し、キューで待機する
func NewWithConfig(config PoolConfig) (*Pool, error) {
	if config.NumWorkers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrEmptyPoolConfig, config.NumWorkers)
	}
	capacity := config.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultPoolConfig().QueueCapacity
	}

	p := &Pool{
		numWorkers: config.NumWorkers,
		queue:      newQueue(capacity),
		workers:    make([]*worker, config.NumWorkers),
		state:      StateInitializing,
		done:       make(chan struct{}),
	}

	for i := range p.numWorkers {
		w := newWorker(i, p.queue, config.PanicHandler)
		p.workers[i] = w
		p.queue.attach()
		p.wg.Add(1)
		go w.run(p.wg.Done)
	}

	p.state = StateRunning
	logger.Info("", "WorkerPool started with %d workers", p.numWorkers)
	return p, nil
}

// Execute はジョブをキューに追加する。ブロックしない
func (p *Pool) Execute(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != StateRunning {
		return ErrPoolShuttingDown
	}
	return p.queue.send(item{job: job})
}

// Shutdown は受付を止め、受理済みのジョブを全て実行してからワーカーを終了させる
// ctx が先に終わった場合は ctx.Err() を返すが、停止処理自体は継続する
// ジョブの中から呼んではならない
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	first := p.state == StateRunning
	if first {
		p.state = StateDraining
		// 受理済みジョブの後ろにワーカー数分の終了トークンを積む
		for range p.numWorkers {
			if err := p.queue.send(item{stop: true}); err != nil {
				break
			}
		}
	}
	p.mu.Unlock()

	if first {
		logger.Info("", "WorkerPool draining (%d queued)", p.queue.len())
		go p.join()
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// join は全ワーカーの終了を待つ。Shutdown から一度だけ呼ばれる
func (p *Pool) join() {
	p.wg.Wait()

	p.mu.Lock()
	p.state = StateStopped
	p.mu.Unlock()
	close(p.done)

	logger.Info("", "WorkerPool stopped")
}

// Stop は全ワーカーが終了するまでブロックする
func (p *Pool) Stop() {
	_ = p.Shutdown(context.Background())
}

// Done はプールが完全に停止すると閉じられるチャネルを返す
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// State は現在の状態を返す
func (p *Pool) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Alive は終了していないワーカー数を返す
func (p *Pool) Alive() int {
	alive := 0
	for _, w := range p.workers {
		if !w.stopped() {
			alive++
		}
	}
	return alive
}

// QueueSize は実行待ちの要素数を返す
func (p *Pool) QueueSize() int {
	return p.queue.len()
}

// Discarded は最後のワーカーが異常終了したときに破棄されたジョブ数を返す
func (p *Pool) Discarded() int {
	return p.queue.dropped()
}
