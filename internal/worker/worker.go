package worker

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"pool-bench/internal/logger"
)

// Job はワーカーが実行するジョブを表す
type Job func()

// PanicHandler はジョブの panic を受け取るコールバック
type PanicHandler func(workerID int, recovered any)

// workerState はワーカーの状態
type workerState int32

const (
	workerRunning workerState = iota
	workerStopped
)

// worker はキューからジョブを取り出して実行する単一のゴルーチン
type worker struct {
	id      int
	name    string
	queue   *queue
	onPanic PanicHandler
	state   atomic.Int32
}

func newWorker(id int, q *queue, onPanic PanicHandler) *worker {
	return &worker{
		id:      id,
		name:    fmt.Sprintf("worker-%d", id),
		queue:   q,
		onPanic: onPanic,
	}
}

// run は終了トークンを受け取るまでジョブを処理する
func (w *worker) run(done func()) {
	terminated := false
	defer func() {
		dropped := w.queue.detach()
		if !terminated {
			// ジョブが runtime.Goexit を呼んだ
			logger.Error(w.name, "Worker exited without termination token")
		}
		if dropped > 0 {
			logger.Error(w.name, "Last worker exited, discarded %d queued jobs", dropped)
		}
		w.state.Store(int32(workerStopped))
		done()
	}()

	for {
		it := w.queue.receive()
		if it.stop {
			terminated = true
			logger.Debug(w.name, "Worker received termination token")
			return
		}
		w.execute(it.job)
	}
}

// execute はジョブを同期的に実行し、panic を回収する
func (w *worker) execute(job Job) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logger.Error(w.name, "Job panicked: %v\n%s", r, debug.Stack())
		w.notifyPanic(r)
	}()

	job()
}

// notifyPanic は PanicHandler を呼ぶ。ハンドラ自身の panic もここで止める
func (w *worker) notifyPanic(r any) {
	if w.onPanic == nil {
		return
	}
	defer func() {
		if hr := recover(); hr != nil {
			logger.Error(w.name, "PanicHandler panicked: %v", hr)
		}
	}()
	w.onPanic(w.id, r)
}

// stopped はワーカーが終了済みかを返す
func (w *worker) stopped() bool {
	return workerState(w.state.Load()) == workerStopped
}
