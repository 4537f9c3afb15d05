package worker

import "sync"

// item はキューが運ぶ要素。stop が true なら終了トークン
type item struct {
	job  Job
	stop bool
}

// queue はワーカー間で共有される無制限の FIFO キュー
//
// 全ての送受信は内部の mutex で同期される。各要素はちょうど一つの受信者に渡る。
type queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf  []item // リングバッファ
	head int
	size int

	receivers int
	closed    bool
	discarded int // 閉じたときに破棄したジョブ数
}

// newQueue は指定の初期容量でキューを作成する
func newQueue(capacity int) *queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &queue{buf: make([]item, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// attach は受信者を登録する
func (q *queue) attach() {
	q.mu.Lock()
	q.receivers++
	q.mu.Unlock()
}

// detach は受信者を解除する。最後の受信者が抜けるとキューは閉じられ、残りは破棄される
// 戻り値は破棄したジョブ数（終了トークンは含まない）
func (q *queue) detach() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.receivers--
	if q.receivers > 0 {
		return 0
	}

	dropped := 0
	for i := range q.size {
		if !q.buf[(q.head+i)%len(q.buf)].stop {
			dropped++
		}
	}
	q.closed = true
	q.discarded += dropped
	q.buf = nil
	q.head = 0
	q.size = 0
	return dropped
}

// send は要素を末尾に追加する。ブロックしない
func (q *queue) send(it item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.receivers == 0 {
		return ErrChannelClosed
	}

	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = it
	q.size++
	q.cond.Signal()
	return nil
}

// receive は先頭の要素を取り出す。空なら要素が届くまでブロックする
func (q *queue) receive() item {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.size == 0 {
		q.cond.Wait()
	}

	it := q.buf[q.head]
	q.buf[q.head] = item{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return it
}

// len は待機中の要素数を返す
func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// dropped は閉じたときに破棄したジョブ数を返す
func (q *queue) dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.discarded
}

// live は登録中の受信者数を返す
func (q *queue) live() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.receivers
}

// grow はバッファを倍にする。呼び出し側が mu を保持していること
func (q *queue) grow() {
	buf := make([]item, len(q.buf)*2)
	for i := range q.size {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
