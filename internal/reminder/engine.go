package reminder

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidWakeTime = errors.New("reminder: invalid wake time")
	ErrEngineStopped   = errors.New("reminder: engine stopped")
)

// Wakeup asks the loop to evaluate reminders at At.
type Wakeup struct {
	At     time.Time
	Reason string
}

type wakeQueue []Wakeup

func (q wakeQueue) Len() int { return len(q) }

func (q wakeQueue) Less(i, j int) bool {
	return q[i].At.Before(q[j].At)
}

func (q wakeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *wakeQueue) Push(x any) {
	*q = append(*q, x.(Wakeup))
}

func (q *wakeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

// Engine is a timer heap that emits each scheduled wakeup on C once its instant passes.
// Wakeups for an instant already queued are coalesced. Emission never blocks: when the
// consumer falls behind, the wakeup is dropped and counted.
type Engine struct {
	mu      sync.Mutex
	queue   wakeQueue
	out     chan Wakeup
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(wakeQueue, 0),
		out:    make(chan Wakeup, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// C is closed when the engine stops.
func (e *Engine) C() <-chan Wakeup {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(w Wakeup) error {
	if w.At.IsZero() {
		return ErrInvalidWakeTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}
	for _, queued := range e.queue {
		if queued.At.Equal(w.At) {
			return nil
		}
	}

	heap.Push(&e.queue, w)
	e.signalWakeup()
	return nil
}

// Pending returns the number of queued wakeups.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, ok := e.peek()
		if !ok {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next.At)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, w := range e.popDue(time.Now()) {
				select {
				case e.out <- w:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Wakeup, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Wakeup{}, false
	}
	return e.queue[0], true
}

func (e *Engine) popDue(now time.Time) []Wakeup {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Wakeup
	for len(e.queue) > 0 && !e.queue[0].At.After(now) {
		out = append(out, heap.Pop(&e.queue).(Wakeup))
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
