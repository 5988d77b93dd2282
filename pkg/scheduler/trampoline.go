package scheduler

import (
	"log/slog"
	"sync"

	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
)

// Trampoline runs work on the calling goroutine. The first Schedule on a
// goroutine runs its action inline; any Schedule issued while that action (or
// work it queued) is running is queued instead and drained in FIFO order
// before the first call returns. Recursive scheduling therefore becomes
// iteration and the stack stays flat.
//
// The active flag and queue are per goroutine. A Trampoline may be shared by
// any number of goroutines, each getting its own independent queue.
type Trampoline struct {
	mu     sync.Mutex
	queues map[uint64]*trampolineQueue
	logger *slog.Logger
}

// trampolineQueue is only touched by the goroutine that owns it.
type trampolineQueue struct {
	items []*scheduledItem
}

// NewTrampoline creates a trampoline scheduler. A nil logger means slog.Default().
func NewTrampoline(logger *slog.Logger) *Trampoline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trampoline{
		queues: make(map[uint64]*trampolineQueue),
		logger: logger.With("component", "trampoline"),
	}
}

// IsScheduleRequired reports whether no trampoline is active on the calling
// goroutine, i.e. whether a Schedule call right now would run its action
// synchronously.
func (t *Trampoline) IsScheduleRequired() bool {
	_, active := t.queue(goroutineID())
	return !active
}

// Schedule runs action inline when no trampoline is active on this goroutine
// and returns the action's own disposable. Otherwise action is queued and the
// returned handle removes it from the queue if disposed in time.
func (t *Trampoline) Schedule(state any, action Action) disposable.Disposable {
	gid := goroutineID()
	if q, active := t.queue(gid); active {
		it := newScheduledItem(t, state, action)
		q.items = append(q.items, it)
		return it
	}

	q := &trampolineQueue{}
	t.mu.Lock()
	t.queues[gid] = q
	t.mu.Unlock()
	defer t.release(gid, q)

	d := orNop(action(t, state))
	t.drain(q)
	return d
}

func (t *Trampoline) queue(gid uint64) (*trampolineQueue, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q, ok := t.queues[gid]
	return q, ok
}

func (t *Trampoline) drain(q *trampolineQueue) {
	ran := 0
	for len(q.items) > 0 {
		it := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		if it.IsDisposed() {
			continue
		}
		it.invoke()
		ran++
	}
	if ran > 0 {
		t.logger.Debug("trampoline drained", "count_tasks", ran)
	}
}

// release clears the active flag. Work still queued here was abandoned by a
// panicking action.
func (t *Trampoline) release(gid uint64, q *trampolineQueue) {
	t.mu.Lock()
	delete(t.queues, gid)
	t.mu.Unlock()

	if n := len(q.items); n > 0 {
		t.logger.Warn("dropping queued work after failed action", "count_tasks", n)
		q.items = nil
	}
}

var _ ImmediateScheduler = (*Trampoline)(nil)
