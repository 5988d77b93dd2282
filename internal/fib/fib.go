// Package fib is the demo workload: Fibonacci computations packaged as
// scheduler actions.
package fib

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hackebrot/go-fibonacci"
	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
	"github.com/hackebrot/go-rx-scheduler/pkg/scheduler"
)

// MaxN bounds n; the recursive strategy is exponential.
const MaxN = 35

// ErrOutOfRange is returned for n outside [0, MaxN].
var ErrOutOfRange = errors.New("fib: n out of range")

// Task computes the nth Fibonacci number using a specified strategy.
type Task struct {
	id       string
	n        int
	strategy fibonacci.Strategy
	delay    time.Duration
}

// NewTask creates a task that should run delay after it is scheduled.
func NewTask(id string, n int, strategy fibonacci.Strategy, delay time.Duration) *Task {
	return &Task{
		id:       id,
		n:        n,
		strategy: strategy,
		delay:    delay,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string {
	return t.id
}

// N returns the Fibonacci index.
func (t *Task) N() int {
	return t.n
}

// Delay returns how long after scheduling the task should run.
func (t *Task) Delay() time.Duration {
	return t.delay
}

// Execute computes the Fibonacci number.
func (t *Task) Execute() (any, error) {
	if t.n < 0 || t.n > MaxN {
		return nil, fmt.Errorf("task %s: n=%d: %w", t.id, t.n, ErrOutOfRange)
	}
	r := t.strategy.Compute(t.n)
	slog.Debug("computation complete", "task_id", t.id, "n", t.n, "result", r)
	return r, nil
}

// Result is the outcome of one task run.
type Result struct {
	TaskID string
	N      int
	Value  any
	Error  error

	// At is the running scheduler's clock, zero for schedulers without one.
	At time.Time

	StartTime time.Time
	EndTime   time.Time
}

// Duration is the wall-clock time spent computing.
func (r Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Action returns a scheduler action that runs t and hands its Result to
// record.
func (t *Task) Action(record func(Result)) scheduler.Action {
	return func(s scheduler.ImmediateScheduler, _ any) disposable.Disposable {
		res := Result{TaskID: t.id, N: t.n}
		if clock, ok := s.(scheduler.Scheduler); ok {
			res.At = clock.Now()
		}
		res.StartTime = time.Now()
		res.Value, res.Error = t.Execute()
		res.EndTime = time.Now()
		record(res)
		return disposable.Nop
	}
}

// Schedule queues t on s after its delay.
func (t *Task) Schedule(s scheduler.Scheduler, record func(Result)) disposable.Disposable {
	return s.ScheduleRelative(nil, t.delay, t.Action(record))
}
