package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
)

var (
	// ErrAlreadyRunning is returned by AdvanceTo while the clock is already being driven.
	ErrAlreadyRunning = errors.New("scheduler: virtual time scheduler is already running")

	// ErrNotRunning is returned by Sleep outside of Start or AdvanceTo.
	ErrNotRunning = errors.New("scheduler: virtual time scheduler is not running")

	// ErrTimeInPast is returned when asked to move the virtual clock backwards.
	ErrTimeInPast = errors.New("scheduler: virtual time cannot move backwards")
)

// VirtualTimeConverter defines a virtual clock: its absolute time type V, its
// interval type I, and how both map onto wall-clock values.
type VirtualTimeConverter[V, I any] interface {
	ToTime(v V) time.Time
	FromTime(t time.Time) V
	ToDuration(i I) time.Duration
	FromDuration(d time.Duration) I

	// Offset returns v moved forward by i.
	Offset(v V, i I) V

	// Compare returns -1, 0 or +1 as a is before, equal to or after b.
	Compare(a, b V) int
}

// VirtualTimeScheduler simulates time. Scheduled work sits in a priority
// queue ordered by due time, ties broken by scheduling order, and runs only
// when the clock is driven by Start or AdvanceTo. The clock never moves
// backwards.
//
// It is single-threaded: all methods, and the Dispose of handles it returned,
// must be called from the goroutine driving it.
type VirtualTimeScheduler[V, I any] struct {
	conv    VirtualTimeConverter[V, I]
	clock   V
	running bool
	seq     uint64
	queue   *itemQueue[V]
	logger  *slog.Logger
}

// NewVirtualTimeScheduler creates a stopped scheduler whose clock reads
// initialClock. A nil logger means slog.Default().
func NewVirtualTimeScheduler[V, I any](initialClock V, conv VirtualTimeConverter[V, I], logger *slog.Logger) *VirtualTimeScheduler[V, I] {
	if logger == nil {
		logger = slog.Default()
	}
	return &VirtualTimeScheduler[V, I]{
		conv:   conv,
		clock:  initialClock,
		queue:  &itemQueue[V]{compare: conv.Compare},
		logger: logger.With("component", "virtual_time_scheduler"),
	}
}

// Clock returns the current virtual time.
func (s *VirtualTimeScheduler[V, I]) Clock() V {
	return s.clock
}

// Now returns the virtual clock converted to wall-clock time.
func (s *VirtualTimeScheduler[V, I]) Now() time.Time {
	return s.conv.ToTime(s.clock)
}

// IsRunning reports whether Start or AdvanceTo is driving the clock.
func (s *VirtualTimeScheduler[V, I]) IsRunning() bool {
	return s.running
}

// PendingCount returns the number of scheduled items that were neither run
// nor cancelled.
func (s *VirtualTimeScheduler[V, I]) PendingCount() int {
	n := 0
	for _, it := range s.queue.items {
		if !it.IsDisposed() {
			n++
		}
	}
	return n
}

// Schedule queues action at the current virtual time.
func (s *VirtualTimeScheduler[V, I]) Schedule(state any, action Action) disposable.Disposable {
	return s.ScheduleAbsoluteVirtual(state, s.clock, action)
}

// ScheduleRelative queues action due after the virtual equivalent of due.
func (s *VirtualTimeScheduler[V, I]) ScheduleRelative(state any, due time.Duration, action Action) disposable.Disposable {
	return s.ScheduleRelativeVirtual(state, s.conv.FromDuration(due), action)
}

// ScheduleAbsolute queues action due at the virtual equivalent of at.
func (s *VirtualTimeScheduler[V, I]) ScheduleAbsolute(state any, at time.Time, action Action) disposable.Disposable {
	return s.ScheduleAbsoluteVirtual(state, s.conv.FromTime(at), action)
}

// ScheduleRelativeVirtual queues action due at the current clock plus due.
func (s *VirtualTimeScheduler[V, I]) ScheduleRelativeVirtual(state any, due I, action Action) disposable.Disposable {
	return s.ScheduleAbsoluteVirtual(state, s.conv.Offset(s.clock, due), action)
}

// ScheduleAbsoluteVirtual queues action due at the virtual time due. Disposing
// the returned handle marks the item cancelled; it is dropped when it reaches
// the front of the queue.
func (s *VirtualTimeScheduler[V, I]) ScheduleAbsoluteVirtual(state any, due V, action Action) disposable.Disposable {
	s.seq++
	it := &timedItem[V]{
		scheduledItem: newScheduledItem(s, state, action),
		due:           due,
		seq:           s.seq,
	}
	s.queue.push(it)
	return it.scheduledItem
}

// Start runs queued items in order until the queue is empty or Stop is
// called. Stop takes effect before the next item is taken, even if further
// items are due at the current time. Calling Start while running does
// nothing. A panicking action aborts the run and leaves the scheduler
// stopped.
func (s *VirtualTimeScheduler[V, I]) Start() {
	if s.running {
		return
	}
	s.running = true
	defer s.stopped()

	s.logger.Debug("virtual time started", "clock", s.clock, "count_tasks", s.queue.Len())
	for s.running {
		next := s.queue.peek()
		if next == nil {
			break
		}
		s.queue.pop()
		s.fire(next)
	}
}

// Stop halts Start or AdvanceTo before they take their next item.
func (s *VirtualTimeScheduler[V, I]) Stop() {
	s.running = false
}

// AdvanceTo runs every item due at or before target, then sets the clock to
// target. Items due later stay queued. If an action calls Stop, the run ends
// early and the clock stays at the last item that ran.
func (s *VirtualTimeScheduler[V, I]) AdvanceTo(target V) error {
	if s.running {
		return ErrAlreadyRunning
	}
	if s.conv.Compare(target, s.clock) < 0 {
		return fmt.Errorf("advance to %v from %v: %w", target, s.clock, ErrTimeInPast)
	}
	s.running = true
	defer s.stopped()

	s.logger.Debug("virtual time advancing", "clock", s.clock, "target", target)
	for s.running {
		next := s.queue.peek()
		if next == nil || s.conv.Compare(next.due, target) > 0 {
			s.clock = target
			return nil
		}
		s.queue.pop()
		s.fire(next)
	}
	return nil
}

// AdvanceBy is AdvanceTo with the target measured from the current clock.
func (s *VirtualTimeScheduler[V, I]) AdvanceBy(interval I) error {
	return s.AdvanceTo(s.conv.Offset(s.clock, interval))
}

// Sleep moves the clock forward by interval without running the items it
// skips over; they run next, at the new clock. It is only valid from inside
// an action while the scheduler is running.
func (s *VirtualTimeScheduler[V, I]) Sleep(interval I) error {
	if !s.running {
		return ErrNotRunning
	}
	to := s.conv.Offset(s.clock, interval)
	if s.conv.Compare(to, s.clock) < 0 {
		return fmt.Errorf("sleep to %v from %v: %w", to, s.clock, ErrTimeInPast)
	}
	s.clock = to
	return nil
}

func (s *VirtualTimeScheduler[V, I]) fire(it *timedItem[V]) {
	if s.conv.Compare(it.due, s.clock) > 0 {
		s.clock = it.due
	}
	it.invoke()
}

func (s *VirtualTimeScheduler[V, I]) stopped() {
	s.running = false
	s.logger.Debug("virtual time stopped", "clock", s.clock, "count_tasks", s.queue.Len())
}

var _ Scheduler = (*VirtualTimeScheduler[int64, int64])(nil)
