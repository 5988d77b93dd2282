package scheduler

import (
	"sync"
	"time"

	"github.com/hackebrot/go-rx-scheduler/pkg/bag"
	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
)

// ScheduleRecursive runs action on s and hands it a recurse function that
// schedules action again with a new state. Disposing the returned handle
// cancels whatever is pending and suppresses all later recursion.
func ScheduleRecursive[S any](s ImmediateScheduler, state S, action func(state S, recurse func(S))) disposable.Disposable {
	r := &recursiveScheduler[S]{
		sched:  s,
		action: action,
		group:  disposable.NewComposite(),
	}
	r.schedule(state)
	return r.group
}

type recursivePhase int

const (
	phaseInitial recursivePhase = iota
	phaseAdded
	phaseDone
)

type recursiveScheduler[S any] struct {
	mu     sync.Mutex
	sched  ImmediateScheduler
	action func(S, func(S))
	group  *disposable.CompositeDisposable
}

func (r *recursiveScheduler[S]) schedule(state S) {
	var (
		phase = phaseInitial
		key   bag.Key
	)

	d := Schedule(r.sched, state, func(_ ImmediateScheduler, st S) disposable.Disposable {
		if r.group.IsDisposed() {
			return disposable.Nop
		}

		r.mu.Lock()
		if phase == phaseAdded {
			r.group.Remove(key)
		}
		phase = phaseDone
		r.mu.Unlock()

		r.action(st, r.schedule)
		return disposable.Nop
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if phase != phaseInitial {
		return
	}
	if k, ok := r.group.Insert(d); ok {
		key = k
		phase = phaseAdded
		return
	}
	phase = phaseDone
}

// SchedulePeriodic calls action every period on s's clock, feeding each call
// the state returned by the previous one. Due times are measured from the
// first call to SchedulePeriodic, so slow actions do not accumulate drift.
// It panics if period is not positive.
func SchedulePeriodic[S any](s Scheduler, state S, period time.Duration, action func(S) S) disposable.Disposable {
	if period <= 0 {
		panic("scheduler: periodic schedule needs a positive period")
	}

	current := disposable.NewSerial()
	next := s.Now().Add(period)

	var tick func(ImmediateScheduler, S) disposable.Disposable
	tick = func(_ ImmediateScheduler, st S) disposable.Disposable {
		if current.IsDisposed() {
			return disposable.Nop
		}
		st = action(st)
		next = next.Add(period)
		current.SetDisposable(ScheduleAbsolute(s, st, next, tick))
		return disposable.Nop
	}

	current.SetDisposable(ScheduleAbsolute(s, state, next, tick))
	return current
}
