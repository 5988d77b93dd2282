package scheduler

import (
	"time"

	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
)

// Schedule is the typed form of ImmediateScheduler.Schedule.
func Schedule[S any](s ImmediateScheduler, state S, action func(ImmediateScheduler, S) disposable.Disposable) disposable.Disposable {
	return s.Schedule(state, typed(action))
}

// ScheduleRelative is the typed form of Scheduler.ScheduleRelative.
func ScheduleRelative[S any](s Scheduler, state S, due time.Duration, action func(ImmediateScheduler, S) disposable.Disposable) disposable.Disposable {
	return s.ScheduleRelative(state, due, typed(action))
}

// ScheduleAbsolute is the typed form of Scheduler.ScheduleAbsolute.
func ScheduleAbsolute[S any](s Scheduler, state S, at time.Time, action func(ImmediateScheduler, S) disposable.Disposable) disposable.Disposable {
	return s.ScheduleAbsolute(state, at, typed(action))
}

// ScheduleFunc runs fn on s and has nothing to tear down afterwards.
func ScheduleFunc(s ImmediateScheduler, fn func()) disposable.Disposable {
	return s.Schedule(nil, func(ImmediateScheduler, any) disposable.Disposable {
		fn()
		return disposable.Nop
	})
}

func typed[S any](action func(ImmediateScheduler, S) disposable.Disposable) Action {
	return func(s ImmediateScheduler, state any) disposable.Disposable {
		var st S
		if state != nil {
			st = state.(S)
		}
		return action(s, st)
	}
}
