package scheduler

import (
	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
)

// Action is a unit of scheduled work. It receives the scheduler running it,
// so that it can schedule follow-up work without holding a reference of its
// own, and the state passed at scheduling time. The returned disposable
// represents whatever the action started; it is disposed together with the
// scheduling handle.
type Action func(s ImmediateScheduler, state any) disposable.Disposable

// scheduledItem is an action waiting in a queue. Disposing it before it runs
// keeps it from running; disposing it afterwards disposes what the action
// returned.
type scheduledItem struct {
	sched  ImmediateScheduler
	state  any
	action Action
	result *disposable.SingleAssignmentDisposable
}

func newScheduledItem(sched ImmediateScheduler, state any, action Action) *scheduledItem {
	return &scheduledItem{
		sched:  sched,
		state:  state,
		action: action,
		result: disposable.NewSingleAssignment(),
	}
}

// invoke runs the action unless the item was cancelled.
func (it *scheduledItem) invoke() {
	if it.result.IsDisposed() {
		return
	}
	action, state := it.action, it.state
	it.action, it.state = nil, nil
	it.result.SetDisposable(orNop(action(it.sched, state)))
}

// Dispose cancels the item, or disposes what its action returned.
func (it *scheduledItem) Dispose() {
	it.result.Dispose()
}

func (it *scheduledItem) IsDisposed() bool {
	return it.result.IsDisposed()
}

func orNop(d disposable.Disposable) disposable.Disposable {
	if d == nil {
		return disposable.Nop
	}
	return d
}

var _ disposable.Cancelable = (*scheduledItem)(nil)
