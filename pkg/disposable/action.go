package disposable

import "sync/atomic"

// ActionDisposable runs a teardown function exactly once.
type ActionDisposable struct {
	disposed atomic.Bool
	teardown func()
}

// Action wraps teardown in a Disposable. A nil teardown is allowed.
func Action(teardown func()) *ActionDisposable {
	return &ActionDisposable{teardown: teardown}
}

// Dispose runs the teardown on the first call. A panic raised by the
// teardown reaches the caller; the handle still counts as disposed.
func (a *ActionDisposable) Dispose() {
	if a.disposed.Swap(true) {
		return
	}
	teardown := a.teardown
	a.teardown = nil
	if teardown != nil {
		teardown()
	}
}

// IsDisposed reports whether Dispose has been called.
func (a *ActionDisposable) IsDisposed() bool {
	return a.disposed.Load()
}

var _ Cancelable = (*ActionDisposable)(nil)
