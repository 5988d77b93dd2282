// Package disposable implements single-fire teardown handles and the ways
// they compose: grouping, reference counting, deferred assignment and
// replacement. Every Dispose in this package is idempotent and safe to call
// from several goroutines; the teardown side effect runs at most once.
package disposable

import "errors"

// ErrAlreadyAssigned is the panic value raised when a SingleAssignment
// receives a second inner disposable.
var ErrAlreadyAssigned = errors.New("disposable: inner disposable already assigned")

// Disposable is a handle to one teardown action.
type Disposable interface {
	// Dispose runs the teardown if it has not run yet.
	Dispose()
}

// Cancelable is a Disposable that can report whether it was disposed.
type Cancelable interface {
	Disposable

	// IsDisposed reports whether Dispose has been called.
	IsDisposed() bool
}

type nopDisposable struct{}

func (nopDisposable) Dispose() {}

// Nop is a Disposable whose Dispose does nothing.
var Nop Disposable = nopDisposable{}

// Disposed returns a handle that is already in the disposed state.
func Disposed() Cancelable {
	b := NewBoolean()
	b.Dispose()
	return b
}
