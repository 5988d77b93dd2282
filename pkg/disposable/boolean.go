package disposable

import "sync/atomic"

// BooleanDisposable only records that it was disposed.
type BooleanDisposable struct {
	disposed atomic.Bool
}

// NewBoolean creates an undisposed handle.
func NewBoolean() *BooleanDisposable {
	return &BooleanDisposable{}
}

// Dispose marks the handle disposed.
func (b *BooleanDisposable) Dispose() {
	b.disposed.Store(true)
}

// IsDisposed reports whether Dispose has been called.
func (b *BooleanDisposable) IsDisposed() bool {
	return b.disposed.Load()
}

var _ Cancelable = (*BooleanDisposable)(nil)
