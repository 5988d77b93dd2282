package disposable

import (
	"sync"
	"sync/atomic"
)

// RefCountDisposable gates the teardown of a primary disposable on two
// conditions: its own Dispose was requested and every handle obtained from
// Retain has been released. The order in which these happen does not matter.
type RefCountDisposable struct {
	mu        sync.Mutex
	primary   Disposable
	count     int
	requested bool
}

// NewRefCount wraps primary.
func NewRefCount(primary Disposable) *RefCountDisposable {
	return &RefCountDisposable{primary: primary}
}

// Retain returns a dependent handle that keeps the primary alive until it is
// disposed. After the primary was torn down, Retain returns an
// already-disposed handle.
func (r *RefCountDisposable) Retain() Disposable {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.primary == nil {
		return Disposed()
	}
	r.count++
	return &refCountInner{parent: r}
}

// Dispose requests teardown of the primary. It happens now if no dependent
// handle is outstanding, otherwise when the last one is released.
func (r *RefCountDisposable) Dispose() {
	r.mu.Lock()
	if r.primary == nil || r.requested {
		r.mu.Unlock()
		return
	}
	r.requested = true
	primary := r.takePrimaryLocked()
	r.mu.Unlock()

	if primary != nil {
		primary.Dispose()
	}
}

// IsDisposed reports whether the primary was torn down.
func (r *RefCountDisposable) IsDisposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.primary == nil
}

func (r *RefCountDisposable) release() {
	r.mu.Lock()
	if r.primary == nil {
		r.mu.Unlock()
		return
	}
	r.count--
	if r.count < 0 {
		r.mu.Unlock()
		panic("disposable: ref count released more often than retained")
	}
	primary := r.takePrimaryLocked()
	r.mu.Unlock()

	if primary != nil {
		primary.Dispose()
	}
}

func (r *RefCountDisposable) takePrimaryLocked() Disposable {
	if !r.requested || r.count > 0 {
		return nil
	}
	primary := r.primary
	r.primary = nil
	return primary
}

type refCountInner struct {
	parent   *RefCountDisposable
	disposed atomic.Bool
}

func (i *refCountInner) Dispose() {
	if i.disposed.Swap(true) {
		return
	}
	i.parent.release()
}

func (i *refCountInner) IsDisposed() bool {
	return i.disposed.Load()
}

var (
	_ Cancelable = (*RefCountDisposable)(nil)
	_ Cancelable = (*refCountInner)(nil)
)
