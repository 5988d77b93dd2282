package disposable

import "sync"

// SingleAssignmentDisposable holds an inner disposable that is assigned
// exactly once, possibly after the handle was already handed out.
type SingleAssignmentDisposable struct {
	mu       sync.Mutex
	inner    Disposable
	assigned bool
	disposed bool
}

// NewSingleAssignment creates a handle awaiting its inner disposable.
func NewSingleAssignment() *SingleAssignmentDisposable {
	return &SingleAssignmentDisposable{}
}

// SetDisposable assigns the inner disposable. If the handle was disposed
// first, d is disposed right away instead of being stored. A second call
// panics with ErrAlreadyAssigned.
func (s *SingleAssignmentDisposable) SetDisposable(d Disposable) {
	s.mu.Lock()
	if s.assigned {
		s.mu.Unlock()
		panic(ErrAlreadyAssigned)
	}
	s.assigned = true
	if !s.disposed {
		s.inner = d
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if d != nil {
		d.Dispose()
	}
}

// Dispose disposes the inner disposable, now or once it is assigned.
func (s *SingleAssignmentDisposable) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	inner := s.inner
	s.inner = nil
	s.mu.Unlock()

	if inner != nil {
		inner.Dispose()
	}
}

// IsDisposed reports whether Dispose has been called.
func (s *SingleAssignmentDisposable) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

var _ Cancelable = (*SingleAssignmentDisposable)(nil)
