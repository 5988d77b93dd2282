package disposable

import "sync"

// SerialDisposable holds a replaceable inner disposable. Replacing it
// disposes the previous one; once the serial itself is disposed, anything
// assigned later is disposed immediately.
type SerialDisposable struct {
	mu       sync.Mutex
	current  Disposable
	disposed bool
}

// NewSerial creates an empty serial disposable.
func NewSerial() *SerialDisposable {
	return &SerialDisposable{}
}

// SetDisposable swaps in d and disposes the one it replaces.
func (s *SerialDisposable) SetDisposable(d Disposable) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		if d != nil {
			d.Dispose()
		}
		return
	}
	previous := s.current
	s.current = d
	s.mu.Unlock()

	if previous != nil {
		previous.Dispose()
	}
}

// Dispose disposes the current inner disposable and every later one.
func (s *SerialDisposable) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	current := s.current
	s.current = nil
	s.mu.Unlock()

	if current != nil {
		current.Dispose()
	}
}

// IsDisposed reports whether Dispose has been called.
func (s *SerialDisposable) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

var _ Cancelable = (*SerialDisposable)(nil)
