package disposable

import (
	"sync"

	"github.com/hackebrot/go-rx-scheduler/pkg/bag"
)

// CompositeDisposable owns a dynamic group of disposables and disposes all
// of them together.
type CompositeDisposable struct {
	mu       sync.Mutex
	disposed bool
	entries  *bag.Bag[Disposable]
}

// NewComposite creates a composite that already owns disposables.
func NewComposite(disposables ...Disposable) *CompositeDisposable {
	c := &CompositeDisposable{entries: bag.New[Disposable]()}
	for _, d := range disposables {
		c.entries.Insert(d)
	}
	return c
}

// Insert adds d to the group and returns the key that removes it. If the
// composite is already disposed, d is disposed immediately and no key is
// returned.
func (c *CompositeDisposable) Insert(d Disposable) (bag.Key, bool) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return 0, false
	}
	key := c.entries.Insert(d)
	c.mu.Unlock()
	return key, true
}

// Remove takes the entry for key out of the group and disposes it. Unknown
// keys are ignored.
func (c *CompositeDisposable) Remove(key bag.Key) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	d, ok := c.entries.RemoveKey(key)
	c.mu.Unlock()

	if ok {
		d.Dispose()
	}
}

// Count returns the number of disposables currently in the group.
func (c *CompositeDisposable) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Count()
}

// Dispose disposes every entry once and empties the group. Entries are
// disposed outside the lock, so a teardown may safely call back into the
// composite.
func (c *CompositeDisposable) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	entries := c.entries.Values()
	c.entries.RemoveAll()
	c.mu.Unlock()

	DisposeAll(entries...)
}

// IsDisposed reports whether Dispose has been called.
func (c *CompositeDisposable) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

var _ Cancelable = (*CompositeDisposable)(nil)
