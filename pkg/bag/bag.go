// Package bag provides a keyed container tuned for high-churn insert and
// remove of short-lived entries, such as the observers of a multicast source
// or the children of a composite disposable.
package bag

// maxOrderedSize is the number of entries kept in the ordered slice before
// the bag switches to map storage.
const maxOrderedSize = 30

// Key identifies an entry in a Bag. Keys are minted by Insert and never
// reused for the lifetime of the bag.
type Key uint64

type entry[T any] struct {
	key   Key
	value T
}

// Bag is an insertion-ordered multiset while small. Once it holds more than
// a handful of entries it moves to map storage, which gives O(1) removal but
// no longer guarantees iteration order.
//
// It is not safe for concurrent use.
type Bag[T any] struct {
	nextKey Key
	ordered []entry[T]
	dict    map[Key]T
}

// New creates an empty Bag.
func New[T any]() *Bag[T] {
	return &Bag[T]{}
}

// Insert adds value to the bag and returns the key that removes it.
func (b *Bag[T]) Insert(value T) Key {
	b.nextKey++
	key := b.nextKey

	if b.dict != nil {
		b.dict[key] = value
		return key
	}

	if len(b.ordered) < maxOrderedSize {
		b.ordered = append(b.ordered, entry[T]{key: key, value: value})
		return key
	}

	b.dict = make(map[Key]T, 2*maxOrderedSize)
	for _, e := range b.ordered {
		b.dict[e.key] = e.value
	}
	b.ordered = nil
	b.dict[key] = value
	return key
}

// RemoveKey removes the entry for key and returns its value. The boolean is
// false if the key is unknown or was already removed.
func (b *Bag[T]) RemoveKey(key Key) (T, bool) {
	if b.dict != nil {
		value, ok := b.dict[key]
		if ok {
			delete(b.dict, key)
		}
		return value, ok
	}

	for i, e := range b.ordered {
		if e.key != key {
			continue
		}
		copy(b.ordered[i:], b.ordered[i+1:])
		var zero entry[T]
		b.ordered[len(b.ordered)-1] = zero
		b.ordered = b.ordered[:len(b.ordered)-1]
		return e.value, true
	}

	var zero T
	return zero, false
}

// RemoveAll drops every entry. Keys keep increasing afterwards.
func (b *Bag[T]) RemoveAll() {
	b.ordered = nil
	b.dict = nil
}

// Count returns the number of live entries.
func (b *Bag[T]) Count() int {
	if b.dict != nil {
		return len(b.dict)
	}
	return len(b.ordered)
}

// Values returns a snapshot of the live values.
func (b *Bag[T]) Values() []T {
	values := make([]T, 0, b.Count())
	if b.dict != nil {
		for _, v := range b.dict {
			values = append(values, v)
		}
		return values
	}
	for _, e := range b.ordered {
		values = append(values, e.value)
	}
	return values
}

// ForEach calls action for every entry live at the time of the call.
// Mutations made by action affect neither which entries are visited nor how
// many times.
func (b *Bag[T]) ForEach(action func(T)) {
	for _, v := range b.Values() {
		action(v)
	}
}
