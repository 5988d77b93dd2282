package scheduler

import "container/heap"

// timedItem is a scheduledItem with its due time and insertion sequence.
type timedItem[V any] struct {
	*scheduledItem
	due V
	seq uint64
}

// itemQueue implements heap.Interface for timedItem, ordered by due time and
// then by insertion sequence, so items due at the same time pop in the order
// they were scheduled.
type itemQueue[V any] struct {
	items   []*timedItem[V]
	compare func(a, b V) int
}

func (q *itemQueue[V]) Len() int { return len(q.items) }

func (q *itemQueue[V]) Less(i, j int) bool {
	if c := q.compare(q.items[i].due, q.items[j].due); c != 0 {
		return c < 0
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *itemQueue[V]) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *itemQueue[V]) Push(x any) {
	q.items = append(q.items, x.(*timedItem[V]))
}

func (q *itemQueue[V]) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return it
}

// peek returns the earliest live item, discarding cancelled items found on
// top of the heap along the way.
func (q *itemQueue[V]) peek() *timedItem[V] {
	for len(q.items) > 0 {
		top := q.items[0]
		if !top.IsDisposed() {
			return top
		}
		heap.Pop(q)
	}
	return nil
}

func (q *itemQueue[V]) push(it *timedItem[V]) {
	heap.Push(q, it)
}

func (q *itemQueue[V]) pop() *timedItem[V] {
	return heap.Pop(q).(*timedItem[V])
}
