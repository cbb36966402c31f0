// Package priqueue provides a comparator-ordered sequence of opaque handles.
//
// Elements are kept sorted by an injected three-way comparator and ties keep
// their insertion order, so a comparator that never expresses a preference
// turns the queue into a plain FIFO. The queue never owns its elements.
package priqueue

import (
	"iter"
	"sort"
)

// Comparator returns a negative number when a must be dequeued before b,
// zero when neither is preferred and a positive number otherwise.
type Comparator[T any] func(a, b T) int

// Queue is a stable priority-ordered sequence. The zero value is not usable;
// create queues with New.
type Queue[T comparable] struct {
	items   []T
	compare Comparator[T]
}

// New creates an empty queue bound to cmp.
func New[T comparable](cmp Comparator[T]) *Queue[T] {
	return &Queue[T]{compare: cmp}
}

// Offer inserts e after every element it does not strictly outrank and
// returns the zero-based index it landed at.
func (q *Queue[T]) Offer(e T) int {
	// items is sorted, so "e strictly outranks items[i]" is false for a prefix
	// and true for the rest.
	idx := sort.Search(len(q.items), func(i int) bool {
		return q.compare(e, q.items[i]) < 0
	})
	var zero T
	q.items = append(q.items, zero)
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = e
	return idx
}

// Peek returns the highest-ranked element without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	return q.At(0)
}

// Poll removes and returns the highest-ranked element.
func (q *Queue[T]) Poll() (T, bool) {
	return q.RemoveAt(0)
}

// At returns the element at index, 0 being the highest-ranked.
func (q *Queue[T]) At(index int) (T, bool) {
	if index < 0 || index >= len(q.items) {
		var zero T
		return zero, false
	}
	return q.items[index], true
}

// Remove drops every element identical to e and returns how many were removed.
// The comparator is not consulted.
func (q *Queue[T]) Remove(e T) int {
	kept := q.items[:0]
	for _, item := range q.items {
		if item != e {
			kept = append(kept, item)
		}
	}
	removed := len(q.items) - len(kept)
	clear(q.items[len(kept):])
	q.items = kept
	return removed
}

// RemoveAt removes and returns the element at index, shifting later elements up.
func (q *Queue[T]) RemoveAt(index int) (T, bool) {
	e, ok := q.At(index)
	if !ok {
		return e, false
	}
	copy(q.items[index:], q.items[index+1:])
	var zero T
	q.items[len(q.items)-1] = zero // avoid memory leak
	q.items = q.items[:len(q.items)-1]
	return e, true
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// All iterates over the queue in rank order.
func (q *Queue[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range q.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Destroy releases the internal storage. The elements themselves are untouched.
func (q *Queue[T]) Destroy() {
	clear(q.items)
	q.items = nil
}
