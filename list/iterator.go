// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package list

import "github.com/jogster/Honeycomb/hazard"

// Iterator is a bidirectional cursor over a list.
//
// An iterator instance is not goroutine-safe; it can't be shared between
// goroutines without a lock. Each iterator holds one hazard reference to
// its cursor and pins a hazard-manager thread block, so a live iterator
// counts against the list's concurrent accessor budget until Close.
type Iterator[T any] struct {
	list   *List[T]
	t      *hazard.Thread[T]
	cur    *hazard.Node[T]
	closed bool
}

func (l *List[T]) newIter(end bool) *Iterator[T] {
	t := l.mem.Acquire()
	cur := l.headNode
	if end {
		cur = l.tailNode
	}
	l.mem.Ref(t, cur)
	return &Iterator[T]{list: l, t: t, cur: cur}
}

// Begin returns an iterator positioned on the first element (or at the
// end of an empty list).
func (l *List[T]) Begin() *Iterator[T] {
	it := l.newIter(false)
	it.Next()
	return it
}

// End returns an iterator positioned past the last element.
func (l *List[T]) End() *Iterator[T] { return l.newIter(true) }

// Next advances to the next element, skipping logically deleted nodes and
// opportunistically unlinking them.
func (it *Iterator[T]) Next() {
	l := it.list
	m := l.mem
	for {
		if it.cur == l.tailNode {
			break
		}
		next := m.DeRefLink(it.t, it.cur.Link(nextLink))
		d := next.Link(nextLink).Load().Del()
		if d && it.cur.Link(nextLink).Load() != next.Ptr().WithDel(true) {
			l.setMark(next.Link(prevLink))
			m.CasRef(it.cur.Link(nextLink), next.Link(nextLink).Load().WithDel(false), next.Ptr())
			m.ReleaseRef(it.t, next)
			continue
		}
		m.ReleaseRef(it.t, it.cur)
		it.cur = next
		if !d {
			break
		}
	}
}

// Prev moves to the previous element, repairing backward links that lag
// behind concurrent removals.
func (it *Iterator[T]) Prev() {
	l := it.list
	m := l.mem
	for {
		if it.cur == l.headNode {
			break
		}
		prev := m.DeRefLink(it.t, it.cur.Link(prevLink))
		if prev.Link(nextLink).Load() == it.cur.Ptr() && !it.cur.Link(nextLink).Load().Del() {
			m.ReleaseRef(it.t, it.cur)
			it.cur = prev
			break
		} else if it.cur.Link(nextLink).Load().Del() {
			m.ReleaseRef(it.t, prev)
			it.Next()
		} else {
			prev = l.correctPrev(it.t, prev, it.cur)
			m.ReleaseRef(it.t, prev)
		}
	}
}

// Value returns the element at the cursor. Only meaningful while the
// cursor is on a non-sentinel position.
func (it *Iterator[T]) Value() T { return it.cur.Value }

// Valid reports whether the cursor points to an element that has not been
// deleted.
func (it *Iterator[T]) Valid() bool {
	return !it.cur.Link(nextLink).Load().Del()
}

// AtEnd reports whether the cursor is past the last element.
func (it *Iterator[T]) AtEnd() bool { return it.cur == it.list.tailNode }

// AtBegin reports whether the cursor is before the first element.
func (it *Iterator[T]) AtBegin() bool { return it.cur == it.list.headNode }

// Equal reports whether two iterators are at the same position.
func (it *Iterator[T]) Equal(other *Iterator[T]) bool { return it.cur == other.cur }

// Close releases the cursor reference and the pinned thread block.
// The iterator must not be used afterwards.
func (it *Iterator[T]) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.list.mem.ReleaseRef(it.t, it.cur)
	it.list.mem.Release(it.t)
	it.cur = nil
}

// ReverseIterator traverses the list from back to front.
type ReverseIterator[T any] struct {
	it *Iterator[T]
}

// RBegin returns a reverse iterator positioned on the last element (or at
// the reverse end of an empty list).
func (l *List[T]) RBegin() *ReverseIterator[T] {
	it := l.newIter(true)
	it.Prev()
	return &ReverseIterator[T]{it: it}
}

// REnd returns a reverse iterator positioned before the first element.
func (l *List[T]) REnd() *ReverseIterator[T] {
	return &ReverseIterator[T]{it: l.newIter(false)}
}

// Next advances toward the front of the list.
func (r *ReverseIterator[T]) Next() { r.it.Prev() }

// Prev moves back toward the end of the list.
func (r *ReverseIterator[T]) Prev() { r.it.Next() }

// Value returns the element at the cursor.
func (r *ReverseIterator[T]) Value() T { return r.it.Value() }

// Valid reports whether the cursor points to a non-deleted element.
func (r *ReverseIterator[T]) Valid() bool { return r.it.Valid() }

// AtEnd reports whether the cursor is before the first element.
func (r *ReverseIterator[T]) AtEnd() bool { return r.it.AtBegin() }

// Close releases the underlying iterator.
func (r *ReverseIterator[T]) Close() { r.it.Close() }
