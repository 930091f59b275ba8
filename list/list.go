// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package list

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	"github.com/jogster/Honeycomb/hazard"
)

// Link layout: links[0] is the forward chain, links[1] the backward chain.
const (
	nextLink = 0
	prevLink = 1
)

const (
	// DefaultThreadMax is the default bound on concurrent accessors.
	DefaultThreadMax = 8
	// DefaultIterMax is the default bound on live iterators per accessor
	// used to size the hazard slot budget.
	DefaultIterMax = 2
)

// List is a lock-free doubly-linked list.
//
// Based on the paper: "Lock-free deques and doubly linked lists",
// Sundell, et al. - 2008.
type List[T any] struct {
	mem      *hazard.Mem[T]
	headLink hazard.Link // anchor of the head sentinel, fixed after init
	tailLink hazard.Link // anchor of the tail sentinel, fixed after init
	headNode *hazard.Node[T]
	tailNode *hazard.Node[T]
	size     atomix.Int64
}

// New creates a list.
//
// threadMax bounds concurrent accessors (goroutines inside an operation
// plus live iterators); iterMax sizes the per-thread hazard budget for
// iterators. Zero selects the defaults (8 and 2).
func New[T any](threadMax, iterMax int) *List[T] {
	if threadMax == 0 {
		threadMax = DefaultThreadMax
	}
	if iterMax == 0 {
		iterMax = DefaultIterMax
	}
	if iterMax < 0 || threadMax < 0 {
		panic("list: negative configuration")
	}

	l := &List[T]{}
	// A single operation holds at most 5 simultaneous hazard references;
	// iterator cursors need one more each.
	hazardMax := 5 + iterMax
	l.mem = hazard.NewMem(hazard.Config[T]{
		LinkMax:       2,
		LinkDelMax:    2,
		HazardMax:     hazardMax,
		ThreadMax:     threadMax,
		CleanUpNode:   l.cleanUpNode,
		TerminateNode: l.terminateNode,
	})

	t := l.mem.Acquire()
	head := l.mem.CreateNode(t)
	tail := l.mem.CreateNode(t)
	l.mem.StoreRef(&l.headLink, head.Ptr())
	l.mem.StoreRef(&l.tailLink, tail.Ptr())
	l.mem.StoreRef(head.Link(nextLink), tail.Ptr())
	l.mem.StoreRef(tail.Link(prevLink), head.Ptr())
	l.mem.ReleaseRef(t, head)
	l.mem.ReleaseRef(t, tail)
	l.mem.Release(t)
	l.headNode = head
	l.tailNode = tail
	return l
}

// PushFront inserts a new element at the beginning of the list.
func (l *List[T]) PushFront(v T) {
	m := l.mem
	t := m.Acquire()
	defer m.Release(t)

	node := l.createNode(t, v)
	prev := m.DeRefLink(t, &l.headLink)
	next := m.DeRefLink(t, prev.Link(nextLink))
	bo := iox.Backoff{}
	for {
		m.StoreRef(node.Link(prevLink), prev.Ptr())
		m.StoreRef(node.Link(nextLink), next.Ptr())
		if m.CasRef(prev.Link(nextLink), node.Ptr(), next.Ptr()) {
			break
		}
		m.ReleaseRef(t, next)
		next = m.DeRefLink(t, prev.Link(nextLink))
		bo.Wait()
	}
	l.size.Add(1)
	m.ReleaseRef(t, prev)
	l.pushEnd(t, node, next)
}

// PushBack adds a new element onto the end of the list.
func (l *List[T]) PushBack(v T) {
	m := l.mem
	t := m.Acquire()
	defer m.Release(t)

	node := l.createNode(t, v)
	next := m.DeRefLink(t, &l.tailLink)
	prev := m.DeRefLink(t, next.Link(prevLink))
	bo := iox.Backoff{}
	for {
		m.StoreRef(node.Link(prevLink), prev.Ptr())
		m.StoreRef(node.Link(nextLink), next.Ptr())
		if m.CasRef(prev.Link(nextLink), node.Ptr(), next.Ptr()) {
			break
		}
		prev = l.correctPrev(t, prev, next)
		bo.Wait()
	}
	l.size.Add(1)
	m.ReleaseRef(t, prev)
	l.pushEnd(t, node, next)
}

// PopFront removes the first element.
// Returns (zero-value, ErrWouldBlock) if the list is empty.
func (l *List[T]) PopFront() (T, error) {
	m := l.mem
	t := m.Acquire()
	defer m.Release(t)

	prev := m.DeRefLink(t, &l.headLink)
	bo := iox.Backoff{}
	for {
		node := m.DeRefLink(t, prev.Link(nextLink))
		if node == l.tailNode {
			m.ReleaseRef(t, node)
			m.ReleaseRef(t, prev)
			var zero T
			return zero, ErrWouldBlock
		}
		nextD := node.Link(nextLink).Load().Del()
		next := m.DeRefLink(t, node.Link(nextLink))
		if nextD {
			// Already logically deleted; help unlink and retry.
			l.setMark(node.Link(prevLink))
			m.CasRef(prev.Link(nextLink), next.Ptr(), node.Ptr())
			m.ReleaseRef(t, next)
			m.ReleaseRef(t, node)
			continue
		}
		if m.CasRef(node.Link(nextLink), next.Ptr().WithDel(true), next.Ptr()) {
			l.size.Add(-1)
			p := l.correctPrev(t, prev, next)
			m.ReleaseRef(t, p)
			m.ReleaseRef(t, next)
			val := node.Value
			m.ReleaseRef(t, node)
			m.DeleteNode(t, node)
			return val, nil
		}
		m.ReleaseRef(t, next)
		m.ReleaseRef(t, node)
		bo.Wait()
	}
}

// PopBack removes the last element.
// Returns (zero-value, ErrWouldBlock) if the list is empty.
func (l *List[T]) PopBack() (T, error) {
	m := l.mem
	t := m.Acquire()
	defer m.Release(t)

	next := m.DeRefLink(t, &l.tailLink)
	node := m.DeRefLink(t, next.Link(prevLink))
	bo := iox.Backoff{}
	for {
		if node.Link(nextLink).Load() != next.Ptr() {
			node = l.correctPrev(t, node, next)
			continue
		}
		if node == l.headNode {
			m.ReleaseRef(t, node)
			m.ReleaseRef(t, next)
			var zero T
			return zero, ErrWouldBlock
		}
		if m.CasRef(node.Link(nextLink), next.Ptr().WithDel(true), next.Ptr()) {
			l.size.Add(-1)
			prev := m.DeRefLink(t, node.Link(prevLink))
			prev = l.correctPrev(t, prev, next)
			m.ReleaseRef(t, prev)
			m.ReleaseRef(t, next)
			val := node.Value
			m.ReleaseRef(t, node)
			m.DeleteNode(t, node)
			return val, nil
		}
		bo.Wait()
	}
}

// Front returns a copy of the first element.
// Returns (zero-value, ErrWouldBlock) if the list is empty.
func (l *List[T]) Front() (T, error) {
	it := l.Begin()
	defer it.Close()
	if it.AtEnd() || !it.Valid() {
		var zero T
		return zero, ErrWouldBlock
	}
	return it.Value(), nil
}

// Back returns a copy of the last element.
// Returns (zero-value, ErrWouldBlock) if the list is empty.
func (l *List[T]) Back() (T, error) {
	it := l.RBegin()
	defer it.Close()
	if it.AtEnd() || !it.Valid() {
		var zero T
		return zero, ErrWouldBlock
	}
	return it.Value(), nil
}

// Insert inserts an element before the iterator position and leaves the
// iterator on the new element. Panics when it is positioned before the
// first element sentinel.
func (l *List[T]) Insert(it *Iterator[T], v T) {
	if it.cur == l.headNode {
		panic("list: insert before begin")
	}
	m := l.mem
	t := it.t

	node := l.createNode(t, v)
	prev := m.DeRefLink(t, it.cur.Link(prevLink))
	bo := iox.Backoff{}
	for {
		for it.cur.Link(nextLink).Load().Del() {
			it.Next()
			prev = l.correctPrev(t, prev, it.cur)
		}
		m.StoreRef(node.Link(prevLink), prev.Ptr())
		m.StoreRef(node.Link(nextLink), it.cur.Ptr())
		if m.CasRef(prev.Link(nextLink), node.Ptr(), it.cur.Ptr()) {
			break
		}
		prev = l.correctPrev(t, prev, it.cur)
		bo.Wait()
	}
	l.size.Add(1)
	m.ReleaseRef(t, prev)
	// correctPrev consumes one node reference; keep one to back the
	// iterator cursor.
	m.Ref(t, node)
	next := it.cur
	m.ReleaseRef(t, l.correctPrev(t, node, next))
	m.ReleaseRef(t, next)
	it.cur = node
}

// Erase removes the element at the iterator position and advances the
// iterator past it. When several goroutines race to erase the same node,
// exactly one returns (value, true) and owns the reclamation; the others
// return (zero-value, false). Panics at a sentinel position.
func (l *List[T]) Erase(it *Iterator[T]) (T, bool) {
	node := it.cur
	if node == l.headNode || node == l.tailNode {
		panic("list: erase at sentinel")
	}
	m := l.mem
	t := it.t

	var val T
	erased := false
	for {
		nextD := node.Link(nextLink).Load().Del()
		next := m.DeRefLink(t, node.Link(nextLink))
		if nextD {
			m.ReleaseRef(t, next)
			break
		}
		// The winning mark owns the value and the deferred delete.
		if node.Link(nextLink).CompareAndSwap(next.Ptr().WithDel(true), next.Ptr()) {
			erased = true
			l.size.Add(-1)
			var prev *hazard.Node[T]
			for {
				prevD := node.Link(prevLink).Load().Del()
				prev = m.DeRefLink(t, node.Link(prevLink))
				if prevD || node.Link(prevLink).CompareAndSwap(prev.Ptr().WithDel(true), prev.Ptr()) {
					break
				}
				m.ReleaseRef(t, prev)
			}
			prev = l.correctPrev(t, prev, next)
			m.ReleaseRef(t, prev)
			m.ReleaseRef(t, next)
			val = node.Value
			m.DeleteNode(t, node)
			break
		}
		m.ReleaseRef(t, next)
	}
	it.Next()
	return val, erased
}

// Clear removes all elements.
func (l *List[T]) Clear() {
	it := l.Begin()
	for !it.AtEnd() {
		l.Erase(it)
	}
	it.Close()
}

// Len returns the number of elements. The count is eventually consistent
// and clamped to zero.
func (l *List[T]) Len() int {
	if n := l.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// Empty reports whether the list contains no elements.
func (l *List[T]) Empty() bool { return l.Len() == 0 }

func (l *List[T]) createNode(t *hazard.Thread[T], v T) *hazard.Node[T] {
	n := l.mem.CreateNode(t)
	l.mem.StoreRef(n.Link(nextLink), hazard.NilPtr)
	l.mem.StoreRef(n.Link(prevLink), hazard.NilPtr)
	n.Value = v
	return n
}

// setMark spins until the link's delete mark is observed set.
func (l *List[T]) setMark(lnk *hazard.Link) {
	for {
		old := lnk.Load()
		if old.Del() || lnk.CompareAndSwap(old.WithDel(true), old) {
			break
		}
	}
}

// pushEnd completes a push: connect next.prev back to the freshly linked
// node, or fall back to correctPrev when the node already carries a
// delete mark. Consumes the references on node and next.
func (l *List[T]) pushEnd(t *hazard.Thread[T], node, next *hazard.Node[T]) {
	m := l.mem
	pNode := node
	bo := iox.Backoff{}
	for {
		link := next.Link(prevLink).Load()
		if link.Del() || node.Link(nextLink).Load() != next.Ptr() {
			break
		}
		if m.CasRef(next.Link(prevLink), node.Ptr(), link) {
			if node.Link(prevLink).Load().Del() {
				pNode = l.correctPrev(t, node, next)
			}
			break
		}
		bo.Wait()
	}
	m.ReleaseRef(t, next)
	m.ReleaseRef(t, pNode)
}

// correctPrev repairs node.prev so it points at a live predecessor, using
// prev as a suggestion. Walks left through deleted predecessors, unlinking
// them where possible. Consumes the reference on prev and returns a
// referenced candidate predecessor.
func (l *List[T]) correctPrev(t *hazard.Thread[T], prev, node *hazard.Node[T]) *hazard.Node[T] {
	m := l.mem
	var lastLink *hazard.Node[T]
	bo := iox.Backoff{}
	for {
		link := node.Link(prevLink).Load()
		if link.Del() {
			// node was deleted while correcting; prev may have advanced
			// past node, so undo the last step.
			if lastLink != nil {
				m.ReleaseRef(t, prev)
				prev = lastLink
				lastLink = nil
			}
			break
		}
		prev2D := prev.Link(nextLink).Load().Del()
		prev2 := m.DeRefLink(t, prev.Link(nextLink))
		if prev2D {
			if lastLink != nil {
				l.setMark(prev.Link(prevLink))
				m.CasRef(lastLink.Link(nextLink), prev2.Ptr(), prev.Ptr())
				m.ReleaseRef(t, prev2)
				m.ReleaseRef(t, prev)
				prev = lastLink
				lastLink = nil
				continue
			}
			m.ReleaseRef(t, prev2)
			prev2 = m.DeRefLink(t, prev.Link(prevLink))
			m.ReleaseRef(t, prev)
			prev = prev2
			continue
		}
		if prev2 != node {
			if lastLink != nil {
				m.ReleaseRef(t, lastLink)
			}
			lastLink = prev
			prev = prev2
			continue
		}
		m.ReleaseRef(t, prev2)
		if m.CasRef(node.Link(prevLink), prev.Ptr(), link) {
			if prev.Link(prevLink).Load().Del() {
				continue
			}
			break
		}
		bo.Wait()
	}
	if lastLink != nil {
		m.ReleaseRef(t, lastLink)
	}
	return prev
}

// cleanUpNode rewrites both links of a deleted node so they skip deleted
// neighbors. Hook for the hazard manager.
func (l *List[T]) cleanUpNode(t *hazard.Thread[T], node *hazard.Node[T]) {
	m := l.mem
	for {
		prev := m.DeRefLink(t, node.Link(prevLink))
		if prev == nil {
			break
		}
		if !prev.Link(prevLink).Load().Del() {
			m.ReleaseRef(t, prev)
			break
		}
		prev2 := m.DeRefLink(t, prev.Link(prevLink))
		m.CasRef(node.Link(prevLink), prev2.Ptr().WithDel(true), prev.Ptr().WithDel(true))
		m.ReleaseRef(t, prev2)
		m.ReleaseRef(t, prev)
	}
	for {
		next := m.DeRefLink(t, node.Link(nextLink))
		if next == nil {
			break
		}
		if !next.Link(nextLink).Load().Del() {
			m.ReleaseRef(t, next)
			break
		}
		next2 := m.DeRefLink(t, next.Link(nextLink))
		m.CasRef(node.Link(nextLink), next2.Ptr().WithDel(true), next.Ptr().WithDel(true))
		m.ReleaseRef(t, next2)
		m.ReleaseRef(t, next)
	}
}

// terminateNode severs the links of a reclaimed node. Hook for the hazard
// manager.
func (l *List[T]) terminateNode(t *hazard.Thread[T], node *hazard.Node[T], concurrent bool) {
	m := l.mem
	if !concurrent {
		m.StoreRef(node.Link(prevLink), hazard.DelPtr)
		m.StoreRef(node.Link(nextLink), hazard.DelPtr)
		return
	}
	m.CasRef(node.Link(prevLink), hazard.DelPtr, node.Link(prevLink).Load())
	m.CasRef(node.Link(nextLink), hazard.DelPtr, node.Link(nextLink).Load())
}
