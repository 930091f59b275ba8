// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"unsafe"

	"code.hybscloud.com/atomix"

	"github.com/jogster/Honeycomb/internal/spinlock"
)

const (
	chunkShift = 8
	chunkLen   = 1 << chunkShift
	maxChunks  = 1 << 14 // 4M nodes per queue
)

// tagged packs a monotonic tag with a node handle into one CAS-able word.
// Handle 0 is nil.
func tagged(tag, handle uint32) uint64 {
	return uint64(tag)<<32 | uint64(handle)
}

func handleOf(w uint64) uint32 { return uint32(w) }
func tagOf(w uint64) uint32    { return uint32(w >> 32) }

type node[T any] struct {
	val  T
	next atomix.Uint64 // tagged handle; doubles as the free-stack link
	self uint32
}

type chunk[T any] struct {
	nodes [chunkLen]node[T]
}

// freeList is an auto-expanding allocator handing out nodes by tagged
// handle. Free nodes form a Treiber stack whose top word carries its own
// tag; node tags survive recycling, so a handle observed in a queue link
// can never be confused with its re-insertion.
type freeList[T any] struct {
	top      atomix.Uint64
	chunkTab []atomix.Uintptr
	chunks   []*chunk[T] // retained under growLock; keeps chunkTab targets alive
	growLock spinlock.Lock
	capacity atomix.Int64
}

func (fl *freeList[T]) init(capacity int) {
	fl.chunkTab = make([]atomix.Uintptr, maxChunks)
	fl.reserve(capacity)
}

func (fl *freeList[T]) deref(h uint32) *node[T] {
	idx := h - 1
	ch := (*chunk[T])(unsafe.Pointer(fl.chunkTab[idx>>chunkShift].Load()))
	return &ch.nodes[idx&(chunkLen-1)]
}

// reserve grows the arena until storage for capacity elements exists.
func (fl *freeList[T]) reserve(capacity int) {
	for int(fl.capacity.Load()) < capacity {
		fl.grow()
	}
}

func (fl *freeList[T]) grow() {
	fl.growLock.Lock()
	ci := len(fl.chunks)
	if ci == maxChunks {
		fl.growLock.Unlock()
		panic("queue: free list exhausted")
	}
	ch := new(chunk[T])
	base := uint32(ci << chunkShift)
	for i := range ch.nodes {
		ch.nodes[i].self = base + uint32(i) + 1
	}
	fl.chunks = append(fl.chunks, ch)
	fl.chunkTab[ci].Store(uintptr(unsafe.Pointer(ch)))
	fl.capacity.Add(chunkLen)
	fl.growLock.Unlock()

	for i := range ch.nodes {
		fl.push(&ch.nodes[i])
	}
}

func (fl *freeList[T]) push(n *node[T]) {
	for {
		top := fl.top.Load()
		old := n.next.Load()
		n.next.Store(tagged(tagOf(old)+1, handleOf(top)))
		if fl.top.CompareAndSwapAcqRel(top, tagged(tagOf(top)+1, n.self)) {
			return
		}
	}
}

// construct pops a free node and initializes it with val. The node's next
// link is nulled without resetting its tag.
func (fl *freeList[T]) construct(val T) *node[T] {
	for {
		top := fl.top.Load()
		h := handleOf(top)
		if h == 0 {
			fl.grow()
			continue
		}
		n := fl.deref(h)
		next := n.next.Load()
		if fl.top.CompareAndSwapAcqRel(top, tagged(tagOf(top)+1, handleOf(next))) {
			n.next.Store(tagged(tagOf(next)+1, 0))
			n.val = val
			return n
		}
	}
}

// destroy clears the node's value and returns it to the free stack.
func (fl *freeList[T]) destroy(n *node[T]) {
	var zero T
	n.val = zero
	fl.push(n)
}
