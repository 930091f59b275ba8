// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard

import (
	"math/bits"
	"unsafe"

	"code.hybscloud.com/atomix"

	"github.com/jogster/Honeycomb/internal/spinlock"
)

const (
	chunkShift = 8
	chunkLen   = 1 << chunkShift
	maxChunks  = 1 << 14 // 4M nodes per manager
)

type chunk[T any] struct {
	nodes [chunkLen]Node[T]
}

// Config parameterizes a memory manager with the concrete link layout and
// the container's cleanup policy.
type Config[T any] struct {
	// LinkMax is the number of link cells per node.
	LinkMax int
	// LinkDelMax is the number of links that may transiently point to a
	// deleted node.
	LinkDelMax int
	// HazardMax is the number of hazard slots per thread.
	HazardMax int
	// ThreadMax is the maximum number of concurrent accessors (1..63).
	ThreadMax int

	// CleanUpNode rewrites every link in n to skip deleted successors.
	CleanUpNode func(t *Thread[T], n *Node[T])
	// TerminateNode severs all links of n. With concurrent=false the node
	// is private and plain stores may be used; otherwise CAS is required.
	TerminateNode func(t *Thread[T], n *Node[T], concurrent bool)
}

// Mem is a lock-free memory manager for concurrent algorithms.
//
// Based on the paper: "Efficient and Reliable Lock-Free Memory Reclamation
// Based on Reference Counting", Gidenstam, et al. - 2005.
type Mem[T any] struct {
	cfg         Config[T]
	threshClean int
	threshScan  int

	threads     []*Thread[T]
	threadCount atomix.Int32
	inUse       atomix.Uint64 // bitmask of checked-out thread blocks

	chunkTab []atomix.Uintptr
	chunks   []*chunk[T] // retained under growLock; keeps chunkTab targets alive
	growLock spinlock.Lock
}

// NewMem creates a memory manager. Panics on an invalid configuration.
func NewMem[T any](cfg Config[T]) *Mem[T] {
	if cfg.LinkMax <= 0 || cfg.LinkDelMax < 0 || cfg.HazardMax <= 0 {
		panic("hazard: invalid link/hazard configuration")
	}
	if cfg.ThreadMax <= 0 || cfg.ThreadMax > 63 {
		panic("hazard: ThreadMax must be in 1..63")
	}
	if cfg.CleanUpNode == nil || cfg.TerminateNode == nil {
		panic("hazard: CleanUpNode and TerminateNode are required")
	}
	m := &Mem[T]{
		cfg:         cfg,
		threshClean: cfg.ThreadMax * (cfg.HazardMax + cfg.LinkMax + cfg.LinkDelMax + 1),
		threads:     make([]*Thread[T], cfg.ThreadMax),
		chunkTab:    make([]atomix.Uintptr, maxChunks),
	}
	m.threshScan = cfg.HazardMax * 2
	if m.threshScan > m.threshClean {
		m.threshScan = m.threshClean
	}
	return m
}

func (m *Mem[T]) node(ref uint32) *Node[T] {
	idx := ref - 1
	ch := (*chunk[T])(unsafe.Pointer(m.chunkTab[idx>>chunkShift].Load()))
	return &ch.nodes[idx&(chunkLen-1)]
}

// Node resolves a packed reference to its node, nil for the nil reference.
func (m *Mem[T]) Node(p Ptr) *Node[T] {
	if p.IsNil() {
		return nil
	}
	return m.node(p.ref())
}

// Acquire checks a thread data block out for the calling goroutine.
// Panics when more than Config.ThreadMax accessors are concurrent.
func (m *Mem[T]) Acquire() *Thread[T] {
	for {
		cnt := int(m.threadCount.Load())
		mask := m.inUse.Load()
		if avail := ^mask & (uint64(1)<<cnt - 1); avail != 0 {
			id := bits.TrailingZeros64(avail)
			if m.inUse.CompareAndSwapAcqRel(mask, mask|uint64(1)<<id) {
				return m.threads[id]
			}
			continue
		}
		if cnt >= m.cfg.ThreadMax {
			panic("hazard: too many concurrent accessors")
		}
		m.growLock.Lock()
		if int(m.threadCount.Load()) == cnt {
			m.threads[cnt] = newThread(m, cnt)
			m.threadCount.StoreRelease(int32(cnt + 1))
		}
		m.growLock.Unlock()
	}
}

// Release returns a thread data block. Pending delete records stay with
// the block and are reclaimed by later scans.
func (m *Mem[T]) Release(t *Thread[T]) {
	for {
		mask := m.inUse.Load()
		if m.inUse.CompareAndSwapAcqRel(mask, mask&^(uint64(1)<<uint(t.id))) {
			return
		}
	}
}

// CreateNode allocates a node from the thread's free list, growing the
// arena when empty. The node is returned undeleted with one thread-local
// reference (a reserved hazard slot) held by t.
func (m *Mem[T]) CreateNode(t *Thread[T]) *Node[T] {
	ref := t.popFree()
	if ref == 0 {
		ref = m.grow(t)
	}
	n := m.node(ref)
	n.del.StoreRelaxed(false)
	n.trace.StoreRelaxed(false)
	m.Ref(t, n)
	return n
}

// grow allocates a fresh chunk, hands the surplus to t's free stack, and
// returns the first reference.
func (m *Mem[T]) grow(t *Thread[T]) uint32 {
	m.growLock.Lock()
	ci := len(m.chunks)
	if ci == maxChunks {
		m.growLock.Unlock()
		panic("hazard: arena exhausted")
	}
	ch := new(chunk[T])
	base := uint32(ci << chunkShift)
	for i := range ch.nodes {
		n := &ch.nodes[i]
		n.self = base + uint32(i) + 1
		n.owner = t.id
		n.links = make([]Link, m.cfg.LinkMax)
	}
	m.chunks = append(m.chunks, ch)
	m.chunkTab[ci].Store(uintptr(unsafe.Pointer(ch)))
	m.growLock.Unlock()

	for i := chunkLen - 1; i >= 1; i-- {
		t.pushFree(&ch.nodes[i])
	}
	return base + 1
}

// DeleteNode marks the node logically deleted and registers it for
// deferred reclamation, escalating through cleanUpLocal, scan, and
// cleanUpAll as the thread's delete count crosses the thresholds.
func (m *Mem[T]) DeleteNode(t *Thread[T], n *Node[T]) {
	n.del.Store(true)
	n.trace.Store(false)

	if len(t.delRecFree) == 0 {
		panic("hazard: not enough delete records")
	}
	rec := t.delRecFree[len(t.delRecFree)-1]
	t.delRecFree = t.delRecFree[:len(t.delRecFree)-1]

	rec.done.Store(false)
	rec.node.Store(uint64(n.self))
	rec.next = t.delHead
	t.delHead = rec
	t.delCount++
	for {
		if t.delCount == m.threshClean {
			m.cleanUpLocal(t)
		}
		if t.delCount >= m.threshScan {
			m.scan(t)
		}
		if t.delCount == m.threshClean {
			m.cleanUpAll(t)
		} else {
			break
		}
	}
}

// DeRefLink dereferences a link under hazard protection. May return nil.
// The caller owns one thread-local reference on the result and must pair
// it with ReleaseRef.
func (m *Mem[T]) DeRefLink(t *Thread[T], l *Link) *Node[T] {
	if len(t.hazardFree) == 0 {
		panic("hazard: not enough hazard pointers")
	}
	idx := t.hazardFree[len(t.hazardFree)-1]

	var ref uint32
	for {
		ref = l.Load().ref()
		// Publish, then confirm the link still holds the reference.
		t.hazards[idx].Store(uint64(ref))
		if l.Load().ref() == ref {
			break
		}
	}
	if ref == 0 {
		return nil
	}
	n := m.node(ref)
	if s := t.slotOf(ref); s >= 0 {
		// Already protected by this thread; the slot we staged is unused.
		t.hazardRef[s]++
		t.hazards[idx].Store(0)
		return n
	}
	t.hazardFree = t.hazardFree[:len(t.hazardFree)-1]
	t.hazardLocal[idx] = ref
	t.hazardRef[idx] = 1
	return n
}

// Ref acquires an additional thread-local reference on the node, reusing
// the existing hazard slot when the thread already holds one.
func (m *Mem[T]) Ref(t *Thread[T], n *Node[T]) {
	if s := t.slotOf(n.self); s >= 0 {
		t.hazardRef[s]++
		return
	}
	if len(t.hazardFree) == 0 {
		panic("hazard: not enough hazard pointers")
	}
	idx := t.hazardFree[len(t.hazardFree)-1]
	t.hazardFree = t.hazardFree[:len(t.hazardFree)-1]
	t.hazardLocal[idx] = n.self
	t.hazardRef[idx] = 1
	t.hazards[idx].Store(uint64(n.self))
}

// ReleaseRef drops a thread-local reference; the hazard slot is cleared
// and recycled once the last reference is gone.
func (m *Mem[T]) ReleaseRef(t *Thread[T], n *Node[T]) {
	s := t.slotOf(n.self)
	if s < 0 {
		panic("hazard: release of unreferenced node")
	}
	t.hazardRef[s]--
	if t.hazardRef[s] > 0 {
		return
	}
	t.hazards[s].Store(0)
	t.hazardLocal[s] = 0
	t.hazardFree = append(t.hazardFree, int8(s))
}

// CasRef compare-and-sets a link and maintains the referents' global
// reference counts: on success the new target gains a reference and has
// its trace cleared, the old target loses one.
func (m *Mem[T]) CasRef(l *Link, val, old Ptr) bool {
	if !l.w.CompareAndSwapAcqRel(uint64(old), uint64(val)) {
		return false
	}
	if r := val.ref(); r != 0 {
		n := m.node(r)
		n.ref.Add(1)
		n.trace.Store(false)
	}
	if r := old.ref(); r != 0 {
		m.node(r).ref.Add(-1)
	}
	return true
}

// StoreRef sets a link in a single-writer environment with the same
// reference bookkeeping as CasRef.
func (m *Mem[T]) StoreRef(l *Link, val Ptr) {
	old := l.Load()
	l.w.Store(uint64(val))
	if r := val.ref(); r != 0 {
		n := m.node(r)
		n.ref.Add(1)
		n.trace.Store(false)
	}
	if r := old.ref(); r != 0 {
		m.node(r).ref.Add(-1)
	}
}

// cleanUpLocal rewrites the links of every node this thread has deleted so
// they skip deleted successors.
func (m *Mem[T]) cleanUpLocal(t *Thread[T]) {
	for rec := t.delHead; rec != nil; rec = rec.next {
		m.cfg.CleanUpNode(t, m.node(uint32(rec.node.Load())))
	}
}

// cleanUpAll does the same for every thread's delete records. The claim
// counter serializes scan's finalization against these concurrent
// cleanups.
func (m *Mem[T]) cleanUpAll(t *Thread[T]) {
	cnt := int(m.threadCount.Load())
	for ti := 0; ti < cnt; ti++ {
		peer := m.threads[ti]
		for i := range peer.delRecs {
			rec := &peer.delRecs[i]
			ref := uint32(rec.node.Load())
			if ref != 0 && !rec.done.Load() {
				rec.claim.Add(1)
				if uint32(rec.node.Load()) == ref {
					m.cfg.CleanUpNode(t, m.node(ref))
				}
				rec.claim.Add(-1)
			}
		}
	}
}

// scan walks this thread's delete records and reclaims every node that is
// unreferenced, trace-affirmed, and absent from all hazard slots.
func (m *Mem[T]) scan(t *Thread[T]) {
	// Affirm trace so ref == 0 is consistent across the hazard sweep.
	for rec := t.delHead; rec != nil; rec = rec.next {
		n := m.node(uint32(rec.node.Load()))
		if n.ref.Load() == 0 {
			n.trace.Store(true)
			if n.ref.Load() != 0 {
				n.trace.Store(false)
			}
		}
	}

	// Collect every published hazard.
	cnt := int(m.threadCount.Load())
	for ti := 0; ti < cnt; ti++ {
		peer := m.threads[ti]
		for s := range peer.hazards {
			if r := peer.hazards[s].Load(); r != 0 {
				t.delHazards[uint32(r)] = struct{}{}
			}
		}
	}

	// Reclaim what we can; rebuild the pending list from the rest.
	var newHead *delRec
	newCount := 0
	for t.delHead != nil {
		rec := t.delHead
		t.delHead = rec.next
		ref := uint32(rec.node.Load())
		n := m.node(ref)
		if n.ref.Load() == 0 && n.trace.Load() {
			if _, hazarded := t.delHazards[ref]; !hazarded {
				rec.node.Store(0)
				if rec.claim.Load() == 0 {
					m.cfg.TerminateNode(t, n, false)
					t.delRecFree = append(t.delRecFree, rec)
					m.reclaim(n)
					continue
				}
				m.cfg.TerminateNode(t, n, true)
				rec.done.Store(true)
				rec.node.Store(uint64(ref))
			}
		}
		rec.next = newHead
		newHead = rec
		newCount++
	}
	clear(t.delHazards)
	t.delHead = newHead
	t.delCount = newCount
}

// reclaim returns a terminated node to the free list of its creator.
func (m *Mem[T]) reclaim(n *Node[T]) {
	var zero T
	n.Value = zero
	m.threads[n.owner].pushFree(n)
}
