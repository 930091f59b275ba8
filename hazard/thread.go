// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard

import "code.hybscloud.com/atomix"

// delRec is a per-thread record of a deleted node awaiting reclamation.
// The records of one thread form an intrusive list through next; peers
// read node/claim/done concurrently during cleanUpAll.
type delRec struct {
	node  atomix.Uint64 // node reference, 0 once reclaimed
	claim atomix.Int32  // peers currently cleaning the node up
	done  atomix.Bool   // node terminated, record kept pending
	next  *delRec
}

// Thread is a per-thread data block: hazard slots, delete records, and the
// thread's node free list. Blocks are checked out with [Mem.Acquire] and
// are not safe for use by two goroutines at once; only the published
// hazard words and the delete record fields are read by peers.
type Thread[T any] struct {
	mem *Mem[T]
	id  int32

	// Published hazard slots, read by peer scans.
	hazards []atomix.Uint64

	// Local slot bookkeeping: which reference a slot protects and how
	// many thread-local references it carries.
	hazardLocal []uint32
	hazardRef   []int8
	hazardFree  []int8

	// Free node stack. Pops are exclusive to the block holder; pushes
	// may come from any thread reclaiming a node this thread created.
	freeTop atomix.Uint64

	delRecs    []delRec
	delRecFree []*delRec
	delHead    *delRec
	delCount   int
	delHazards map[uint32]struct{} // scratch set for scan
}

func newThread[T any](m *Mem[T], id int) *Thread[T] {
	t := &Thread[T]{
		mem:         m,
		id:          int32(id),
		hazards:     make([]atomix.Uint64, m.cfg.HazardMax),
		hazardLocal: make([]uint32, m.cfg.HazardMax),
		hazardRef:   make([]int8, m.cfg.HazardMax),
		hazardFree:  make([]int8, 0, m.cfg.HazardMax),
		delRecs:     make([]delRec, m.threshClean),
		delRecFree:  make([]*delRec, 0, m.threshClean),
		delHazards:  make(map[uint32]struct{}),
	}
	for i := m.cfg.HazardMax - 1; i >= 0; i-- {
		t.hazardFree = append(t.hazardFree, int8(i))
	}
	for i := range t.delRecs {
		t.delRecFree = append(t.delRecFree, &t.delRecs[i])
	}
	return t
}

// slotOf returns the hazard slot already protecting ref, or -1.
func (t *Thread[T]) slotOf(ref uint32) int {
	for s := range t.hazardRef {
		if t.hazardRef[s] > 0 && t.hazardLocal[s] == ref {
			return s
		}
	}
	return -1
}

// pushFree pushes a reclaimed node onto this thread's free stack.
// Safe to call from any thread.
func (t *Thread[T]) pushFree(n *Node[T]) {
	for {
		top := t.freeTop.Load()
		n.freeNext.Store(top)
		if t.freeTop.CompareAndSwapAcqRel(top, uint64(n.self)) {
			return
		}
	}
}

// popFree pops a node reference off the free stack, 0 if empty.
// Only the block holder pops, so the stack is ABA-free without tags.
func (t *Thread[T]) popFree() uint32 {
	for {
		top := t.freeTop.Load()
		if top == 0 {
			return 0
		}
		next := t.mem.node(uint32(top)).freeNext.Load()
		if t.freeTop.CompareAndSwapAcqRel(top, next) {
			return uint32(top)
		}
	}
}
