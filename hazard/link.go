// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard

import "code.hybscloud.com/atomix"

// Ptr is a packed link value: a node reference together with a delete
// mark. The zero Ptr is the nil reference without a mark.
//
// Layout: bit 0 carries the delete mark, bits 1..32 carry the node
// reference (arena index + 1, 0 meaning nil).
type Ptr uint64

// NilPtr is the nil reference without a delete mark.
const NilPtr Ptr = 0

// DelPtr is the nil reference with the delete mark set. Terminated nodes
// park their links on this value.
const DelPtr Ptr = 1

func makePtr(ref uint32, del bool) Ptr {
	p := Ptr(ref) << 1
	if del {
		p |= 1
	}
	return p
}

func (p Ptr) ref() uint32 { return uint32(p >> 1) }

// IsNil reports whether the reference part is nil.
func (p Ptr) IsNil() bool { return p.ref() == 0 }

// Del reports whether the delete mark is set.
func (p Ptr) Del() bool { return p&1 != 0 }

// WithDel returns p with the delete mark set to del.
func (p Ptr) WithDel(del bool) Ptr {
	if del {
		return p | 1
	}
	return p &^ 1
}

// Link is a CAS-able cell holding a Ptr. Containers embed links in their
// nodes and anchor words; all mutation goes through [Mem.CasRef],
// [Mem.StoreRef], or [Link.CompareAndSwap].
type Link struct {
	w atomix.Uint64
}

// Load returns the current value of the link.
func (l *Link) Load() Ptr { return Ptr(l.w.Load()) }

// CompareAndSwap atomically replaces old with val without touching
// reference counts. It is only correct when the node reference is
// unchanged between old and val (setting or clearing the delete mark).
func (l *Link) CompareAndSwap(val, old Ptr) bool {
	return l.w.CompareAndSwapAcqRel(uint64(old), uint64(val))
}
