// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hazard provides safe memory reclamation for lock-free
// pointer-linked structures.
//
// The manager combines hazard pointers with reference counting, based on
// "Efficient and Reliable Lock-Free Memory Reclamation Based on Reference
// Counting" (Gidenstam et al. 2005). Nodes live in a chunked arena and are
// addressed by 32-bit indices; a link is a single CAS-able 64-bit word
// packing a node reference and a delete mark. Because node slots are
// reused, a reader must not trust a reference loaded from a link until it
// has published the reference in a hazard slot and re-validated the
// link. [Mem.DeRefLink] implements that protocol.
//
// A node is reclaimed (returned to its creator's free list) only when
// every thread's hazard slots exclude it, its global reference count is
// zero, and the trace flag was affirmed while the count was observed zero.
//
// # Thread Model
//
// The manager admits at most Config.ThreadMax concurrent accessors. Each
// accessor checks a per-thread data block out with [Mem.Acquire] for the
// duration of an operation and returns it with [Mem.Release]; a block
// holds the thread's hazard slots, its delete records, and its node free
// list. Callers that keep hazard references alive across operations (list
// iterators do) keep the block checked out for as long as the references
// live. Exceeding ThreadMax, the hazard slot budget, or the delete record
// budget is a configuration bug and panics.
package hazard
