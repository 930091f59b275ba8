// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hazard

import "code.hybscloud.com/atomix"

// Node is an arena slot holding a container value plus a fixed number of
// link cells. Nodes are created with [Mem.CreateNode] and recycled through
// the creator thread's free list once reclaimed.
type Node[T any] struct {
	ref   atomix.Int32 // reference count by all threads
	trace atomix.Bool  // scan bookkeeping
	del   atomix.Bool  // marked for deletion

	self     uint32 // arena index + 1
	owner    int32  // thread slot that created the node
	freeNext atomix.Uint64

	links []Link

	// Value is the container payload. It is owned by whoever holds the
	// node between CreateNode and DeleteNode.
	Value T
}

// Ptr returns the unmarked packed reference to this node.
func (n *Node[T]) Ptr() Ptr { return makePtr(n.self, false) }

// Link returns the i-th link cell of the node. i must be < Config.LinkMax.
func (n *Node[T]) Link(i int) *Link { return &n.links[i] }

// Deleted reports whether the node has been logically deleted.
func (n *Node[T]) Deleted() bool { return n.del.Load() }
