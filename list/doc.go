// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package list provides a lock-free doubly-linked list with bidirectional
// iterators.
//
// Based on the paper: "Lock-free deques and doubly linked lists",
// Sundell, et al. - 2008. Memory safety under concurrent node reuse comes
// from [github.com/jogster/Honeycomb/hazard].
//
// The list supports pushes and pops at both ends, iterator-positioned
// insert and erase, and forward/reverse traversal, all safe under
// concurrent access from up to the configured number of goroutines. A
// node's delete mark is set on its forward link first; once set, the node
// is logically removed and iterators skip it. When several goroutines race
// to erase the same node, exactly one wins the marking CAS, receives the
// value, and owns the deferred reclamation; the losers observe false.
//
// Iterator instances are not goroutine-safe and each pins a hazard-manager
// thread block for its lifetime, so live iterators count against the
// container's concurrent accessor budget. Always Close iterators.
//
// Len is eventually consistent: the counter may transiently run negative
// during racing pushes and pops, and the accessor clamps it to zero.
package list
