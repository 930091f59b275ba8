// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides an unbounded lock-free FIFO queue.
//
// Based on the paper: "Simple, Fast, and Practical Non-Blocking and
// Blocking Concurrent Queue Algorithms", Michael, Scott - 1996.
//
// Nodes come from an auto-expanding free-list allocator, so memory is
// only reclaimed upon garbage collection of the whole queue. Every link
// word packs a 32-bit node handle with a 32-bit tag that increments on
// each successful CAS; the tag makes handle reuse safe (ABA prevention)
// within any realistic wrap-around window.
//
// The queue is safe for arbitrary numbers of concurrent producers and
// consumers. Pop, Front, and Back return ErrWouldBlock when the queue is
// empty; Len is eventually consistent and clamped to zero.
package queue
