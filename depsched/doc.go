// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package depsched is a dependency-graph task scheduler.
//
// Tasks are keyed by opaque name ids and declare an immutable set of
// predecessor ids. Reg inserts tasks into the graph and rejects cycles and
// conflicting duplicates; Enqueue transitively enqueues a task together
// with its unsatisfied predecessors. A task becomes ready once every
// predecessor has completed, parks in a bounded admission ring, and
// executes on a worker pool.
//
// For any declared edge u → v, u's completion happens before v starts.
// There is no fairness beyond topological validity; ties are broken
// arbitrarily. A failing task causes its descendants to transition
// directly to failed without starting, exposing the originating reason
// through their futures. Cancellation is cooperative: Interrupt delivers a
// reason that the task body observes at its interrupt points.
//
// The ready ring capacity is the scheduler's admission bound; overflowing
// it is a configuration bug and panics.
package depsched
