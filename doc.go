// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package honeycomb is a lock-free concurrency substrate with a
// dependency-graph task scheduler on top.
//
// The repository is organized as a family of small packages. At the bottom
// sits a hazard-pointer memory manager that makes node reuse safe in
// lock-free pointer-linked structures; on top of it, a set of concurrent
// containers; and above those, a scheduler and application driver that run
// module tasks in dependency order over a worker pool.
//
//   - [github.com/jogster/Honeycomb/hazard]: safe memory reclamation for
//     lock-free structures, based on hazard pointers combined with
//     reference counting (Gidenstam et al. 2005). Nodes live in a chunked
//     arena and are addressed by index; links are single CAS-able words.
//   - [github.com/jogster/Honeycomb/queue]: unbounded lock-free FIFO queue
//     (Michael & Scott 1996) over an auto-expanding free-list allocator
//     with ABA-tagged handles.
//   - [github.com/jogster/Honeycomb/list]: lock-free doubly-linked list
//     with bidirectional iterators (Sundell & Tsigas 2008).
//   - [github.com/jogster/Honeycomb/spsc]: growable ring-buffer deque that
//     is contention-free for a single producer and single consumer, with
//     split head/tail spin locks for the remaining cases.
//   - [github.com/jogster/Honeycomb/future]: the task primitive: futures,
//     promises, WaitAny, and cooperative interrupt points.
//   - [github.com/jogster/Honeycomb/depsched]: a DAG task scheduler that
//     runs tasks across a worker pool honoring a declared partial order.
//   - [github.com/jogster/Honeycomb/app]: the application driver: module
//     registry, lifecycle, and graceful termination.
//
// # Quick Start
//
// Containers are ready to use with zero configuration:
//
//	q := queue.New[int](0)
//	q.Push(42)
//	v, err := q.Pop()
//	if queue.IsWouldBlock(err) {
//	    // queue is empty
//	}
//
// Scheduling a task graph:
//
//	sched := depsched.New(4, 256)
//	defer sched.Close()
//
//	a := depsched.NewTask("a", loadFn)
//	b := depsched.NewTask("b", processFn, a.Id())
//	sched.Reg(a)
//	sched.Reg(b)
//	sched.Enqueue(b) // transitively enqueues a
//	_, err := b.Future().Get(ctx)
//
// # Error Handling
//
// Container operations that cannot proceed (pop/front/back on an empty
// container) return [code.hybscloud.com/iox.ErrWouldBlock]. This is a
// control flow signal, not a failure; retry with an iox.Backoff or treat
// it as "no element". Capacity exhaustion of the hazard manager (hazard
// slots, delete records, thread admission) and of the scheduler ready
// queue is a configuration bug and panics.
//
// # Concurrency Model
//
// Containers are safe under arbitrary concurrent access from up to a
// configured number of goroutines. The hazard manager binds accessors to
// per-thread data blocks for the duration of an operation (iterators pin a
// block for their lifetime), so the configured thread maximum bounds
// concurrent accessors, not distinct goroutines. Reported sizes are
// eventually consistent and clamped to zero.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before relationships
// established through atomic memory orderings on separate variables, which
// is exactly how lock-free algorithms synchronize. The algorithms here are
// correct under the memory model of [code.hybscloud.com/atomix], but the
// race detector reports false positives for them. Stress tests that
// exercise cross-goroutine access are excluded via //go:build !race or
// skipped at run time when race detection is enabled.
//
// # Dependencies
//
// This module uses [code.hybscloud.com/iox] for semantic errors and
// backoff, [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions. The scheduler executes task bodies through
// [github.com/baxromumarov/scoped] scopes; the application driver reads
// configuration with [github.com/spf13/viper].
package honeycomb
