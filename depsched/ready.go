// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package depsched

import (
	"errors"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
)

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// errAdmissionClosed rejects enqueues after drain. Successors completing
// during shutdown hit this instead of the admission bound.
var errAdmissionClosed = errors.New("depsched: admission closed")

// readyRing hands ready tasks from the graph side to the dispatcher.
//
// The hand-off has a fixed shape: every enqueue happens under the
// scheduler's graph lock (one producer at a time) and only the dispatcher
// goroutine dequeues. Two monotonic counters with release/acquire
// publication are therefore enough; the slot write is published by the
// admitted bump, and the slot release by the launched bump. The ring's
// capacity is the scheduler's admission bound, and drain closes admission
// for shutdown.
type readyRing struct {
	_        pad
	admitted atomix.Uint64 // tasks accepted; bumped after the slot write
	_        pad
	launched atomix.Uint64 // tasks handed to the worker pool
	_        pad
	closed   atomix.Bool
	slots    []*Task
}

// newReadyRing creates a ring admitting at most capacity parked tasks.
func newReadyRing(capacity int) *readyRing {
	if capacity < 1 {
		panic("depsched: capacity must be >= 1")
	}
	return &readyRing{slots: make([]*Task, capacity)}
}

// enqueue admits a ready task. Returns ErrWouldBlock when the admission
// bound is reached and errAdmissionClosed after drain. Must be called
// with the graph lock held.
func (r *readyRing) enqueue(task *Task) error {
	if r.closed.LoadAcquire() {
		return errAdmissionClosed
	}
	a := r.admitted.LoadRelaxed()
	if a-r.launched.LoadAcquire() == uint64(len(r.slots)) {
		return iox.ErrWouldBlock
	}
	r.slots[a%uint64(len(r.slots))] = task
	r.admitted.StoreRelease(a + 1)
	return nil
}

// drain closes admission: completions arriving during shutdown are
// refused rather than parked, so the dispatcher can run the ring dry and
// exit.
func (r *readyRing) drain() {
	r.closed.StoreRelease(true)
}

// dequeue hands the oldest parked task to the dispatcher. Returns
// ErrWouldBlock when no task is parked. Only the dispatcher calls this.
func (r *readyRing) dequeue() (*Task, error) {
	l := r.launched.LoadRelaxed()
	if l == r.admitted.LoadAcquire() {
		return nil, iox.ErrWouldBlock
	}
	i := l % uint64(len(r.slots))
	task := r.slots[i]
	r.slots[i] = nil
	r.launched.StoreRelease(l + 1)
	return task, nil
}

// parked returns the number of tasks admitted but not yet dispatched.
func (r *readyRing) parked() int {
	return int(r.admitted.Load() - r.launched.Load())
}
