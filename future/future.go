// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package future provides the task primitive of the scheduler: one-shot
// futures with promise completion, first-of-many waiting, and cooperative
// cancellation through interrupt points.
//
// Cancellation is modeled as a reason error delivered through a context
// cause. [ErrTerminated] is the canonical reason for graceful shutdown; it
// is a control signal, not a fault, and callers that do not care may catch
// and discard it.
package future

import (
	"context"
	"errors"
	"math"
	"time"

	"code.hybscloud.com/atomix"
)

// ErrTerminated is the cooperative cancellation reason used for graceful
// shutdown. It functions as a cancellation token, not a fault.
var ErrTerminated = errors.New("terminated")

// IsTerminated reports whether err is (or wraps) the termination reason.
func IsTerminated(err error) bool { return errors.Is(err, ErrTerminated) }

// MaxTimeout is an effectively unbounded wait duration.
const MaxTimeout = time.Duration(math.MaxInt64)

// Future is the read side of a one-shot asynchronous result.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Promise is the write side of a Future. Complete and Fail are one-shot;
// later calls are ignored.
type Promise[T any] struct {
	fut   *Future[T]
	state atomix.Uint64
}

// NewPromise creates a promise with its future.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{fut: &Future[T]{done: make(chan struct{})}}
}

// Future returns the future completed by this promise.
func (p *Promise[T]) Future() *Future[T] { return p.fut }

// Complete resolves the future with a value.
// Returns false when the future was already resolved.
func (p *Promise[T]) Complete(val T) bool {
	if !p.state.CompareAndSwapAcqRel(0, 1) {
		return false
	}
	p.fut.val = val
	close(p.fut.done)
	return true
}

// Fail resolves the future with an error.
// Returns false when the future was already resolved.
func (p *Promise[T]) Fail(err error) bool {
	if !p.state.CompareAndSwapAcqRel(0, 1) {
		return false
	}
	p.fut.err = err
	close(p.fut.done)
	return true
}

// Done returns a channel closed when the future resolves.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Get blocks until the future resolves and returns its outcome. When the
// caller's context is interrupted first, Get returns the interruption
// reason instead; this is the interrupt point inside a blocking wait.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}

// TryGet returns the outcome without blocking.
// The third result reports whether the future has resolved.
func (f *Future[T]) TryGet() (T, error, bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// WaitAny waits until one of the futures resolves and returns its index,
// or -1 when the timeout expires or the context is interrupted first.
// Timeout expiry means "no ready future", never an error. Pass MaxTimeout
// to wait without a deadline.
func WaitAny[T any](ctx context.Context, futs []*Future[T], timeout time.Duration) int {
	for i, f := range futs {
		select {
		case <-f.done:
			return i
		default:
		}
	}
	if len(futs) == 0 || timeout <= 0 {
		return -1
	}

	stop := make(chan struct{})
	defer close(stop)
	ready := make(chan int, 1)
	for i := range futs {
		go func(i int) {
			select {
			case <-futs[i].done:
				select {
				case ready <- i:
				case <-stop:
				}
			case <-stop:
			}
		}(i)
	}

	var expire <-chan time.Time
	if timeout < MaxTimeout {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expire = timer.C
	}
	select {
	case i := <-ready:
		return i
	case <-expire:
		return -1
	case <-ctx.Done():
		return -1
	}
}

// InterruptPoint is a cooperative cancellation check: it returns the
// pending interruption reason, or nil when none has been delivered. Task
// bodies call it at their own suspension points.
func InterruptPoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	default:
		return nil
	}
}
