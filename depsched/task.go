// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package depsched

import (
	"context"

	"code.hybscloud.com/atomix"

	"github.com/jogster/Honeycomb/future"
)

// State is a task's position in its lifecycle state machine:
//
//	unregistered --Reg--> registered --Enqueue--> queued --worker--> running --done/fail--> terminal
type State uint64

const (
	StateUnregistered State = iota
	StateRegistered
	StateQueued
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistered:
		return "registered"
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Task is an executable unit: a name id, a body, and a set of predecessor
// ids. Its future resolves when the body finishes or the task fails.
type Task struct {
	id   Id
	name string
	deps []Id
	fn   func(context.Context) error

	prom   *future.Promise[struct{}]
	ctx    context.Context
	cancel context.CancelCauseFunc

	state   atomix.Uint64
	pending atomix.Int64 // predecessors not yet done, valid while queued
}

// NewTask creates a task. The body receives a context that carries the
// task's interruption; cooperative bodies check it with
// [future.InterruptPoint].
func NewTask(name string, fn func(context.Context) error, deps ...Id) *Task {
	ctx, cancel := context.WithCancelCause(context.Background())
	t := &Task{
		id:     NewId(name),
		name:   name,
		deps:   append([]Id(nil), deps...),
		fn:     fn,
		prom:   future.NewPromise[struct{}](),
		ctx:    ctx,
		cancel: cancel,
	}
	return t
}

// Id returns the task's name id.
func (t *Task) Id() Id { return t.id }

// Name returns the task's name.
func (t *Task) Name() string { return t.name }

// Deps returns a copy of the predecessor id set.
func (t *Task) Deps() []Id { return append([]Id(nil), t.deps...) }

// Future returns the task's completion future.
func (t *Task) Future() *future.Future[struct{}] { return t.prom.Future() }

// State returns the task's current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// Interrupt delivers a cancellation reason to the task. The body observes
// it at its next interrupt point; delivery is one-shot and idempotent.
func (t *Task) Interrupt(reason error) { t.cancel(reason) }

func (t *Task) casState(from, to State) bool {
	return t.state.CompareAndSwapAcqRel(uint64(from), uint64(to))
}

func (t *Task) setState(s State) { t.state.Store(uint64(s)) }

func sameDeps(a, b []Id) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[Id]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
