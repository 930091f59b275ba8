// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package depsched

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"code.hybscloud.com/iox"
	"github.com/baxromumarov/scoped"

	"github.com/jogster/Honeycomb/future"
)

// ErrInvalidArgument is the base error for graph violations: cycles,
// conflicting duplicate registrations, and unknown predecessors.
var ErrInvalidArgument = errors.New("depsched: invalid argument")

// DefaultCapacity is the default ready ring capacity (admission bound).
const DefaultCapacity = 256

// Sched runs tasks across a worker pool honoring the declared partial
// order. All graph mutation is serialized; the ready hand-off to workers
// is lock-free.
type Sched struct {
	mu    sync.Mutex
	tasks map[Id]*Task
	succs map[Id][]Id

	ready *readyRing

	scope   *scoped.Scope
	spawn   scoped.Spawner
	stop    chan struct{}
	stopped chan struct{}
	closer  sync.Once
}

// New creates a scheduler with the given worker count and ready ring
// capacity (the admission bound). Zero selects the defaults: GOMAXPROCS
// workers and DefaultCapacity admission.
func New(workers, capacity int) *Sched {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Sched{
		tasks:   make(map[Id]*Task),
		succs:   make(map[Id][]Id),
		ready:   newReadyRing(capacity),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	s.scope, s.spawn = scoped.New(context.Background(),
		scoped.WithPolicy(scoped.Collect),
		scoped.WithPanicAsError(),
		scoped.WithLimit(workers),
	)
	go s.dispatch()
	return s
}

// Reg inserts a task into the graph. Registering the identical task twice
// (same id, same predecessor set) is a no-op; a conflicting duplicate or a
// dependency cycle fails with ErrInvalidArgument.
func (s *Sched) Reg(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.tasks[t.id]; ok {
		if prev == t || sameDeps(prev.deps, t.deps) {
			return nil
		}
		return fmt.Errorf("%w: duplicate task id %v (%s)", ErrInvalidArgument, t.id, t.name)
	}

	s.tasks[t.id] = t
	if cycle := s.findCycle(t.id); cycle != nil {
		delete(s.tasks, t.id)
		return fmt.Errorf("%w: dependency cycle through %s", ErrInvalidArgument, t.name)
	}
	for _, d := range t.deps {
		s.succs[d] = append(s.succs[d], t.id)
	}
	t.casState(StateUnregistered, StateRegistered)
	return nil
}

// Enqueue transitively enqueues the task and its unsatisfied
// predecessors. Fails with ErrInvalidArgument when the task or one of its
// transitive predecessors is not registered.
func (s *Sched) Enqueue(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.id]; !ok {
		return fmt.Errorf("%w: task %s is not registered", ErrInvalidArgument, t.name)
	}

	// Depth-first over predecessors, enqueueing in dependency order.
	var visit func(id Id) error
	seen := make(map[Id]struct{})
	visit = func(id Id) error {
		if _, ok := seen[id]; ok {
			return nil
		}
		seen[id] = struct{}{}
		u, ok := s.tasks[id]
		if !ok {
			return fmt.Errorf("%w: unknown predecessor %v", ErrInvalidArgument, id)
		}
		for _, d := range u.deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		s.enqueueLocked(u)
		return nil
	}
	return visit(t.id)
}

// enqueueLocked moves a registered task to queued and hands it to the
// ready ring once its predecessors allow.
func (s *Sched) enqueueLocked(u *Task) {
	if !u.casState(StateRegistered, StateQueued) {
		return // already queued, running, or terminal
	}
	unmet := int64(0)
	for _, d := range u.deps {
		dep := s.tasks[d]
		switch dep.State() {
		case StateDone:
		case StateFailed:
			// A predecessor already failed; the task never starts.
			u.setState(StateFailed)
			u.prom.Fail(fmt.Errorf("predecessor %s failed: %w", dep.name, depErr(dep)))
			s.failSuccessorsLocked(u.id, depErr(dep))
			return
		default:
			unmet++
		}
	}
	u.pending.Store(unmet)
	if unmet == 0 {
		s.push(u)
	}
}

// Interrupt delivers a cancellation reason to a task; its body observes
// the reason at the next interrupt point.
func (s *Sched) Interrupt(t *Task, reason error) { t.Interrupt(reason) }

// Close stops dispatching, waits for in-flight task bodies, and returns
// their joined errors.
func (s *Sched) Close() error {
	var err error
	s.closer.Do(func() {
		close(s.stop)
		s.ready.drain()
		<-s.stopped
		err = s.scope.Wait()
	})
	return err
}

// dispatch drains the ready ring and spawns task bodies into the worker
// scope. The scope's limit bounds concurrently running bodies.
func (s *Sched) dispatch() {
	defer close(s.stopped)
	bo := iox.Backoff{}
	for {
		t, err := s.ready.dequeue()
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
			}
			bo.Wait()
			continue
		}
		bo.Reset()
		task := t
		s.spawn.Spawn("task-"+task.name, func(context.Context, scoped.Spawner) error {
			return s.run(task)
		})
	}
}

// run executes one task body and resolves its future.
func (s *Sched) run(t *Task) error {
	if !t.casState(StateQueued, StateRunning) {
		return nil
	}
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task %s panicked: %v", t.name, r)
			}
		}()
		err = t.fn(t.ctx)
	}()
	s.complete(t, err)
	if err != nil && !future.IsTerminated(err) {
		return err
	}
	return nil
}

// complete records a task's outcome and unblocks or fails its
// successors. The promise resolves before any successor is pushed, so a
// predecessor's completion happens before its dependent starts.
func (s *Sched) complete(t *Task, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		t.setState(StateDone)
		t.prom.Complete(struct{}{})
		for _, id := range s.succs[t.id] {
			u := s.tasks[id]
			if u.State() == StateQueued && u.pending.Add(-1) == 0 {
				s.push(u)
			}
		}
		return
	}

	t.setState(StateFailed)
	t.prom.Fail(err)
	s.failSuccessorsLocked(t.id, err)
}

// failSuccessorsLocked fails every not-yet-running descendant with the
// originating reason.
func (s *Sched) failSuccessorsLocked(id Id, cause error) {
	for _, sid := range s.succs[id] {
		u := s.tasks[sid]
		st := u.State()
		if st.Terminal() || st == StateRunning {
			continue
		}
		if u.casState(StateQueued, StateFailed) || u.casState(StateRegistered, StateFailed) {
			u.prom.Fail(fmt.Errorf("predecessor failed: %w", cause))
			s.failSuccessorsLocked(sid, cause)
		}
	}
}

// push hands a ready task to the worker pool. A closed ring means
// shutdown already drained the dispatcher and the task will not start;
// overflow means the admission bound was misconfigured.
func (s *Sched) push(u *Task) {
	switch err := s.ready.enqueue(u); {
	case err == nil:
	case errors.Is(err, errAdmissionClosed):
	default:
		panic("depsched: ready ring full, admission bound exceeded")
	}
}

// findCycle runs a depth-first search over the registered predecessor
// edges reachable from start, returning a cycle as an id path, or nil.
func (s *Sched) findCycle(start Id) []Id {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[Id]int)
	var path []Id
	var dfs func(id Id) []Id
	dfs = func(id Id) []Id {
		t, ok := s.tasks[id]
		if !ok {
			return nil // unknown predecessors are checked at Enqueue
		}
		color[id] = gray
		path = append(path, id)
		for _, d := range t.deps {
			switch color[d] {
			case gray:
				return append(path, d)
			case white:
				if c := dfs(d); c != nil {
					return c
				}
			}
		}
		color[id] = black
		path = path[:len(path)-1]
		return nil
	}
	return dfs(start)
}

// depErr extracts the terminal error of a failed predecessor.
func depErr(dep *Task) error {
	if _, err, ok := dep.Future().TryGet(); ok && err != nil {
		return err
	}
	return fmt.Errorf("task %s failed", dep.name)
}
