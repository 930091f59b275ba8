// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package depsched_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loov/hrtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jogster/Honeycomb/depsched"
	"github.com/jogster/Honeycomb/future"
)

func getWithin(t *testing.T, task *depsched.Task, d time.Duration) error {
	t.Helper()
	idx := future.WaitAny(context.Background(), []*future.Future[struct{}]{task.Future()}, d)
	require.GreaterOrEqual(t, idx, 0, "task %s did not finish within %v", task.Name(), d)
	_, err, _ := task.Future().TryGet()
	return err
}

// TestDiamondOrdering runs the diamond A → {B, C} → D and asserts
// finish(u) <= start(v) for every declared edge.
func TestDiamondOrdering(t *testing.T) {
	s := depsched.New(4, 64)
	defer s.Close()

	var mu sync.Mutex
	start := map[string]time.Duration{}
	finish := map[string]time.Duration{}
	body := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			start[name] = hrtime.Now()
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			finish[name] = hrtime.Now()
			mu.Unlock()
			return nil
		}
	}

	a := depsched.NewTask("a", body("a"))
	b := depsched.NewTask("b", body("b"), a.Id())
	c := depsched.NewTask("c", body("c"), a.Id())
	d := depsched.NewTask("d", body("d"), b.Id(), c.Id())

	for _, task := range []*depsched.Task{a, b, c, d} {
		require.NoError(t, s.Reg(task))
	}
	// Enqueueing only the sink transitively enqueues the whole diamond.
	require.NoError(t, s.Enqueue(d))

	require.NoError(t, getWithin(t, d, 10*time.Second))
	for _, task := range []*depsched.Task{a, b, c, d} {
		assert.Equal(t, depsched.StateDone, task.State(), task.Name())
	}

	mu.Lock()
	defer mu.Unlock()
	edges := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}
	for _, e := range edges {
		assert.LessOrEqual(t, finish[e[0]], start[e[1]],
			"edge %s -> %s violated", e[0], e[1])
	}
}

// TestFailurePropagation fails the diamond's source; descendants must
// transition directly to failed without starting, exposing the reason.
func TestFailurePropagation(t *testing.T) {
	s := depsched.New(2, 64)
	defer s.Close()

	boom := errors.New("boom")
	started := make(map[string]bool)
	var mu sync.Mutex
	mark := func(name string) {
		mu.Lock()
		started[name] = true
		mu.Unlock()
	}

	a := depsched.NewTask("fail-a", func(context.Context) error { return boom })
	b := depsched.NewTask("fail-b", func(context.Context) error { mark("b"); return nil }, a.Id())
	c := depsched.NewTask("fail-c", func(context.Context) error { mark("c"); return nil }, a.Id())
	d := depsched.NewTask("fail-d", func(context.Context) error { mark("d"); return nil }, b.Id(), c.Id())

	for _, task := range []*depsched.Task{a, b, c, d} {
		require.NoError(t, s.Reg(task))
	}
	require.NoError(t, s.Enqueue(d))

	for _, task := range []*depsched.Task{a, b, c, d} {
		err := getWithin(t, task, 10*time.Second)
		assert.ErrorIs(t, err, boom, task.Name())
	}
	for _, task := range []*depsched.Task{b, c, d} {
		assert.Equal(t, depsched.StateFailed, task.State(), task.Name())
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, started, "descendants of a failed task must not start")
}

func TestRegRejectsCycle(t *testing.T) {
	s := depsched.New(1, 16)
	defer s.Close()

	a := depsched.NewTask("cyc-a", func(context.Context) error { return nil }, depsched.NewId("cyc-b"))
	b := depsched.NewTask("cyc-b", func(context.Context) error { return nil }, depsched.NewId("cyc-a"))

	require.NoError(t, s.Reg(a))
	err := s.Reg(b)
	assert.ErrorIs(t, err, depsched.ErrInvalidArgument)
}

func TestRegRejectsSelfCycle(t *testing.T) {
	s := depsched.New(1, 16)
	defer s.Close()

	a := depsched.NewTask("self", func(context.Context) error { return nil }, depsched.NewId("self"))
	assert.ErrorIs(t, s.Reg(a), depsched.ErrInvalidArgument)
}

func TestRegDuplicate(t *testing.T) {
	s := depsched.New(1, 16)
	defer s.Close()

	a := depsched.NewTask("dup", func(context.Context) error { return nil })
	require.NoError(t, s.Reg(a))
	// Identical registration is idempotent.
	require.NoError(t, s.Reg(a))
	clone := depsched.NewTask("dup", func(context.Context) error { return nil })
	require.NoError(t, s.Reg(clone), "same id, same predecessors is a no-op")

	conflicting := depsched.NewTask("dup", func(context.Context) error { return nil }, depsched.NewId("other"))
	assert.ErrorIs(t, s.Reg(conflicting), depsched.ErrInvalidArgument)
}

func TestEnqueueUnknownPredecessor(t *testing.T) {
	s := depsched.New(1, 16)
	defer s.Close()

	a := depsched.NewTask("known", func(context.Context) error { return nil }, depsched.NewId("never-registered"))
	require.NoError(t, s.Reg(a))
	assert.ErrorIs(t, s.Enqueue(a), depsched.ErrInvalidArgument)

	unreg := depsched.NewTask("unregistered", func(context.Context) error { return nil })
	assert.ErrorIs(t, s.Enqueue(unreg), depsched.ErrInvalidArgument)
}

// TestInterruptLiveness interrupts a cooperative task and requires it to
// reach a terminal state promptly.
func TestInterruptLiveness(t *testing.T) {
	s := depsched.New(1, 16)
	defer s.Close()

	running := make(chan struct{})
	var once sync.Once
	task := depsched.NewTask("spinner", func(ctx context.Context) error {
		for {
			once.Do(func() { close(running) })
			if err := future.InterruptPoint(ctx); err != nil {
				return err
			}
			time.Sleep(time.Millisecond)
		}
	})
	require.NoError(t, s.Reg(task))
	require.NoError(t, s.Enqueue(task))

	<-running
	s.Interrupt(task, future.ErrTerminated)

	err := getWithin(t, task, 5*time.Second)
	assert.True(t, future.IsTerminated(err), "terminal error: %v", err)
	assert.Equal(t, depsched.StateFailed, task.State())
}

// TestPanicBecomesFailure converts a panicking body into a task failure.
func TestPanicBecomesFailure(t *testing.T) {
	s := depsched.New(1, 16)

	task := depsched.NewTask("panicker", func(context.Context) error { panic("kaboom") })
	dep := depsched.NewTask("dependent", func(context.Context) error { return nil }, task.Id())
	require.NoError(t, s.Reg(task))
	require.NoError(t, s.Reg(dep))
	require.NoError(t, s.Enqueue(dep))

	err := getWithin(t, task, 10*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	err = getWithin(t, dep, 10*time.Second)
	require.Error(t, err)

	// Close surfaces the collected body errors.
	assert.Error(t, s.Close())
}

func TestCloseIdempotent(t *testing.T) {
	s := depsched.New(2, 16)
	task := depsched.NewTask("quick", func(context.Context) error { return nil })
	require.NoError(t, s.Reg(task))
	require.NoError(t, s.Enqueue(task))
	require.NoError(t, getWithin(t, task, 10*time.Second))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestNewId(t *testing.T) {
	assert.Equal(t, depsched.NewId("root"), depsched.NewId("root"))
	assert.NotEqual(t, depsched.NewId("root"), depsched.NewId("loot"))
	assert.NotEmpty(t, depsched.NewId("root").String())
}
