// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package app_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jogster/Honeycomb/app"
	"github.com/jogster/Honeycomb/future"
	"github.com/jogster/Honeycomb/logging"
)

func newTestApp(t *testing.T, reg *app.Registry) (*app.App, *syncBuffer) {
	t.Helper()
	sb := &syncBuffer{buf: &bytes.Buffer{}}
	cfg := app.DefaultConfig()
	cfg.Workers = 2
	a := app.New(cfg, logging.New(sb, "info"), reg)
	t.Cleanup(func() { a.Close() })
	return a, sb
}

// syncBuffer guards the log buffer: module bodies log from worker
// goroutines while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEntryRunsModulesInOrder(t *testing.T) {
	reg := app.NewRegistry()

	var mu sync.Mutex
	var order []string
	body := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	require.NoError(t, reg.Register(app.NewModule("store", body("store"))))
	require.NoError(t, reg.Register(app.NewModule("server", body("server"), "store")))
	require.NoError(t, reg.Register(app.NewModule(app.RootName, body("root"), "server")))

	a, _ := newTestApp(t, reg)
	require.NoError(t, a.Entry(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"store", "server", "root"}, order)
	assert.Empty(t, a.Failures())
}

func TestModuleFailureLoggedCritical(t *testing.T) {
	reg := app.NewRegistry()
	boom := errors.New("store exploded")

	require.NoError(t, reg.Register(app.NewModule("store", func(context.Context) error {
		return boom
	})))
	require.NoError(t, reg.Register(app.NewModule(app.RootName, func(context.Context) error {
		return nil
	}, "store")))

	a, buf := newTestApp(t, reg)
	// The driver absorbs module failures: it logs and keeps draining.
	require.NoError(t, a.Entry(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "store exploded")

	failures := a.Failures()
	require.NotEmpty(t, failures)
	found := false
	for _, err := range failures {
		if errors.Is(err, boom) {
			found = true
		}
	}
	assert.True(t, found, "original failure not recorded: %v", failures)
}

func TestInterruptTerminatesRun(t *testing.T) {
	reg := app.NewRegistry()

	entered := make(chan struct{})
	var once sync.Once
	require.NoError(t, reg.Register(app.NewModule(app.RootName, func(ctx context.Context) error {
		for {
			once.Do(func() { close(entered) })
			if err := future.InterruptPoint(ctx); err != nil {
				return err
			}
			time.Sleep(time.Millisecond)
		}
	})))

	a, buf := newTestApp(t, reg)
	done := make(chan error, 1)
	go func() { done <- a.Entry(context.Background()) }()

	<-entered
	a.Interrupt(future.ErrTerminated)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Entry did not return after Interrupt")
	}

	assert.Contains(t, buf.String(), "terminating...")
	// Termination is absorbed, not recorded as a failure.
	assert.Empty(t, a.Failures())
}

func TestInterruptWithoutEntryIsNoop(t *testing.T) {
	reg := app.NewRegistry()
	require.NoError(t, reg.Register(app.NewModule(app.RootName, func(context.Context) error {
		return nil
	})))
	a, _ := newTestApp(t, reg)
	a.Interrupt(future.ErrTerminated) // nothing running
	require.NoError(t, a.Entry(context.Background()))
}

func TestEntryRequiresRoot(t *testing.T) {
	reg := app.NewRegistry()
	require.NoError(t, reg.Register(app.NewModule("orphan", func(context.Context) error {
		return nil
	})))
	a, _ := newTestApp(t, reg)
	err := a.Entry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")
}

func TestRegistryDuplicate(t *testing.T) {
	reg := app.NewRegistry()
	m := app.NewModule("twice", func(context.Context) error { return nil })
	require.NoError(t, reg.Register(m))
	assert.Error(t, reg.Register(app.NewModule("twice", func(context.Context) error { return nil })))
	assert.Same(t, m, reg.Get(m.Id()))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := app.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, app.DefaultConfig(), cfg)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("HONEYCOMB_INTERRUPT_FREQ", "60")
	t.Setenv("HONEYCOMB_LOG_LEVEL", "debug")
	cfg, err := app.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.InterruptFreq)
	assert.Equal(t, "debug", cfg.LogLevel)
}
