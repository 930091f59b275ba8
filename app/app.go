// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package app is the application driver: it registers module tasks with
// the scheduler, enqueues the root module, and waits on module futures
// while coordinating cooperative termination.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/atomix"

	"github.com/jogster/Honeycomb/depsched"
	"github.com/jogster/Honeycomb/future"
	"github.com/jogster/Honeycomb/logging"
)

const (
	modeTerm = iota
	modeRun
)

// App drives one application run over a module registry.
type App struct {
	cfg   Config
	log   *logging.Logger
	reg   *Registry
	sched *depsched.Sched

	mu        sync.Mutex
	interrupt context.CancelCauseFunc
	runMode   atomix.Uint64

	failMu   sync.Mutex
	failures []error
}

// New creates an application driver with its scheduler.
func New(cfg Config, log *logging.Logger, reg *Registry) *App {
	if log == nil {
		log = logging.New(nil, cfg.LogLevel)
	}
	if cfg.InterruptFreq <= 0 {
		cfg.InterruptFreq = DefaultConfig().InterruptFreq
	}
	return &App{
		cfg:   cfg,
		log:   log,
		reg:   reg,
		sched: depsched.New(cfg.Workers, cfg.QueueCapacity),
	}
}

// Sched returns the driver's scheduler.
func (a *App) Sched() *depsched.Sched { return a.sched }

// Close shuts the scheduler down and waits for in-flight task bodies.
func (a *App) Close() error { return a.sched.Close() }

// Failures returns the non-termination module errors recorded during the
// last run.
func (a *App) Failures() []error {
	a.failMu.Lock()
	defer a.failMu.Unlock()
	return append([]error(nil), a.failures...)
}

// Entry records the running entry under the lock, flips the mode to run,
// executes the main loop, then clears the entry.
func (a *App) Entry(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	a.mu.Lock()
	a.interrupt = cancel
	a.mu.Unlock()

	a.runMode.Store(modeRun)
	err := a.run(ctx)

	a.mu.Lock()
	a.interrupt = nil
	a.mu.Unlock()
	return err
}

// Interrupt injects an interruption reason into the running entry.
// No-op when no entry is currently running.
func (a *App) Interrupt(reason error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.interrupt != nil {
		a.interrupt(reason)
	}
}

// run is the main loop: register every module task, enqueue root, then
// drain module futures, absorbing termination and logging failures at
// critical until every module has completed.
func (a *App) run(ctx context.Context) error {
	a.failMu.Lock()
	a.failures = nil
	a.failMu.Unlock()

	modules := a.reg.Modules()
	for _, m := range modules {
		if err := a.sched.Reg(m.Task()); err != nil {
			return err
		}
	}
	root := a.reg.Root()
	if root == nil {
		return fmt.Errorf("app: no %q module registered", RootName)
	}
	if err := a.sched.Enqueue(root.Task()); err != nil {
		return err
	}

	futs := make([]*future.Future[struct{}], 0, len(modules))
	for _, m := range modules {
		futs = append(futs, m.Task().Future())
	}

	for len(modules) > 0 {
		if err := future.InterruptPoint(ctx); err != nil && a.runMode.Load() != modeTerm {
			if !future.IsTerminated(err) {
				return err
			}
			a.log.Info("terminating...")
			a.runMode.Store(modeTerm)
		}

		// While running, wait without deadline; while terminating, poll
		// at the interrupt frequency. The interruption itself has already
		// been consumed, so the terminating wait ignores the context.
		waitCtx := ctx
		timeout := future.MaxTimeout
		if a.runMode.Load() == modeTerm {
			waitCtx = context.Background()
			timeout = time.Second / time.Duration(a.cfg.InterruptFreq)
		}

		if idx := future.WaitAny(waitCtx, futs, timeout); idx >= 0 {
			if _, err, ok := futs[idx].TryGet(); ok && err != nil && !future.IsTerminated(err) {
				a.log.Critical(err.Error(), "module", modules[idx].Name())
				a.failMu.Lock()
				a.failures = append(a.failures, err)
				a.failMu.Unlock()
			}
			modules = append(modules[:idx], modules[idx+1:]...)
			futs = append(futs[:idx], futs[idx+1:]...)
		}

		if a.runMode.Load() == modeTerm {
			for _, m := range modules {
				m.Task().Interrupt(future.ErrTerminated)
			}
		}
	}
	return nil
}
