// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jogster/Honeycomb/app"
	"github.com/jogster/Honeycomb/future"
	"github.com/jogster/Honeycomb/list"
	"github.com/jogster/Honeycomb/logging"
	"github.com/jogster/Honeycomb/queue"
	"github.com/jogster/Honeycomb/spsc"
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		count    int
		workers  int
		logLevel string
	)
	cmd := &cobra.Command{
		Use:           "honeycomb",
		Short:         "Run the demo module pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			return runPipeline(cfg, count)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (optional)")
	cmd.Flags().IntVar(&count, "count", 1000, "elements to push through the pipeline")
	cmd.Flags().IntVar(&workers, "workers", 0, "scheduler workers (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "minimum log level")
	return cmd
}

func runPipeline(cfg app.Config, count int) error {
	log := logging.New(os.Stderr, cfg.LogLevel)

	pending := queue.New[int](1024)
	staged := spsc.New[int](64)
	checkpoints := list.New[int](0, 0)

	reg := app.NewRegistry()

	source := app.NewModule("source", func(ctx context.Context) error {
		for i := 1; i <= count; i++ {
			if err := future.InterruptPoint(ctx); err != nil {
				return err
			}
			pending.Push(i)
		}
		log.Info("source finished", "pushed", count)
		return nil
	})

	transform := app.NewModule("transform", func(ctx context.Context) error {
		moved := 0
		for {
			if err := future.InterruptPoint(ctx); err != nil {
				return err
			}
			v, err := pending.Pop()
			if err != nil {
				break // source completed before us; empty means done
			}
			staged.PushBack(v * 2)
			moved++
		}
		log.Info("transform finished", "moved", moved)
		return nil
	}, "source")

	audit := app.NewModule("audit", func(ctx context.Context) error {
		for i := 0; i < 8; i++ {
			if err := future.InterruptPoint(ctx); err != nil {
				return err
			}
			checkpoints.PushBack(i)
		}
		sum := 0
		it := checkpoints.Begin()
		for ; !it.AtEnd(); it.Next() {
			sum += it.Value()
		}
		it.Close()
		log.Info("audit finished", "checkpoints", checkpoints.Len(), "sum", sum)
		return nil
	}, "source")

	root := app.NewModule(app.RootName, func(ctx context.Context) error {
		// Both upstream stages completed before root starts, so the
		// staging deque is fully populated.
		drained, total := 0, 0
		for {
			if err := future.InterruptPoint(ctx); err != nil {
				return err
			}
			v, err := staged.PopFront()
			if err != nil {
				break
			}
			drained++
			total += v
		}
		log.Info("pipeline complete", "drained", drained, "total", total)
		return nil
	}, "transform", "audit")

	for _, m := range []*app.Module{source, transform, audit, root} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}

	a := app.New(cfg, log, reg)
	defer a.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		if _, ok := <-sig; ok {
			a.Interrupt(future.ErrTerminated)
		}
	}()

	return a.Entry(context.Background())
}
