package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/rtcallbacks/callbacks"
	"github.com/tailored-agentic-units/rtcallbacks/guard"
	"github.com/tailored-agentic-units/rtcallbacks/listeners"
	"github.com/tailored-agentic-units/rtcallbacks/observability"
	"github.com/tailored-agentic-units/rtcallbacks/vm"
)

func newStressCommand(flags *globalFlags) *cobra.Command {
	var (
		dispatchers int
		registrars  int
		rounds      int
	)

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Dispatch from many goroutines while listeners come and go",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configFile)
			if err != nil {
				return err
			}

			logger, closer := newLogger(flags, cfg.SlogLevel())
			defer closer.Close()

			reg := callbacks.New(
				callbacks.WithLogger(logger),
				callbacks.WithObserver(observability.NewSlogObserver(logger)),
				callbacks.WithGuard(guard.New(
					guard.WithLogger(logger),
					guard.WithStallWarning(cfg.StallWarningDuration()),
				)),
			)

			resident := listeners.NewCounter()
			reg.AddAll(resident)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			start := time.Now()
			if err := stress(ctx, reg, dispatchers, registrars, rounds); err != nil {
				return fmt.Errorf("stress run failed: %w", err)
			}
			elapsed := time.Since(start)

			stats := reg.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Elapsed:          %s\n", elapsed.Round(time.Millisecond))
			fmt.Fprintf(out, "Dispatches:       %d\n", stats.Total())
			for _, c := range callbacks.Categories() {
				fmt.Fprintf(out, "  %-24s %d\n", c, stats.Dispatched[c])
			}
			fmt.Fprintf(out, "Resident calls:   %d\n", resident.Total())
			fmt.Fprintf(out, "Violations:       %d\n", stats.Violations)
			return nil
		},
	}

	cmd.Flags().IntVar(&dispatchers, "dispatchers", 8, "Concurrent dispatching goroutines")
	cmd.Flags().IntVar(&registrars, "registrars", 2, "Concurrent goroutines adding and removing listeners")
	cmd.Flags().IntVar(&rounds, "rounds", 1000, "Iterations per goroutine")
	return cmd
}

// stress runs dispatchers and registrars concurrently against reg.
func stress(ctx context.Context, reg *callbacks.Registry, dispatchers, registrars, rounds int) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := range dispatchers {
		thread := vm.NewThread(fmt.Sprintf("dispatcher-%d", i))
		g.Go(func() error {
			monitor := &vm.Monitor{Owner: thread}
			for n := range rounds {
				if err := ctx.Err(); err != nil {
					return err
				}
				reg.ThreadStart(thread)
				reg.MonitorContendedLocking(monitor)
				reg.MonitorContendedLocked(monitor)
				reg.ThreadParkStart(false, int64(n))
				reg.ThreadParkFinished(false)
				reg.HaveLocalsChanged()
				reg.RegisterNativeMethod(&vm.Method{Name: "stress"}, vm.NativeCode(n+1))
				reg.ThreadDeath(thread)
			}
			return nil
		})
	}

	for range registrars {
		g.Go(func() error {
			for range rounds {
				if err := ctx.Err(); err != nil {
					return err
				}
				transient := listeners.NewCounter()
				reg.AddAll(transient)
				reg.RemoveAll(transient)
			}
			return nil
		})
	}

	return g.Wait()
}
