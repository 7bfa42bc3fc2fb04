package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tailored-agentic-units/rtcallbacks/host"
	"github.com/tailored-agentic-units/rtcallbacks/listeners"
	"github.com/tailored-agentic-units/rtcallbacks/observability"
)

type globalFlags struct {
	configFile string
	logFile    string
	verbose    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "rtcallbacks",
		Short:         "Drive a simulated runtime through its callback registry",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to host config file (.json or .toml)")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Write logs to a rotated file instead of stderr")
	root.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Enable debug logging")

	root.AddCommand(newRunCommand(flags), newStressCommand(flags))
	return root
}

func newRunCommand(flags *globalFlags) *cobra.Command {
	var (
		threads  int
		classes  int
		debugger bool
		trace    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulated runtime lifecycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configFile)
			if err != nil {
				return err
			}
			if threads > 0 {
				cfg.Threads = threads
			}
			if classes > 0 {
				cfg.ClassesPerThread = classes
			}
			if debugger {
				cfg.DebuggerConfigured = true
			}

			logger, closer := newLogger(flags, cfg.SlogLevel())
			defer closer.Close()

			base, err := resolveObserver(cfg.Observer, logger)
			if err != nil {
				return err
			}
			tally := &eventTally{}
			observer := observability.NewMultiObserver(base, tally)

			h, err := host.New(cfg, host.WithLogger(logger), host.WithObserver(observer))
			if err != nil {
				return fmt.Errorf("failed to create host: %w", err)
			}
			defer h.Shutdown()

			counter := listeners.NewCounter()
			h.Registry().AddAll(counter)
			if trace {
				h.Registry().AddAll(listeners.NewTracer(observer))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result, err := h.Run(ctx)
			if err != nil {
				return fmt.Errorf("host run failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Threads:             %d\n", result.Threads)
			fmt.Fprintf(out, "Classes defined:     %d\n", result.ClassesDefined)
			fmt.Fprintf(out, "Native rebinds:      %d\n", result.NativeRebinds)
			fmt.Fprintf(out, "Locals changed:      %d\n", result.LocalsChanged)
			fmt.Fprintf(out, "Debugger configured: %t\n", result.DebuggerConfigured)
			fmt.Fprintf(out, "Callbacks received:  %d\n", counter.Total())
			fmt.Fprintf(out, "Events observed:     %d\n", tally.count.Load())
			return nil
		},
	}

	cmd.Flags().IntVar(&threads, "threads", 0, "Worker threads (overrides config)")
	cmd.Flags().IntVar(&classes, "classes", 0, "Classes defined per thread (overrides config)")
	cmd.Flags().BoolVar(&debugger, "debugger", false, "Report a configured debugger")
	cmd.Flags().BoolVar(&trace, "trace", false, "Log every callback through a tracing listener")
	return cmd
}

func resolveObserver(name string, logger *slog.Logger) (observability.Observer, error) {
	if name == "slog" {
		return observability.NewSlogObserver(logger), nil
	}
	obs, err := observability.GetObserver(name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}
	return obs, nil
}

// eventTally counts the events it observes.
type eventTally struct {
	count atomic.Int64
}

func (t *eventTally) OnEvent(context.Context, observability.Event) {
	t.count.Add(1)
}

func loadConfig(path string) (*host.Config, error) {
	if path == "" {
		cfg := host.DefaultConfig()
		return &cfg, nil
	}
	cfg, err := host.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(flags *globalFlags, level slog.Level) (*slog.Logger, io.Closer) {
	if flags.verbose {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if flags.logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   flags.logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
		w, closer = rotated, rotated
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closer
}
