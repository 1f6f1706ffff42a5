// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command parexec drives the parexec engine from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/petenewcomb/parexec-go"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// workersEnv supplies the default for --workers.
	workersEnv = "PAREXEC_WORKERS"

	instrumentation = "github.com/petenewcomb/parexec-go/cmd/parexec"
)

type globalOptions struct {
	workers  int
	logLevel string
	trace    bool

	logger         *zap.Logger
	tracerProvider *sdktrace.TracerProvider
	span           trace.Span
}

// finish ends the command span, flushes the logger and shuts down the
// tracer provider. It runs whether or not the command succeeded; err is the
// command's outcome and is recorded on the span.
func (g *globalOptions) finish(ctx context.Context, err error) error {
	if g.span != nil {
		if err != nil {
			g.span.RecordError(err)
			g.span.SetStatus(codes.Error, err.Error())
		}
		g.span.End()
	}
	if g.logger != nil {
		_ = g.logger.Sync()
	}
	if g.tracerProvider != nil {
		if err := g.tracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to flush traces: %w", err)
		}
	}
	return nil
}

// engineOptions translates the global flags into engine options.
func (g *globalOptions) engineOptions() []parexec.Option {
	opts := []parexec.Option{parexec.WithLogger(g.logger)}
	if g.workers > 0 {
		opts = append(opts, parexec.WithWorkers(g.workers))
	}
	if g.tracerProvider != nil {
		opts = append(opts, parexec.WithTracerProvider(g.tracerProvider))
	}
	return opts
}

// explicitWorkers returns the worker count for entry points that require
// one, falling back to the detected parallelism.
func (g *globalOptions) explicitWorkers() int {
	if g.workers > 0 {
		return g.workers
	}
	return parexec.DefaultParallelism()
}

func defaultWorkers() int {
	v, ok := os.LookupEnv(workersEnv)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(w)),
		lvl,
	)
	return zap.New(core), nil
}

func newRootCommand() (*cobra.Command, *globalOptions) {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "parexec",
		Short:         "parexec - run parallel computations over the command-line arguments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.workers < 0 {
				return fmt.Errorf("%w: --workers must not be negative", parexec.ErrInvalidArgument)
			}
			logger, err := newLogger(g.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			g.logger = logger

			if g.trace {
				exporter, err := stdouttrace.New(
					stdouttrace.WithWriter(cmd.ErrOrStderr()),
					stdouttrace.WithPrettyPrint(),
				)
				if err != nil {
					return fmt.Errorf("failed to create trace exporter: %w", err)
				}
				g.tracerProvider = sdktrace.NewTracerProvider(
					sdktrace.WithSampler(sdktrace.AlwaysSample()),
					sdktrace.WithBatcher(exporter),
				)
				// Engine spans nest under one span per invocation.
				ctx, span := g.tracerProvider.Tracer(instrumentation).Start(cmd.Context(), cmd.CommandPath())
				g.span = span
				cmd.SetContext(ctx)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&g.workers, "workers", "w", defaultWorkers(),
		"number of workers (0 selects the host's parallelism; default from "+workersEnv+")")
	flags.StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&g.trace, "trace", false, "print OpenTelemetry spans to stderr")

	rootCmd.AddCommand(
		newSquaresCommand(g),
		newFactorialsCommand(g),
		newPrimesCommand(g),
		newQueueCommand(g),
		newCounterCommand(g),
		newLedgerCommand(g),
	)
	return rootCmd, g
}

// execute runs the command line in args and always releases the logger and
// tracer set up for it, including when the command fails.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd, g := newRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, g.finish(ctx, err))
}

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
