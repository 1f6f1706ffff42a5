// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import (
	"fmt"

	"github.com/petenewcomb/parexec-go/internal/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option configures a call to one of the parexec entry points.
type Option func(*config)

type config struct {
	workers        int
	workersSet     bool
	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithWorkers sets the worker count for [ParallelMap] and the functions built
// on it. Values below one cause the call to fail with [ErrInvalidArgument].
// Entry points that take an explicit worker count ignore this option.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
		c.workersSet = true
	}
}

// WithLogger sets the logger used for batch and worker events. The default is
// the global logger returned by [zap.L], which discards everything unless the
// application has replaced it.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTracerProvider sets the provider of the tracer used to create one span
// per batch. The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the provider of the meter used for batch counters.
// The default is the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveWorkers returns the configured worker count or the detected
// hardware parallelism.
func (c *config) resolveWorkers() (int, error) {
	if !c.workersSet {
		return DefaultParallelism(), nil
	}
	if c.workers < 1 {
		return 0, fmt.Errorf("%w: worker count %d is less than one", ErrInvalidArgument, c.workers)
	}
	return c.workers, nil
}

func (c *config) instruments() *telemetry.Instruments {
	return telemetry.New(c.logger, c.tracerProvider, c.meterProvider)
}

func checkWorkers(workers int) error {
	if workers < 1 {
		return fmt.Errorf("%w: worker count %d is less than one", ErrInvalidArgument, workers)
	}
	return nil
}
