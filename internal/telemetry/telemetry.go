// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package telemetry bundles the logger, tracer and metric instruments shared
// by every parexec entry point. Each batch operation opens a [Batch] that
// logs its start and completion, wraps the work in a span and counts items.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	component       = "parexec"
	instrumentation = "github.com/petenewcomb/parexec-go"
)

// Instruments holds the observability handles for one call to an entry
// point.
type Instruments struct {
	Logger *zap.Logger

	tracer       trace.Tracer
	batches      metric.Int64Counter
	items        metric.Int64Counter
	workerPanics metric.Int64Counter
}

// New creates the instruments for one entry-point call. A nil logger selects
// [zap.L] and a nil provider selects the corresponding otel global.
func New(logger *zap.Logger, tp trace.TracerProvider, mp metric.MeterProvider) *Instruments {
	if logger == nil {
		logger = zap.L()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentation)

	// Instrument creation only fails for invalid names, and the returned
	// instrument is a usable no-op in that case.
	batches, _ := meter.Int64Counter("parexec.batches")
	items, _ := meter.Int64Counter("parexec.items")
	workerPanics, _ := meter.Int64Counter("parexec.worker_panics")

	return &Instruments{
		Logger:       logger.With(zap.String("component", component)),
		tracer:       tp.Tracer(instrumentation),
		batches:      batches,
		items:        items,
		workerPanics: workerPanics,
	}
}

// Batch tracks a single invocation of an entry point.
type Batch struct {
	ctx       context.Context
	in        *Instruments
	operation string
	span      trace.Span
	logger    *zap.Logger
	start     time.Time
}

// StartBatch opens a span named "parexec.<operation>" and logs the start of
// the batch. The returned context carries the span and must be used for any
// nested work.
func (in *Instruments) StartBatch(ctx context.Context, operation string, items, workers int) (context.Context, *Batch) {
	ctx, span := in.tracer.Start(ctx, component+"."+operation,
		trace.WithAttributes(
			attribute.Int("parexec.items", items),
			attribute.Int("parexec.workers", workers),
		))
	logger := in.Logger.With(
		zap.String("operation", operation),
		zap.Int("items", items),
		zap.Int("workers", workers))
	logger.Debug("Starting batch")

	opAttr := metric.WithAttributes(attribute.String("operation", operation))
	in.batches.Add(ctx, 1, opAttr)
	in.items.Add(ctx, int64(items), opAttr)

	return ctx, &Batch{
		ctx:       ctx,
		in:        in,
		operation: operation,
		span:      span,
		logger:    logger,
		start:     time.Now(),
	}
}

// Logger returns the batch-scoped logger.
func (b *Batch) Logger() *zap.Logger {
	return b.logger
}

// WorkerPanicked records a recovered worker panic.
func (b *Batch) WorkerPanicked(worker int, err error) {
	b.in.workerPanics.Add(b.ctx, 1, metric.WithAttributes(attribute.String("operation", b.operation)))
	b.span.AddEvent("worker panicked", trace.WithAttributes(attribute.Int("parexec.worker", worker)))
	b.logger.Error("Worker panicked", zap.Int("worker", worker), zap.Error(err))
}

// End closes the span and logs completion. A non-nil err marks the span as
// failed. End returns err unchanged so it can be used in return statements.
func (b *Batch) End(err error) error {
	duration := time.Since(b.start)
	if err != nil {
		b.span.RecordError(err)
		b.span.SetStatus(codes.Error, err.Error())
		b.logger.Error("Batch failed",
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		b.logger.Debug("Batch completed",
			zap.Duration("duration", duration))
	}
	b.span.End()
	return err
}
