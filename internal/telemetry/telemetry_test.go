// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/petenewcomb/parexec-go/internal/telemetry"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBatchLifecycle(t *testing.T) {
	chk := require.New(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { chk.NoError(tp.Shutdown(context.Background())) }()
	core, logs := observer.New(zapcore.DebugLevel)

	in := telemetry.New(zap.New(core), tp, nil)
	_, batch := in.StartBatch(context.Background(), "Thing", 10, 4)
	batch.WorkerPanicked(2, errors.New("kaboom"))
	err := errors.New("failed")
	chk.Same(err, batch.End(err))

	spans := recorder.Ended()
	chk.Len(spans, 1)
	span := spans[0]
	chk.Equal("parexec.Thing", span.Name())
	chk.Equal(codes.Error, span.Status().Code)
	chk.Contains(span.Attributes(), attribute.Int("parexec.items", 10))
	chk.Contains(span.Attributes(), attribute.Int("parexec.workers", 4))

	var eventNames []string
	for _, e := range span.Events() {
		eventNames = append(eventNames, e.Name)
	}
	chk.Contains(eventNames, "worker panicked")

	panicked := logs.FilterMessage("Worker panicked").All()
	chk.Len(panicked, 1)
	chk.Equal(int64(2), panicked[0].ContextMap()["worker"])
	chk.Equal(1, logs.FilterMessage("Batch failed").Len())
}

func TestNewDefaultsToGlobals(t *testing.T) {
	chk := require.New(t)
	in := telemetry.New(nil, nil, nil)
	chk.NotNil(in.Logger)
	ctx, batch := in.StartBatch(context.Background(), "Noop", 0, 1)
	chk.NotNil(ctx)
	chk.NoError(batch.End(nil))
}

func TestBatchCountersRecorded(t *testing.T) {
	chk := require.New(t)
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { chk.NoError(mp.Shutdown(ctx)) }()

	in := telemetry.New(zap.NewNop(), nil, mp)
	_, first := in.StartBatch(ctx, "Squares", 7, 2)
	first.WorkerPanicked(1, errors.New("kaboom"))
	chk.Error(first.End(errors.New("failed")))
	_, second := in.StartBatch(ctx, "Squares", 3, 2)
	chk.NoError(second.End(nil))
	_, third := in.StartBatch(ctx, "Primes", 5, 1)
	chk.NoError(third.End(nil))

	var rm metricdata.ResourceMetrics
	chk.NoError(reader.Collect(ctx, &rm))

	// Totals per counter name, then per operation attribute.
	totals := map[string]map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			chk.True(ok, "metric %s has data %T", m.Name, m.Data)
			chk.True(sum.IsMonotonic, m.Name)
			byOp := map[string]int64{}
			for _, dp := range sum.DataPoints {
				op, ok := dp.Attributes.Value("operation")
				chk.True(ok, m.Name)
				byOp[op.AsString()] += dp.Value
			}
			totals[m.Name] = byOp
		}
	}

	chk.Equal(map[string]int64{"Squares": 2, "Primes": 1}, totals["parexec.batches"])
	chk.Equal(map[string]int64{"Squares": 10, "Primes": 5}, totals["parexec.items"])
	chk.Equal(map[string]int64{"Squares": 1}, totals["parexec.worker_panics"])
}
