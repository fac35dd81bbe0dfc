package otelhelper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zzpkit/zzpkit/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Package tracers are obtained via otel.Tracer, so spans only record
// once the provider is installed globally.
func TestInitTracerInstallsGlobalProvider(t *testing.T) {
	ctx := context.Background()

	tp, err := otelhelper.InitTracer(ctx, "zzpkit-test")
	require.NoError(t, err)

	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_ = tp.Shutdown(shutdownCtx)
	})

	assert.Same(t, tp, otel.GetTracerProvider())

	tracer := otel.Tracer("automation-engine")

	_, span := otelhelper.StartSpan(ctx, tracer, "automation.sweep",
		attribute.String(otelhelper.AutomationIDKey, "auto-1"))
	defer span.End()

	assert.True(t, span.IsRecording())
}

func TestSetErrorMarksSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	_, span := tracer.Start(context.Background(), "automation.execute")
	otelhelper.SetError(span, errors.New("gateway timeout"),
		attribute.String(otelhelper.AutomationIDKey, "auto-1"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "gateway timeout", spans[0].Status().Description)
}
