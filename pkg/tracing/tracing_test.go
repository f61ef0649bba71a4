package tracing

import (
	"ask-relay/pkg/apperr"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestSpanEndRecordsKind(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	_, step := StartSpan(context.Background(), tracer, zap.NewNop(), "Navigate")
	step.End(apperr.Wrap("Navigate", apperr.KindNavigationTimeout, errors.New("slow"), nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var kind string
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "kind" {
			kind = attr.Value.AsString()
		}
	}
	assert.Equal(t, string(apperr.KindNavigationTimeout), kind)
}

func TestSpanEndOK(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, step := StartSpan(context.Background(), provider.Tracer("test"), zap.NewNop(), "Fill")
	step.AddEvent("filled")
	step.End(nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "filled", spans[0].Events()[0].Name)
}
