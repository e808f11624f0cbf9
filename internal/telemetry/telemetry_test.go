package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracerWithoutSetup(t *testing.T) {
	_, span := Tracer("test").Start(context.Background(), "noop")
	defer span.End()
	assert.NotNil(t, span)

	_, span2 := NoopTracer().Start(context.Background(), "noop")
	span2.End()
}

func TestRecordError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	boom := errors.New("boom")
	assert.Same(t, boom, RecordError(span, boom))
	assert.NoError(t, RecordError(span, nil))
	span.End()

	ended := rec.Ended()
	if assert.Len(t, ended, 1) {
		assert.Len(t, ended[0].Events(), 1, "one recorded error event")
		found := false
		for _, kv := range ended[0].Attributes() {
			if string(kv.Key) == "failed" && kv.Value.AsBool() {
				found = true
			}
		}
		assert.True(t, found)
	}
}
