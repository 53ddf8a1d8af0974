package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs an in-memory tracer provider for the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	recorder := recordSpans(t)

	ctx, span := StartServiceSpan(context.Background(), "gate", "enforce",
		WithAttribute(SpanAttrRuleType, "LIMIT"),
		WithAttribute(SpanAttrGateAllowed, false),
		WithSpanKind(trace.SpanKindServer),
	)
	assert.NotEmpty(t, TraceID(ctx))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "gate.enforce", ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())

	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "LIMIT", attrs[SpanAttrRuleType].AsString())
	assert.False(t, attrs[SpanAttrGateAllowed].AsBool())
}

func TestSetAttributes_SkipsNonStringKeys(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "usage.count")
	SetAttributes(span,
		SpanAttrScopeKind, "HOSPITAL",
		42, "ignored",
		"count", int64(7),
		"ratio", 0.5,
		"codes", []string{"a", "b"},
		"dangling",
	)
	span.End()

	attrs := attrMap(recorder.Ended()[0].Attributes())
	assert.Len(t, attrs, 4)
	assert.Equal(t, "HOSPITAL", attrs[SpanAttrScopeKind].AsString())
	assert.Equal(t, int64(7), attrs["count"].AsInt64())
	assert.Equal(t, 0.5, attrs["ratio"].AsFloat64())
	assert.Equal(t, []string{"a", "b"}, attrs["codes"].AsStringSlice())
}

func TestRecordError(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "plans.bootstrap")
	RecordError(span, nil)
	RecordError(span, errors.New("duplicate plan"))
	span.End()

	s := recorder.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "duplicate plan", s.Status().Description)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "exception", s.Events()[0].Name)
}

func TestSetOKAndAddEvent(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSpan(context.Background(), "revenue.summary")
	AddEvent(span, "cache_miss", SpanAttrPlanCode, "DOCTOR_PRO")
	SetOK(span)
	span.End()

	s := recorder.Ended()[0]
	assert.Equal(t, codes.Ok, s.Status().Code)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "DOCTOR_PRO", attrMap(s.Events()[0].Attributes)[SpanAttrPlanCode].AsString())
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "k", "v")
		RecordError(nil, errors.New("x"))
		SetOK(nil)
		AddEvent(nil, "e")
	})
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "", TraceID(context.Background()))
}
