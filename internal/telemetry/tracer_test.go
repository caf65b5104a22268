package telemetry

import (
	"context"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestInitTracer(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	shutdown, err := InitTracer(context.Background(), "geomap-test", "127.0.0.1:1")
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	// ended after shutdown so nothing is queued for the unreachable collector
	defer span.End()
	defer shutdown()
	if !span.SpanContext().IsValid() {
		t.Fatal("expected a recording span from the sdk provider")
	}

	h := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
	if h.Get("traceparent") == "" {
		t.Error("expected traceparent header to be injected")
	}
}
