package ticketapi

import (
	"context"
	"net/http"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withSpan wraps a handler so every request context carries a recording span,
// the way the otelhttp middleware does in production.
func withSpan(tp *sdktrace.TracerProvider, next http.Handler) http.Handler {
	tracer := tp.Tracer("test")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "http.server")
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestCreateTicket_AnnotatesSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	r := newTestRouter(t)
	h := withSpan(tp, r)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/tickets",
		`{"title":"VPN connection drops every few minutes","description":"Remote workers report the VPN tunnel resets constantly since this morning."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	body := decodeTicket(t, rec)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}

	attrs := make(map[string]any)
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}

	if got, want := attrs["sift.ticket.id"], int64(1); got != want {
		t.Errorf("sift.ticket.id = %v, want %v", got, want)
	}
	if got, want := attrs["sift.ticket.severity"], body["severity"]; got != want {
		t.Errorf("sift.ticket.severity = %v, want %v", got, want)
	}
	if got, want := attrs["sift.triage.source"], "no_ai_key"; got != want {
		t.Errorf("sift.triage.source = %v, want %v", got, want)
	}
}

func TestDatadogWebhook_AnnotatesSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	r := newTestRouter(t)
	h := withSpan(tp, r)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/monitoring/datadog",
		`{"title":"CPU usage above 90%","text":"Sustained high CPU on the batch host.","alert_type":"error"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}

	attrs := make(map[string]any)
	for _, a := range spans[0].Attributes {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}

	if got, want := attrs["sift.ticket.source"], "datadog"; got != want {
		t.Errorf("sift.ticket.source = %v, want %v", got, want)
	}
	if got, want := attrs["sift.ticket.force_p1"], true; got != want {
		t.Errorf("sift.ticket.force_p1 = %v, want %v", got, want)
	}
}
