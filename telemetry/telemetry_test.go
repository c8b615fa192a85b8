package telemetry

import (
	"testing"
	"time"

	"bronson/config"
)

func TestNewUnconfigured(t *testing.T) {
	exp, err := New(&config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp != nil {
		t.Fatal("expected nil exporter when no endpoint is configured")
	}

	exp, err = New(nil)
	if err != nil || exp != nil {
		t.Fatalf("nil config should be a no-op, got %v %v", exp, err)
	}
}

func TestNewRequiresScheme(t *testing.T) {
	_, err := New(&config.Config{OtelEndpoint: "collector:4318"})
	if err == nil {
		t.Fatal("expected error for schemeless endpoint")
	}
}

func TestNewFromEnvironment(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "http://collector:4318/v1/logs")

	// Fallback is opt-in.
	exp, err := New(&config.Config{})
	if err != nil || exp != nil {
		t.Fatalf("env fallback should require otel-from-env, got %v %v", exp, err)
	}

	exp, err = New(&config.Config{OtelFromEnv: true, OtelServiceName: "bronson", OtelTimeout: time.Second})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if exp == nil || exp.Endpoint() != "http://collector:4318/v1/logs" {
		t.Fatalf("expected env endpoint, got %v", exp.Endpoint())
	}
	exp.Close()
}

func TestExplicitEndpointBeatsEnvironment(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://from-env:4318")
	exp, err := New(&config.Config{
		OtelEndpoint: "http://explicit:4318",
		OtelFromEnv:  true,
		OtelTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if exp.Endpoint() != "http://explicit:4318" {
		t.Fatalf("expected explicit endpoint, got %s", exp.Endpoint())
	}
	exp.Close()
}

func TestNilExporterIsNoOp(t *testing.T) {
	var exp *Exporter
	if exp.Endpoint() != "" {
		t.Fatal("nil exporter should report an empty endpoint")
	}
	exp.EmitOperation("scan", "/tmp", 1, 0, time.Millisecond)
	exp.Close()
}
