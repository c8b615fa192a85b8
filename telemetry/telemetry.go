package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"bronson/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// Exporter ships one OTLP log record per completed housekeeping operation.
// A nil Exporter is a valid no-op, which is what New returns when no
// endpoint is configured.
type Exporter struct {
	provider *sdklog.LoggerProvider
	logger   otelLog.Logger
	timeout  time.Duration
	endpoint string
}

// New builds an Exporter from config. Returns (nil, nil) when export is not
// configured.
func New(cfg *config.Config) (*Exporter, error) {
	if cfg == nil {
		return nil, nil
	}
	endpoint := resolveEndpoint(cfg)
	if endpoint == "" {
		return nil, nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("otel endpoint must include scheme (http or https)")
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(endpoint)}
	if len(cfg.OtelHeaders) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.OtelHeaders))
	}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.OtelServiceName),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &Exporter{
		provider: provider,
		logger:   provider.Logger("bronson"),
		timeout:  cfg.OtelTimeout,
		endpoint: endpoint,
	}, nil
}

func resolveEndpoint(cfg *config.Config) string {
	if endpoint := strings.TrimSpace(cfg.OtelEndpoint); endpoint != "" {
		return endpoint
	}
	if !cfg.OtelFromEnv {
		return ""
	}
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")); endpoint != "" {
		return endpoint
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

// Endpoint returns the configured endpoint, empty for a no-op exporter.
func (e *Exporter) Endpoint() string {
	if e == nil {
		return ""
	}
	return e.endpoint
}

// EmitOperation records one completed operation: how many entries were
// found, how many were acted on, and how long the call took.
func (e *Exporter) EmitOperation(operation, directory string, found, affected int, duration time.Duration) {
	if e == nil || e.logger == nil {
		return
	}
	var record otelLog.Record
	record.SetTimestamp(time.Now())
	record.SetObservedTimestamp(time.Now())
	record.SetEventName("bronson.operation")
	record.SetBody(otelLog.StringValue(operation))
	record.AddAttributes(
		otelLog.String("operation", operation),
		otelLog.String("directory", directory),
		otelLog.Int("entries_found", found),
		otelLog.Int("entries_affected", affected),
		otelLog.Float64("duration_seconds", duration.Seconds()),
	)
	e.logger.Emit(context.Background(), record)
}

// Close flushes and shuts down the provider.
func (e *Exporter) Close() {
	if e == nil || e.provider == nil {
		return
	}
	timeout := e.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = e.provider.Shutdown(ctx)
}
