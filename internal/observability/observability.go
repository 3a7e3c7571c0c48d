// Package observability sets up process-wide logging and tracing for the CLI.
//
// Records always go to stderr through a text or JSON slog handler. When an
// exporter is selected they are additionally bridged to OpenTelemetry logs,
// and a trace provider is installed so session spans are exported too.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const instrumentationName = "github.com/artisanhosting/artisan-cli"

// Supported exporters.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlphttp"
	ExporterOTLPGRPC = "otlpgrpc"
)

// ShutdownFunc flushes and releases telemetry resources.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger and, with an exporter, the
// global OpenTelemetry logger and tracer providers. The returned ShutdownFunc
// must be called before exit so buffered records and spans are exported.
func Instrument(ctx context.Context, level slog.Level, format, exporter string) (ShutdownFunc, error) {
	return instrument(ctx, os.Stderr, os.Stdout, level, format, exporter)
}

// instrument writes local records to w and stdout exporter output to out.
func instrument(ctx context.Context, w, out io.Writer, level slog.Level, format, exporter string) (ShutdownFunc, error) {
	local, err := newLocalHandler(w, level, format)
	if err != nil {
		return nil, err
	}

	if exporter == "" || exporter == ExporterNone {
		slog.SetDefault(slog.New(local))
		return func(context.Context) error { return nil }, nil
	}

	logExporter, err := newLogExporter(ctx, exporter, out)
	if err != nil {
		return nil, fmt.Errorf("creating %s log exporter: %w", exporter, err)
	}
	spanExporter, err := newSpanExporter(ctx, exporter, out)
	if err != nil {
		return nil, fmt.Errorf("creating %s span exporter: %w", exporter, err)
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(logExporter), severity(level))
	loggerProvider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))
	global.SetLoggerProvider(loggerProvider)

	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(spanExporter))
	otel.SetTracerProvider(tracerProvider)

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		// Routed to the local handler only, an exporter failure must not loop back into itself.
		slog.New(local).Warn("telemetry error", "error", err)
	}))

	remote := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(loggerProvider))
	slog.SetDefault(slog.New(slogmulti.Fanout(local, remote)))

	return func(ctx context.Context) error {
		// Spans first: ending them may still log.
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			loggerProvider.Shutdown(ctx),
		)
	}, nil
}

func newLocalHandler(w io.Writer, level slog.Level, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

func newLogExporter(ctx context.Context, name string, out io.Writer) (sdklog.Exporter, error) {
	switch name {
	case ExporterStdout:
		return stdoutlog.New(stdoutlog.WithWriter(out))
	case ExporterOTLPHTTP:
		// Endpoint and headers come from the standard OTEL_EXPORTER_OTLP_* variables.
		return otlploghttp.New(ctx)
	case ExporterOTLPGRPC:
		return otlploggrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", name)
	}
}

func newSpanExporter(ctx context.Context, name string, out io.Writer) (sdktrace.SpanExporter, error) {
	switch name {
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(out))
	case ExporterOTLPHTTP:
		return otlptracehttp.New(ctx)
	case ExporterOTLPGRPC:
		return otlptracegrpc.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", name)
	}
}

// severity maps a slog level onto the closest OpenTelemetry severity.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
