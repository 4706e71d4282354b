package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer("translator-app")
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		// Fallback to default tracer if not initialized
		globalTracer = otel.Tracer("translator-app")
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceTranslationFunction starts a new span for a translation pipeline function.
func TraceTranslationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "translation", functionName, attributes...)
}

// TraceDetectionFunction starts a new span for a language detection function.
func TraceDetectionFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "detection", functionName, attributes...)
}

// TraceDocumentFunction starts a new span for a document reader/writer function.
func TraceDocumentFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "document", functionName, attributes...)
}

// TraceModelCacheFunction starts a new span for a model cache function.
func TraceModelCacheFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "modelcache", functionName, attributes...)
}

// TraceSessionFunction starts a new span for an incremental session function.
func TraceSessionFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "session", functionName, attributes...)
}

// TraceCleanupFunction starts a new span for a cleanup service function.
func TraceCleanupFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "cleanup", functionName, attributes...)
}

// AttributeLanguagePair returns a tracing attribute for a language pair.
func AttributeLanguagePair(pair string) attribute.KeyValue {
	return attribute.String("translation.pair", pair)
}

// AttributeLanguage returns a tracing attribute for a language.
func AttributeLanguage(lang string) attribute.KeyValue {
	return attribute.String("language", lang)
}

// AttributeUnitCount returns a tracing attribute for a translation unit count.
func AttributeUnitCount(n int) attribute.KeyValue {
	return attribute.Int("translation.unit_count", n)
}

// AttributeBatchCount returns a tracing attribute for a batch count.
func AttributeBatchCount(n int) attribute.KeyValue {
	return attribute.Int("translation.batch_count", n)
}

// AttributeDocumentFormat returns a tracing attribute for a document format.
func AttributeDocumentFormat(format string) attribute.KeyValue {
	return attribute.String("document.format", format)
}

// AttributeArtifact returns a tracing attribute for an artifact filename.
func AttributeArtifact(filename string) attribute.KeyValue {
	return attribute.String("artifact.filename", filename)
}
