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
	globalTracer = otel.Tracer("hirequiz")
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		globalTracer = otel.Tracer("hirequiz")
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceGenerationFunction starts a new span for a generation service function.
func TraceGenerationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "generation", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// AttributeQuestionType returns a tracing attribute for a question type.
func AttributeQuestionType(qType string) attribute.KeyValue {
	return attribute.String("question.type", qType)
}

// AttributeQuestionCount returns a tracing attribute for a requested question count.
func AttributeQuestionCount(count int) attribute.KeyValue {
	return attribute.Int("question.count", count)
}

// AttributeModel returns a tracing attribute for a model code.
func AttributeModel(model string) attribute.KeyValue {
	return attribute.String("ai.model", model)
}

// AttributeRequestID returns a tracing attribute for a generation request ID.
func AttributeRequestID(id string) attribute.KeyValue {
	return attribute.String("request.id", id)
}
