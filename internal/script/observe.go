package script

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("convoconnect-script")

// observe runs a single provider call inside a span, logs the outcome for
// operators and collapses any failure into a GenerationError.
func observe(ctx context.Context, provider, model, topic string, call func(ctx context.Context) (string, error)) (string, error) {
	ctx, span := tracer.Start(ctx, "script.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.Int("topic_length", len(topic)),
	)

	start := time.Now()
	text, err := call(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		slog.ErrorContext(ctx, "Error generating script", "provider", provider, "model", model, "elapsed", elapsed, "error", err)
		return "", newGenerationError(provider, err)
	}

	span.SetAttributes(attribute.Int("script_length", len(text)))
	slog.InfoContext(ctx, "Script generated", "provider", provider, "model", model, "elapsed", elapsed, "chars", len(text))
	return text, nil
}
