package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
	// EmitPlan signals the ordered set of steps about to run.
	EmitPlan(ctx context.Context, steps []string)
}

// Span represents a unit of work. Writes are treated as the unit's output.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError marks the span as failed.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}
