package ports

import (
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// Renderer is the abstraction for pipeline output.
// It decouples telemetry collection from presentation.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Stop flushes any buffered output.
	Stop() error

	// OnPlanEmit is called once the ordered list of steps is known.
	OnPlanEmit(steps []string)

	// OnStepStart is called when a step begins.
	// spanID identifies this execution; parentID is empty for root spans.
	OnStepStart(spanID, parentID, name string, startTime time.Time)

	// OnStepLog is called when a step emits output. data may hold partial lines.
	OnStepLog(spanID string, data []byte)

	// OnStepComplete is called when a step finishes. err is nil on success.
	OnStepComplete(spanID string, endTime time.Time, err error)

	// OnReport is called with the verdicts of an acceptance run.
	OnReport(report domain.Report)
}
