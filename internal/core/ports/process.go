// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

// ProcessRunner runs one external process and captures its outcome.
//
//go:generate mockgen -source=process.go -destination=mocks/mock_process.go -package=mocks
type ProcessRunner interface {
	// Run executes inv with exactly the variables in plan.
	//
	// A process that ran to completion yields a result and a nil error, whatever
	// its exit code. An error is returned only when the process could not be
	// started or was killed for exceeding inv.Timeout.
	//
	// When live is non-nil, stdout and stderr are copied to it as they arrive.
	Run(ctx context.Context, inv domain.Invocation, plan domain.EnvironmentPlan, live io.Writer) (domain.ProcessResult, error)
}
