package domain

import (
	"fmt"
	"time"
)

// Invocation describes one external process run.
type Invocation struct {
	// Name labels the invocation in logs and errors.
	Name string

	Command string
	Args    []string

	// Dir is the working directory.
	Dir string

	// Timeout bounds the wall-clock run time. Zero disables the bound.
	Timeout time.Duration
}

// ProcessResult is the structured outcome of an external process.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// StepFailure carries the diagnostic context of a failed build step.
type StepFailure struct {
	Step     string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Error implements error.
func (f *StepFailure) Error() string {
	return fmt.Sprintf("step %q exited with code %d", f.Step, f.ExitCode)
}

// Code returns the failing step's exit code.
func (f *StepFailure) Code() int {
	return f.ExitCode
}

// MatchResult is the verdict for one acceptance case.
type MatchResult struct {
	CaseID string

	Passed bool

	Expected ExpectedResult
	Actual   ProcessResult

	// Diff is a unified diff of expected and actual stdout, empty when they match.
	Diff string

	// Err is set when the invocation could not produce a result at all.
	Err error
}

// Report aggregates the verdicts of an acceptance run.
type Report struct {
	Results []MatchResult
}

// Passed reports whether every case matched. An empty report has not passed.
func (r Report) Passed() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failed returns the cases that did not match.
func (r Report) Failed() []MatchResult {
	var failed []MatchResult
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}
