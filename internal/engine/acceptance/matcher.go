package acceptance

import (
	"github.com/pmezard/go-difflib/difflib"
	"go.trai.ch/kiln/internal/core/domain"
)

// Match compares one invocation outcome against its case's expectation.
// Stdout must match byte for byte; nothing is trimmed or normalized.
// runErr marks an invocation that never produced a result.
func Match(c domain.Case, actual domain.ProcessResult, runErr error) domain.MatchResult {
	res := domain.MatchResult{
		CaseID:   c.ID,
		Expected: c.Expected,
		Actual:   actual,
	}
	if runErr != nil {
		res.Err = runErr
		return res
	}

	stdoutOK := actual.Stdout == c.Expected.Stdout
	res.Passed = stdoutOK && actual.ExitCode == c.Expected.ExitCode
	if !stdoutOK {
		res.Diff = Diff(c.Expected.Stdout, actual.Stdout)
	}
	return res
}

// Diff returns a unified diff from expected to actual.
func Diff(expected, actual string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
