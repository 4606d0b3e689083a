package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestReport_Passed(t *testing.T) {
	assert.False(t, domain.Report{}.Passed(), "empty report must not pass")

	ok := domain.Report{Results: []domain.MatchResult{{CaseID: "a", Passed: true}, {CaseID: "b", Passed: true}}}
	assert.True(t, ok.Passed())
	assert.Empty(t, ok.Failed())

	mixed := domain.Report{Results: []domain.MatchResult{{CaseID: "a", Passed: true}, {CaseID: "b"}}}
	assert.False(t, mixed.Passed())
	assert.Len(t, mixed.Failed(), 1)
	assert.Equal(t, "b", mixed.Failed()[0].CaseID)
}

func TestStepFailure(t *testing.T) {
	var err error = errors.Join(domain.ErrBuildStepFailed, &domain.StepFailure{Step: "make", ExitCode: 2})

	var failure *domain.StepFailure
	assert.True(t, errors.As(err, &failure))
	assert.Equal(t, 2, failure.Code())
	assert.ErrorIs(t, err, domain.ErrBuildStepFailed)
	assert.Contains(t, err.Error(), `step "make" exited with code 2`)
}
