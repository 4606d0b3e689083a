// Package sequencer runs the install steps in order under one environment plan.
package sequencer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options parameterize a sequence run.
type Options struct {
	// SourceDir is the working directory of steps without their own Dir.
	SourceDir string

	// StepTimeout bounds every process step. Zero disables the bound.
	StepTimeout time.Duration

	Strategy domain.Strategy
}

// Sequencer executes build steps fail-fast. There is no retry and no rollback.
type Sequencer struct {
	runner ports.ProcessRunner
	tracer ports.Tracer
	logger ports.Logger
}

// New creates a Sequencer.
func New(runner ports.ProcessRunner, tracer ports.Tracer, logger ports.Logger) *Sequencer {
	return &Sequencer{runner: runner, tracer: tracer, logger: logger}
}

// Run executes steps in order. The first failing step aborts the rest; a
// nonzero exit is reported as ErrBuildStepFailed joined with a
// *domain.StepFailure carrying the captured output.
func (s *Sequencer) Run(
	ctx context.Context,
	steps []domain.BuildStep,
	plan domain.EnvironmentPlan,
	opts Options,
) error {
	names := make([]string, len(steps))
	for i, step := range steps {
		names[i] = step.Name
	}
	s.tracer.EmitPlan(ctx, names)

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return zerr.Wrap(err, "install interrupted")
		}
		if err := s.runStep(ctx, step, plan, opts); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) runStep(
	ctx context.Context,
	step domain.BuildStep,
	plan domain.EnvironmentPlan,
	opts Options,
) error {
	ctx, span := s.tracer.Start(ctx, step.Name)
	defer span.End()

	span.SetAttribute("kiln.command", step.CommandLine())

	dir := stepDir(step, opts.SourceDir)

	if step.Patch != nil && opts.Strategy.Matches(step.Patch.Scope) {
		changed, err := applyPatch(dir, *step.Patch)
		if err != nil {
			span.RecordError(err)
			return zerr.Wrap(err, "step "+step.Name)
		}
		if changed {
			s.logger.Info("patched " + step.Patch.File)
		}
	}

	if step.IsMarker() {
		if err := touch(filepath.Join(dir, step.Marker)); err != nil {
			span.RecordError(err)
			return zerr.Wrap(err, "step "+step.Name)
		}
		return nil
	}

	res, err := s.runner.Run(ctx, domain.Invocation{
		Name:    step.Name,
		Command: step.Command,
		Args:    step.Args,
		Dir:     dir,
		Timeout: opts.StepTimeout,
	}, plan, span)
	if err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, "step "+step.Name)
	}

	span.SetAttribute("kiln.exit_code", res.ExitCode)
	if res.ExitCode != 0 {
		failure := &domain.StepFailure{
			Step:     step.Name,
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
		span.RecordError(failure)
		return errors.Join(domain.ErrBuildStepFailed, failure)
	}
	return nil
}

func stepDir(step domain.BuildStep, sourceDir string) string {
	switch {
	case step.Dir == "":
		return sourceDir
	case filepath.IsAbs(step.Dir):
		return step.Dir
	default:
		return filepath.Join(sourceDir, step.Dir)
	}
}

// applyPatch rewrites the patch target in place, keeping its mode.
func applyPatch(dir string, patch domain.Patch) (bool, error) {
	path := filepath.Join(dir, patch.File)

	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Join(domain.ErrPatchReadFailed, zerr.With(err, "file", path))
	}
	content, err := os.ReadFile(path) //nolint:gosec // path comes from the build formula
	if err != nil {
		return false, errors.Join(domain.ErrPatchReadFailed, zerr.With(err, "file", path))
	}

	patched, changed, err := patch.Apply(string(content))
	if err != nil {
		return false, errors.Join(err, zerr.With(zerr.New("patch not applicable"), "file", path))
	}
	if !changed {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		return false, errors.Join(domain.ErrPatchWriteFailed, zerr.With(err, "file", path))
	}
	return true, nil
}

// touch creates path if missing and bumps its modification time.
func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, domain.FilePerm) //nolint:gosec // marker path is fixed
	if err != nil {
		return errors.Join(domain.ErrMarkerWriteFailed, zerr.With(err, "file", path))
	}
	if err := f.Close(); err != nil {
		return errors.Join(domain.ErrMarkerWriteFailed, zerr.With(err, "file", path))
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return errors.Join(domain.ErrMarkerWriteFailed, zerr.With(err, "file", path))
	}
	return nil
}
