// Package acceptance runs the analyzer against known fixtures and judges its output.
package acceptance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/formula"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Options parameterize an acceptance run.
type Options struct {
	// Analyzer is the installed analyzer binary.
	Analyzer string

	// WorkDir receives a fresh run directory holding one subdirectory per case.
	WorkDir string

	// Timeout bounds each invocation. Zero disables the bound.
	Timeout time.Duration

	// Concurrency caps simultaneous invocations. Zero or less means one.
	Concurrency int
}

// Runner invokes the analyzer once per case.
type Runner struct {
	runner ports.ProcessRunner
	tracer ports.Tracer
}

// NewRunner creates a Runner.
func NewRunner(runner ports.ProcessRunner, tracer ports.Tracer) *Runner {
	return &Runner{runner: runner, tracer: tracer}
}

// Run materializes every fixture and judges each case under plan. Each case
// runs in its own directory, since the analyzer keeps its results under the
// working directory. A case
// whose invocation cannot start is recorded as failed without stopping its
// siblings. The error return is reserved for setup failures.
func (r *Runner) Run(
	ctx context.Context,
	cases []domain.Case,
	plan domain.EnvironmentPlan,
	opts Options,
) (domain.Report, error) {
	if err := checkAnalyzer(opts.Analyzer); err != nil {
		return domain.Report{}, err
	}

	dirs, err := materialize(cases, opts.WorkDir)
	if err != nil {
		return domain.Report{}, err
	}

	names := make([]string, len(cases))
	for i, c := range cases {
		names[i] = c.ID
	}
	r.tracer.EmitPlan(ctx, names)

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	results := make([]domain.MatchResult, len(cases))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, c := range cases {
		g.Go(func() error {
			results[i] = r.runCase(ctx, c, dirs[i], plan, opts)
			return nil
		})
	}
	_ = g.Wait()

	return domain.Report{Results: results}, nil
}

func (r *Runner) runCase(
	ctx context.Context,
	c domain.Case,
	dir string,
	plan domain.EnvironmentPlan,
	opts Options,
) domain.MatchResult {
	ctx, span := r.tracer.Start(ctx, c.ID)
	defer span.End()

	args := make([]string, 0, len(formula.AnalyzerFlags)+len(c.Compiler)+2)
	args = append(args, formula.AnalyzerFlags...)
	args = append(args, "--")
	args = append(args, c.Compiler...)
	args = append(args, c.Fixture.Filename)

	res, err := r.runner.Run(ctx, domain.Invocation{
		Name:    c.ID,
		Command: opts.Analyzer,
		Args:    args,
		Dir:     dir,
		Timeout: opts.Timeout,
	}, plan, span)

	result := Match(c, res, err)
	span.SetAttribute("kiln.exit_code", res.ExitCode)
	if !result.Passed {
		if result.Err != nil {
			span.RecordError(result.Err)
		} else {
			span.RecordError(zerr.With(domain.ErrOutputMismatch, "case", c.ID))
		}
	}
	return result
}

func checkAnalyzer(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Join(domain.ErrAnalyzerNotFound, zerr.With(err, "path", path))
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return errors.Join(domain.ErrAnalyzerNotFound, zerr.With(zerr.New("not executable"), "path", path))
	}
	return nil
}

// materialize creates a new run directory under workDir and writes each
// case's fixture into a subdirectory of its own. The returned directories
// are indexed like cases.
func materialize(cases []domain.Case, workDir string) ([]string, error) {
	if err := os.MkdirAll(workDir, domain.DirPerm); err != nil {
		return nil, errors.Join(domain.ErrFixtureWriteFailed, zerr.With(err, "dir", workDir))
	}
	root, err := os.MkdirTemp(workDir, "acceptance-*")
	if err != nil {
		return nil, errors.Join(domain.ErrFixtureWriteFailed, zerr.With(err, "dir", workDir))
	}

	dirs := make([]string, len(cases))
	for i, c := range cases {
		dir := filepath.Join(root, caseDirName(c.ID))
		if err := os.Mkdir(dir, domain.DirPerm); err != nil {
			return nil, errors.Join(domain.ErrFixtureWriteFailed, zerr.With(err, "case", c.ID))
		}
		path := filepath.Join(dir, c.Fixture.Filename)
		if err := os.WriteFile(path, []byte(c.Fixture.Source), domain.FilePerm); err != nil {
			return nil, errors.Join(domain.ErrFixtureWriteFailed, zerr.With(err, "fixture", c.Fixture.Filename))
		}
		dirs[i] = dir
	}
	return dirs, nil
}

// caseDirName flattens a case id such as "java/pass" into one path element.
func caseDirName(id string) string {
	return strings.ReplaceAll(id, "/", "-")
}
