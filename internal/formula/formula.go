// Package formula holds the static recipe for building and verifying the
// analyzer: its dependencies, its build steps and its acceptance cases.
package formula

import (
	"embed"
	"path"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// JDK is the pinned JVM used to build the analyzer and compile Java fixtures.
	JDK = "openjdk@11"

	// ConfigureOptions is appended after --prefix in INFER_CONFIGURE_OPTS.
	ConfigureOptions = "--without-fcp-clang"
)

// AnalyzerFlags precede "--" and the wrapped compiler invocation.
var AnalyzerFlags = []string{"--fail-on-issue", "-P"}

//go:embed cases.yaml fixtures expected
var data embed.FS

var dependencies = []domain.DependencySpec{
	{Name: "autoconf", Phase: domain.PhaseBuild, Scope: domain.ScopeAll},
	{Name: "automake", Phase: domain.PhaseBuild, Scope: domain.ScopeAll},
	{Name: "cmake", Phase: domain.PhaseBuild, Scope: domain.ScopeAll},
	{Name: "libtool", Phase: domain.PhaseBuild, Scope: domain.ScopeAll},
	{Name: "ninja", Phase: domain.PhaseBuild, Scope: domain.ScopeAll},
	{Name: "opam", Phase: domain.PhaseBuild, Scope: domain.ScopeAll},
	{Name: "pkg-config", Phase: domain.PhaseBuild, Scope: domain.ScopeAll},
	{Name: "python@3.9", Phase: domain.PhaseBuild, Scope: domain.ScopeAll},
	{Name: JDK, Phase: domain.PhaseBuildAndTest, Scope: domain.ScopeAll},
	{Name: "gmp", Phase: domain.PhaseRuntime, Scope: domain.ScopeAll},
	{Name: "mpfr", Phase: domain.PhaseRuntime, Scope: domain.ScopeAll},
	{Name: "sqlite", Phase: domain.PhaseRuntime, Scope: domain.ScopeAll},
	{Name: "m4", Phase: domain.PhaseBuild, Scope: domain.ScopeLinux},
	{Name: "unzip", Phase: domain.PhaseBuild, Scope: domain.ScopeLinux},
	{Name: "libedit", Phase: domain.PhaseRuntime, Scope: domain.ScopeLinux},
	{Name: "libffi", Phase: domain.PhaseRuntime, Scope: domain.ScopeLinux},
	{Name: "libxml2", Phase: domain.PhaseRuntime, Scope: domain.ScopeLinux},
	{Name: "ncurses", Phase: domain.PhaseRuntime, Scope: domain.ScopeLinux},
	{Name: "xz", Phase: domain.PhaseRuntime, Scope: domain.ScopeLinux},
	{Name: "zlib", Phase: domain.PhaseRuntime, Scope: domain.ScopeLinux},
	{Name: domain.PathRewriteTool, Phase: domain.PhaseBuild, Scope: domain.ScopeLinux},
	{Name: "elfutils", Phase: domain.PhaseRuntime, Scope: domain.ScopeLinux},
}

// Dependencies returns the declared dependency list in declaration order.
func Dependencies() []domain.DependencySpec {
	out := make([]domain.DependencySpec, len(dependencies))
	copy(out, dependencies)
	return out
}

// Steps returns the ordered install steps.
func Steps() []domain.BuildStep {
	return []domain.BuildStep{
		{
			Name:    "opam init",
			Command: "opam",
			Args:    []string{"init", "--no-setup", "--disable-sandboxing"},
		},
		{
			Name:   "release marker",
			Marker: domain.ReleaseMarker,
		},
		{
			Name:    domain.BuildScript,
			Command: "./" + domain.BuildScript,
			Args:    []string{"all", "--yes"},
			Patch: &domain.Patch{
				File:  domain.BuildScript,
				Old:   `infer "$INFER_ROOT" $locked`,
				New:   `infer "$INFER_ROOT" $locked --no-depexts`,
				Scope: domain.ScopeLinux,
			},
		},
		{
			Name:    "make install-with-libs",
			Command: "make",
			Args:    []string{"install-with-libs"},
		},
	}
}

type caseEntry struct {
	ID       string   `yaml:"id"`
	Fixture  string   `yaml:"fixture"`
	Compiler []string `yaml:"compiler"`
	ExitCode int      `yaml:"exit_code"`
}

// Cases loads the acceptance cases with their fixtures and expected output.
func Cases() ([]domain.Case, error) {
	raw, err := data.ReadFile("cases.yaml")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrFixtureNotFound.Error())
	}

	var entries []caseEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, zerr.Wrap(err, "failed to parse acceptance cases")
	}

	cases := make([]domain.Case, 0, len(entries))
	for _, e := range entries {
		c, err := loadCase(e)
		if err != nil {
			return nil, zerr.With(err, "case", e.ID)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func loadCase(e caseEntry) (domain.Case, error) {
	source, err := data.ReadFile(path.Join("fixtures", e.Fixture))
	if err != nil {
		return domain.Case{}, zerr.With(domain.ErrFixtureNotFound, "fixture", e.Fixture)
	}
	expected, err := data.ReadFile(path.Join("expected", e.Fixture+".txt"))
	if err != nil {
		return domain.Case{}, zerr.With(domain.ErrFixtureNotFound, "expected", e.Fixture+".txt")
	}

	return domain.Case{
		ID: e.ID,
		Fixture: domain.Fixture{
			Language: languageOf(e.Fixture),
			Filename: e.Fixture,
			Source:   string(source),
		},
		Compiler: e.Compiler,
		Expected: domain.ExpectedResult{
			Stdout:   string(expected),
			ExitCode: e.ExitCode,
		},
	}, nil
}

func languageOf(filename string) domain.Language {
	return domain.Language(strings.TrimPrefix(path.Ext(filename), "."))
}
