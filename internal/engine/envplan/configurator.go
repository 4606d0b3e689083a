// Package envplan computes the environment every build and test process runs under.
package envplan

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/deps"
	"go.trai.ch/kiln/internal/formula"
	"go.trai.ch/zerr"
)

// packageRootPrefix names the per-run opam root directories.
const packageRootPrefix = "opamroot-"

// AmbientAllowList are the host variables a plan inherits.
var AmbientAllowList = []string{"HOME", "USER", "TERM", "PATH", "LANG", "LC_ALL", "TMPDIR"}

// Locator maps a dependency name to its install location.
type Locator interface {
	Locate(name string) string
}

// Input is everything the plan is derived from.
type Input struct {
	// Dependencies are the resolved dependencies for this platform.
	Dependencies []domain.DependencySpec

	Locator  Locator
	Strategy domain.Strategy

	// Prefix is the analyzer's install prefix.
	Prefix string

	// WorkDir receives the per-run package manager root.
	WorkDir string

	// Jobs is the parallelism hint. Zero or less means one per host core.
	Jobs int

	// Ambient is the host environment in os.Environ form.
	Ambient []string

	// Preview computes the plan without creating anything on disk.
	Preview bool
}

// Configure builds the plan for in. The only failure it reports is the
// package manager root not being creatable.
func Configure(in Input) (domain.EnvironmentPlan, error) {
	vars := filterAmbient(in.Ambient)

	opamRoot, err := packageRoot(in.WorkDir, in.Preview)
	if err != nil {
		return domain.EnvironmentPlan{}, err
	}

	jobs := in.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	vars["JAVA_HOME"] = in.Locator.Locate(formula.JDK)
	vars["OPAMROOT"] = opamRoot
	vars["OPAMYES"] = "1"
	vars["OPAMVERBOSE"] = "1"
	vars["INFER_CONFIGURE_OPTS"] = "--prefix=" + in.Prefix + " " + formula.ConfigureOptions
	vars["JOBS"] = strconv.Itoa(jobs)

	if tool, ok := in.Strategy.PathRewriteTool(); ok {
		vars["PATCHELF"] = filepath.Join(in.Locator.Locate(tool), "bin", tool)
	}

	vars["PATH"] = buildPath(in.Dependencies, in.Locator, vars["PATH"])

	return domain.NewEnvironmentPlan(vars), nil
}

// TestPlan derives the acceptance plan: JAVA_HOME set to javaHome and its
// bin directory appended to PATH.
func TestPlan(base domain.EnvironmentPlan, javaHome string) domain.EnvironmentPlan {
	return base.
		With(map[string]string{"JAVA_HOME": javaHome}).
		WithPathAppended(filepath.Join(javaHome, "bin"))
}

// Ambient returns the allow-listed part of env as a plan of its own.
func Ambient(env []string) domain.EnvironmentPlan {
	return domain.NewEnvironmentPlan(filterAmbient(env))
}

func filterAmbient(env []string) map[string]string {
	vars := make(map[string]string, len(AmbientAllowList))
	for _, entry := range env {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		for _, allowed := range AmbientAllowList {
			if k == allowed {
				vars[k] = v
				break
			}
		}
	}
	return vars
}

// buildPath prepends the bin directory of every build-time dependency, in
// declaration order, to the ambient PATH.
func buildPath(specs []domain.DependencySpec, loc Locator, ambient string) string {
	tools := deps.BuildTools(specs)
	parts := make([]string, 0, len(tools)+1)
	for _, spec := range tools {
		parts = append(parts, filepath.Join(loc.Locate(spec.Name), "bin"))
	}
	if ambient != "" {
		parts = append(parts, ambient)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

func packageRoot(workDir string, preview bool) (string, error) {
	if preview {
		return filepath.Join(workDir, packageRootPrefix+"XXXXXX"), nil
	}

	if err := os.MkdirAll(workDir, domain.DirPerm); err != nil {
		return "", errors.Join(domain.ErrPackageRootCreateFailed, zerr.With(err, "dir", workDir))
	}
	dir, err := os.MkdirTemp(workDir, packageRootPrefix+"*")
	if err != nil {
		return "", errors.Join(domain.ErrPackageRootCreateFailed, zerr.With(err, "dir", workDir))
	}
	return dir, nil
}
