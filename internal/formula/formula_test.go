package formula_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/formula"
)

func TestCases(t *testing.T) {
	cases, err := formula.Cases()
	require.NoError(t, err)
	require.Len(t, cases, 4)

	byID := make(map[string]domain.Case, len(cases))
	for _, c := range cases {
		byID[c.ID] = c
	}

	cFail := byID["c/fail"]
	assert.Equal(t, domain.LanguageC, cFail.Fixture.Language)
	assert.Equal(t, "FailingTest.c", cFail.Fixture.Filename)
	assert.Equal(t, []string{"clang", "-c"}, cFail.Compiler)
	assert.Equal(t, 2, cFail.Expected.ExitCode)
	assert.Contains(t, cFail.Fixture.Source, "*s = 42;")
	assert.True(t, strings.HasPrefix(cFail.Expected.Stdout, "\nFailingTest.c:5: error: Null Dereference\n"))
	assert.Contains(t, cFail.Expected.Stdout, "\n       ^\n")
	assert.True(t, strings.HasSuffix(cFail.Expected.Stdout, "  Null Dereference(NULL_DEREFERENCE): 1\n"))

	javaFail := byID["java/fail"]
	assert.Equal(t, domain.LanguageJava, javaFail.Fixture.Language)
	assert.Equal(t, []string{"javac"}, javaFail.Compiler)
	assert.Contains(t, javaFail.Expected.Stdout, "  12. >     return s.length();\n")

	for _, id := range []string{"c/pass", "java/pass"} {
		assert.Equal(t, "\n  No issues found  \n", byID[id].Expected.Stdout, id)
		assert.Equal(t, 0, byID[id].Expected.ExitCode, id)
	}
	assert.Contains(t, byID["java/pass"].Fixture.Source, "return s == null ? 0 : s.length();")
}

func TestDependencies(t *testing.T) {
	deps := formula.Dependencies()
	require.Len(t, deps, 22)

	assert.Equal(t, domain.DependencySpec{Name: "autoconf", Phase: domain.PhaseBuild, Scope: domain.ScopeAll}, deps[0])

	var linuxOnly []string
	for _, d := range deps {
		if d.Scope == domain.ScopeLinux {
			linuxOnly = append(linuxOnly, d.Name)
		}
	}
	assert.Equal(t, []string{
		"m4", "unzip", "libedit", "libffi", "libxml2", "ncurses", "xz", "zlib", "patchelf", "elfutils",
	}, linuxOnly)

	deps[0].Name = "mutated"
	assert.Equal(t, "autoconf", formula.Dependencies()[0].Name)
}

func TestSteps(t *testing.T) {
	steps := formula.Steps()
	require.Len(t, steps, 4)

	assert.Equal(t, "opam init --no-setup --disable-sandboxing", steps[0].CommandLine())
	assert.True(t, steps[1].IsMarker())
	assert.Equal(t, ".release", steps[1].Marker)
	assert.Equal(t, "./build-infer.sh all --yes", steps[2].CommandLine())
	assert.Equal(t, "make install-with-libs", steps[3].CommandLine())

	patch := steps[2].Patch
	require.NotNil(t, patch)
	assert.Equal(t, domain.ScopeLinux, patch.Scope)

	script := "opam_require\n  infer \"$INFER_ROOT\" $locked\n"
	patched, changed, err := patch.Apply(script)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "opam_require\n  infer \"$INFER_ROOT\" $locked --no-depexts\n", patched)
}
