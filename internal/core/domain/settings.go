package domain

import (
	"path/filepath"
	"time"
)

const (
	// DefaultTestTimeout bounds each acceptance invocation.
	DefaultTestTimeout = 10 * time.Minute

	// DefaultTestConcurrency is the number of acceptance invocations run at once.
	DefaultTestConcurrency = 4
)

// Settings is the resolved configuration of a pipeline run.
type Settings struct {
	// SourceDir is the analyzer's source checkout.
	SourceDir string

	// Prefix is the install prefix handed to the analyzer's configure step.
	Prefix string

	// Analyzer overrides the installed binary path. Empty means <Prefix>/bin/infer.
	Analyzer string

	// OptRoot holds one directory per installed dependency. Empty means the
	// platform default from Strategy.OptRoot.
	OptRoot string

	// Locations overrides the install location of individual dependencies.
	Locations map[string]string

	// Jobs overrides the parallelism hint. Zero means host core count.
	Jobs int

	// StepTimeout bounds each build step. Zero disables the bound.
	StepTimeout time.Duration

	// TestTimeout bounds each acceptance invocation. Zero disables the bound.
	TestTimeout time.Duration

	// TestConcurrency caps concurrent acceptance invocations.
	TestConcurrency int
}

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		SourceDir:       ".",
		Prefix:          DefaultPrefix,
		Locations:       map[string]string{},
		TestTimeout:     DefaultTestTimeout,
		TestConcurrency: DefaultTestConcurrency,
	}
}

// AnalyzerPath returns the path of the installed analyzer binary.
func (s Settings) AnalyzerPath() string {
	if s.Analyzer != "" {
		return s.Analyzer
	}
	return filepath.Join(s.Prefix, "bin", AnalyzerBinary)
}

// WorkDir returns the directory that holds per-run state.
func (s Settings) WorkDir() string {
	return filepath.Join(s.SourceDir, WorkDirName)
}

// Locate returns the install location of a dependency.
func (s Settings) Locate(name string) string {
	if loc, ok := s.Locations[name]; ok && loc != "" {
		return loc
	}
	return filepath.Join(s.OptRoot, name)
}
