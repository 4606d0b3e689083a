// Package config loads kiln.yaml into domain settings.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a Loader reading from the host filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load reads the file at path and overlays it on domain.DefaultSettings.
// A missing file is not an error; the defaults are returned with a warning.
// Relative paths in the file are resolved against the file's directory.
func (l *Loader) Load(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := l.FS.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.Logger.Warn("no " + filepath.Base(path) + " found, using defaults")
		return settings, nil
	}
	if err != nil {
		return settings, errors.Join(domain.ErrConfigReadFailed, zerr.With(err, "path", path))
	}

	var file Kilnfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return settings, errors.Join(domain.ErrConfigParseFailed, zerr.With(err, "path", path))
	}

	if err := apply(&settings, &file, filepath.Dir(path)); err != nil {
		return settings, zerr.With(err, "path", path)
	}
	return settings, nil
}

func apply(s *domain.Settings, f *Kilnfile, base string) error {
	if f.Source != "" {
		s.SourceDir = rebase(base, f.Source)
	}
	if f.Prefix != "" {
		s.Prefix = rebase(base, f.Prefix)
	}
	if f.Analyzer != "" {
		s.Analyzer = rebase(base, f.Analyzer)
	}
	if f.OptRoot != "" {
		s.OptRoot = rebase(base, f.OptRoot)
	}
	for name, loc := range f.Locations {
		s.Locations[name] = rebase(base, loc)
	}

	if f.Jobs < 0 {
		return zerr.With(domain.ErrInvalidJobs, "jobs", strconv.Itoa(f.Jobs))
	}
	s.Jobs = f.Jobs

	if f.ParallelTests < 0 {
		return zerr.With(domain.ErrInvalidJobs, "parallel_tests", strconv.Itoa(f.ParallelTests))
	}
	if f.ParallelTests > 0 {
		s.TestConcurrency = f.ParallelTests
	}

	var err error
	if s.StepTimeout, err = parseTimeout("timeouts.step", f.Timeouts.Step, s.StepTimeout); err != nil {
		return err
	}
	if s.TestTimeout, err = parseTimeout("timeouts.test", f.Timeouts.Test, s.TestTimeout); err != nil {
		return err
	}
	return nil
}

func parseTimeout(key, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, errors.Join(domain.ErrInvalidTimeout, zerr.With(zerr.New("bad duration"), key, raw))
	}
	return d, nil
}

func rebase(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
