// Package shell runs external processes for the build and acceptance phases.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long Wait keeps draining pipes after the process
// group has been killed.
const waitDelay = 2 * time.Second

// Runner implements ports.ProcessRunner using os/exec.
type Runner struct{}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run starts inv with exactly the plan's environment and waits for it.
// Stdout and stderr are captured separately and, when live is non-nil, also
// copied to live as they arrive. A nonzero exit is reported through the
// result's ExitCode with a nil error; errors are reserved for processes that
// could not start, timed out or were interrupted.
func (r *Runner) Run(
	ctx context.Context,
	inv domain.Invocation,
	plan domain.EnvironmentPlan,
	live io.Writer,
) (domain.ProcessResult, error) {
	env := plan.Environ()

	executable, err := resolveExecutable(inv.Command, inv.Dir, env)
	if err != nil {
		return domain.ProcessResult{}, errors.Join(
			domain.ErrDependencyMissing,
			zerr.With(zerr.Wrap(err, "executable not found"), "command", inv.Command),
		)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(executable, inv.Args...) //nolint:gosec // commands come from the build formula
	cmd.Args[0] = inv.Command
	cmd.Dir = inv.Dir
	cmd.Env = env
	cmd.WaitDelay = waitDelay
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if live != nil {
		shared := &syncWriter{w: live}
		cmd.Stdout = io.MultiWriter(&stdout, shared)
		cmd.Stderr = io.MultiWriter(&stderr, shared)
	}
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return domain.ProcessResult{}, errors.Join(
			domain.ErrProcessStartFailed,
			zerr.With(zerr.Wrap(err, "exec"), "command", inv.Command),
		)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timeout <-chan time.Time
	if inv.Timeout > 0 {
		timer := time.NewTimer(inv.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var runErr error
	select {
	case waitErr := <-done:
		runErr = classifyWait(waitErr)
	case <-timeout:
		killProcessGroup(cmd)
		<-done
		runErr = errors.Join(
			domain.ErrStepTimeout,
			zerr.With(zerr.New("killed after timeout"), "timeout", inv.Timeout.String()),
		)
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		runErr = zerr.Wrap(ctx.Err(), "process interrupted")
	}

	result := domain.ProcessResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd),
		Duration: time.Since(start),
	}
	return result, runErr
}

// classifyWait drops exit-status errors, which are data, and keeps I/O errors.
func classifyWait(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return zerr.Wrap(err, "failed to collect process output")
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// resolveExecutable finds name on the plan's PATH. Names containing a path
// separator are resolved against dir instead.
func resolveExecutable(name, dir string, env []string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		path := name
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		if err := findExecutable(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return lookPath(name, env)
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

// syncWriter serializes the stdout and stderr copy goroutines onto one writer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
