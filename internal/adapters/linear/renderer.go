// Package linear provides a synchronous, line-buffered renderer for CI logs.
package linear

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

const reportPrefix = "[acceptance]"

// Renderer implements ports.Renderer with chronological, step-prefixed lines.
// Step output goes to stdout; lifecycle messages go to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	steps   map[string]*stepState // spanID -> step state
	buffers map[string]*bytes.Buffer
}

type stepState struct {
	name      string
	startTime time.Time
}

// NewRenderer creates a new Renderer. Nil writers default to the process streams.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.NewWithProfile(stderr, output.ColorProfileANSI),
		steps:   make(map[string]*stepState),
		buffers: make(map[string]*bytes.Buffer),
	}
}

// Stop flushes all remaining buffers.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}
	return nil
}

// OnPlanEmit prints the ordered steps about to run.
func (r *Renderer) OnPlanEmit(steps []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Planning %d step(s): %s\n", len(steps), strings.Join(steps, ", "))
}

// OnStepStart prints a step start message.
func (r *Renderer) OnStepStart(spanID, _ /* parentID */, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.steps[spanID] = &stepState{name: name, startTime: startTime}
	r.buffers[spanID] = new(bytes.Buffer)

	prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
}

// OnStepLog buffers data and prints complete lines with the step prefix.
func (r *Renderer) OnStepLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	step, ok := r.steps[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		line, err := buf.ReadBytes('\n')
		if err != nil {
			// Incomplete line, keep it for the next write.
			rest := new(bytes.Buffer)
			rest.Write(line)
			r.buffers[spanID] = rest
			break
		}
		r.printLineLocked(step.name, line)
	}
}

// OnStepComplete flushes the remaining buffer and prints the outcome.
func (r *Renderer) OnStepComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	step, ok := r.steps[spanID]
	if !ok {
		return
	}

	r.flushBufferLocked(spanID)

	duration := endTime.Sub(step.startTime)
	prefix := fmt.Sprintf("[%s]", step.name)

	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, r.cross(), duration, err)
	} else {
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, r.check(), duration)
	}

	delete(r.steps, spanID)
	delete(r.buffers, spanID)
}

// OnReport prints one verdict line per case, the diff of every mismatch and a
// closing tally.
func (r *Renderer) OnReport(report domain.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, res := range report.Results {
		if res.Passed {
			_, _ = fmt.Fprintf(r.stdout, "%s %s %s\n", reportPrefix, r.check(), res.CaseID)
			continue
		}

		_, _ = fmt.Fprintf(r.stdout, "%s %s %s: %s\n", reportPrefix, r.cross(), res.CaseID, describeFailure(res))
		if res.Diff == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(res.Diff, "\n"), "\n") {
			_, _ = fmt.Fprintf(r.stdout, "    %s\n", line)
		}
	}

	passed := len(report.Results) - len(report.Failed())
	_, _ = fmt.Fprintf(r.stdout, "%d of %d case(s) passed\n", passed, len(report.Results))
}

func describeFailure(res domain.MatchResult) string {
	if res.Err != nil {
		return res.Err.Error()
	}

	var reasons []string
	if res.Actual.ExitCode != res.Expected.ExitCode {
		reasons = append(reasons, fmt.Sprintf("exit code %d, want %d", res.Actual.ExitCode, res.Expected.ExitCode))
	}
	if res.Actual.Stdout != res.Expected.Stdout {
		reasons = append(reasons, "stdout differs")
	}
	if len(reasons) == 0 {
		return "mismatch"
	}
	return strings.Join(reasons, "; ")
}

func (r *Renderer) check() string {
	return r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
}

func (r *Renderer) cross() string {
	return r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
}

// flushBufferLocked prints any partial line left for a step.
// Must be called with r.mu held.
func (r *Renderer) flushBufferLocked(spanID string) {
	step, ok := r.steps[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(step.name, buf.Bytes())
		buf.Reset()
	}
}

// printLineLocked prints a line with the step name prefix.
// Must be called with r.mu held.
func (r *Renderer) printLineLocked(stepName string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))

	if len(line) == 0 {
		return
	}

	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", stepName, line)
}
