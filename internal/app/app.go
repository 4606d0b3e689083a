// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/acceptance"
	"go.trai.ch/kiln/internal/engine/deps"
	"go.trai.ch/kiln/internal/engine/envplan"
	"go.trai.ch/kiln/internal/engine/sequencer"
	"go.trai.ch/kiln/internal/formula"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	runner       ports.ProcessRunner
	receipts     ports.ReceiptStore
	logger       ports.Logger
	stdout       io.Writer
	stderr       io.Writer
	strategy     domain.Strategy
	environ      func() []string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	runner ports.ProcessRunner,
	receipts ports.ReceiptStore,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		runner:       runner,
		receipts:     receipts,
		logger:       log,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		strategy:     domain.HostStrategy(),
		environ:      os.Environ,
	}
}

// WithOutput redirects rendered pipeline output.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithStrategy overrides the host platform strategy.
// This is primarily used for testing platform specific behavior.
func (a *App) WithStrategy(strategy domain.Strategy) *App {
	a.strategy = strategy
	return a
}

// WithEnviron overrides the source of the ambient host environment.
func (a *App) WithEnviron(environ func() []string) *App {
	a.environ = environ
	return a
}

// Options select the config file and carry command line overrides.
type Options struct {
	ConfigPath string

	// SourceDir overrides the configured source checkout when set.
	SourceDir string

	// Prefix overrides the configured install prefix when set.
	Prefix string
}

// Install builds the analyzer from source and installs it under the prefix.
func (a *App) Install(ctx context.Context, opts Options) error {
	settings, err := a.loadSettings(opts)
	if err != nil {
		return err
	}

	s := a.newSession()
	defer s.close(ctx)

	return a.install(ctx, s, settings)
}

// Test runs the acceptance cases against an existing install.
func (a *App) Test(ctx context.Context, opts Options) error {
	settings, err := a.loadSettings(opts)
	if err != nil {
		return err
	}

	s := a.newSession()
	defer s.close(ctx)

	return a.test(ctx, s, settings)
}

// Run installs the analyzer and then runs the acceptance cases against it.
// Tests are skipped when the install fails.
func (a *App) Run(ctx context.Context, opts Options) error {
	settings, err := a.loadSettings(opts)
	if err != nil {
		return err
	}

	s := a.newSession()
	defer s.close(ctx)

	if err := a.install(ctx, s, settings); err != nil {
		return err
	}
	return a.test(ctx, s, settings)
}

// Dependencies returns the dependencies that apply to platform, in
// declaration order. An empty platform means the App's own.
func (a *App) Dependencies(platform domain.Platform) []domain.DependencySpec {
	strategy := a.strategy
	if platform != "" {
		strategy = domain.NewStrategy(platform)
	}
	return deps.Resolve(formula.Dependencies(), strategy)
}

// Environment returns the plan an install would run under without creating
// anything on disk.
func (a *App) Environment(opts Options) (domain.EnvironmentPlan, error) {
	settings, err := a.loadSettings(opts)
	if err != nil {
		return domain.EnvironmentPlan{}, err
	}
	return a.buildPlan(settings, true)
}

func (a *App) install(ctx context.Context, s *session, settings domain.Settings) error {
	ctx, span := s.tracer.Start(ctx, "install")
	defer span.End()
	span.SetAttribute("kiln.run_id", s.runID)
	span.SetAttribute("kiln.prefix", settings.Prefix)

	plan, err := a.buildPlan(settings, false)
	if err != nil {
		span.RecordError(err)
		return errors.Join(domain.ErrInstallFailed, err)
	}
	a.logger.Info(fmt.Sprintf("run %s: environment %s with %d variables", s.runID, plan.Digest(), plan.Len()))

	seq := sequencer.New(a.runner, s.tracer, a.logger)
	err = seq.Run(ctx, formula.Steps(), plan, sequencer.Options{
		SourceDir:   settings.SourceDir,
		StepTimeout: settings.StepTimeout,
		Strategy:    a.strategy,
	})
	if err != nil {
		span.RecordError(err)
		return errors.Join(domain.ErrInstallFailed, err)
	}

	a.storeReceipt(settings, domain.Receipt{
		Prefix:      settings.Prefix,
		RunID:       s.runID,
		Platform:    a.strategy.Platform(),
		EnvDigest:   plan.Digest(),
		InstalledAt: time.Now(),
	})
	return nil
}

func (a *App) test(ctx context.Context, s *session, settings domain.Settings) error {
	ctx, span := s.tracer.Start(ctx, "test")
	defer span.End()
	span.SetAttribute("kiln.run_id", s.runID)

	cases, err := formula.Cases()
	if err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, "failed to load acceptance cases")
	}

	rec := a.loadReceipt(settings)
	if rec.RunID != "" {
		a.logger.Info(fmt.Sprintf("verifying install from run %s", rec.RunID))
	}

	plan := envplan.TestPlan(envplan.Ambient(a.environ()), settings.Locate(formula.JDK))

	runner := acceptance.NewRunner(a.runner, s.tracer)
	report, err := runner.Run(ctx, cases, plan, acceptance.Options{
		Analyzer:    settings.AnalyzerPath(),
		WorkDir:     settings.WorkDir(),
		Timeout:     settings.TestTimeout,
		Concurrency: settings.TestConcurrency,
	})
	if err != nil {
		span.RecordError(err)
		return errors.Join(domain.ErrAcceptanceFailed, err)
	}

	s.renderer.OnReport(report)

	failed := report.Failed()
	rec.VerifiedAt = time.Now()
	rec.CasesTotal = len(report.Results)
	rec.CasesPassed = len(report.Results) - len(failed)
	a.storeReceipt(settings, rec)

	if len(failed) > 0 {
		err := errors.Join(domain.ErrAcceptanceFailed, zerr.With(
			zerr.New("cases did not match"), "failed", strconv.Itoa(len(failed)),
		))
		span.RecordError(err)
		return err
	}
	return nil
}

// loadReceipt returns the receipt for the configured prefix, or an empty one.
// Receipts are bookkeeping; a broken one never fails the pipeline.
func (a *App) loadReceipt(settings domain.Settings) domain.Receipt {
	rec, err := a.receipts.Get(settings.WorkDir(), settings.Prefix)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("ignoring install receipt: %v", err))
	}
	if rec == nil {
		return domain.Receipt{Prefix: settings.Prefix}
	}
	return *rec
}

func (a *App) storeReceipt(settings domain.Settings, rec domain.Receipt) {
	if err := a.receipts.Put(settings.WorkDir(), rec); err != nil {
		a.logger.Warn(fmt.Sprintf("failed to record install receipt: %v", err))
	}
}

func (a *App) buildPlan(settings domain.Settings, preview bool) (domain.EnvironmentPlan, error) {
	return envplan.Configure(envplan.Input{
		Dependencies: deps.Resolve(formula.Dependencies(), a.strategy),
		Locator:      settings,
		Strategy:     a.strategy,
		Prefix:       settings.Prefix,
		WorkDir:      settings.WorkDir(),
		Jobs:         settings.Jobs,
		Ambient:      a.environ(),
		Preview:      preview,
	})
}

func (a *App) loadSettings(opts Options) (domain.Settings, error) {
	path := opts.ConfigPath
	if path == "" {
		path = domain.ConfigFileName
	}

	settings, err := a.configLoader.Load(path)
	if err != nil {
		return domain.Settings{}, zerr.Wrap(err, "failed to load configuration")
	}

	if opts.SourceDir != "" {
		settings.SourceDir = opts.SourceDir
	}
	if opts.Prefix != "" {
		settings.Prefix = opts.Prefix
	}
	if settings.OptRoot == "" {
		settings.OptRoot = a.strategy.OptRoot()
	}

	if settings.SourceDir, err = filepath.Abs(settings.SourceDir); err != nil {
		return domain.Settings{}, zerr.Wrap(err, "failed to resolve source directory")
	}
	if settings.Prefix, err = filepath.Abs(settings.Prefix); err != nil {
		return domain.Settings{}, zerr.Wrap(err, "failed to resolve install prefix")
	}
	return settings, nil
}

// session is the rendering and tracing pipeline shared by the phases of one
// invocation.
type session struct {
	runID    string
	renderer *linear.Renderer
	provider *sdktrace.TracerProvider
	tracer   *telemetry.OTelTracer
}

func (a *App) newSession() *session {
	renderer := linear.NewRenderer(a.stdout, a.stderr)
	provider := telemetry.NewTracerProvider(renderer)
	return &session{
		runID:    uuid.NewString(),
		renderer: renderer,
		provider: provider,
		tracer:   telemetry.NewOTelTracer(provider, renderer),
	}
}

func (s *session) close(ctx context.Context) {
	_ = s.provider.Shutdown(context.WithoutCancel(ctx))
	_ = s.renderer.Stop()
}
