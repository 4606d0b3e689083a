package sequencer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/sequencer"
	"go.trai.ch/kiln/internal/formula"
	"go.uber.org/mock/gomock"
)

const buildScript = "#!/bin/sh\nopam_require() {\n  infer \"$INFER_ROOT\" $locked\n}\n"

type sequencerTestMocks struct {
	runner *mocks.MockProcessRunner
	tracer *mocks.MockTracer
	logger *mocks.MockLogger
}

func setupSequencerTest(t *testing.T) (*sequencer.Sequencer, sequencerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := sequencerTestMocks{
		runner: mocks.NewMockProcessRunner(ctrl),
		tracer: mocks.NewMockTracer(ctrl),
		logger: mocks.NewMockLogger(ctrl),
	}

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any()).AnyTimes()
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	return sequencer.New(m.runner, m.tracer, m.logger), m
}

func sourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.BuildScript), []byte(buildScript), 0o755)) //nolint:gosec // test script
	return dir
}

func options(dir string, platform domain.Platform) sequencer.Options {
	return sequencer.Options{SourceDir: dir, Strategy: domain.NewStrategy(platform)}
}

func TestSequencer_RunsFormulaInOrder(t *testing.T) {
	s, m := setupSequencerTest(t)
	dir := sourceTree(t)
	plan := domain.NewEnvironmentPlan(map[string]string{"PATH": "/bin"})

	var order []string
	m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), plan, gomock.Any()).DoAndReturn(
		func(_ context.Context, inv domain.Invocation, _ domain.EnvironmentPlan, _ any) (domain.ProcessResult, error) {
			assert.Equal(t, dir, inv.Dir)
			if inv.Command == "./build-infer.sh" {
				_, err := os.Stat(filepath.Join(dir, domain.ReleaseMarker))
				assert.NoError(t, err, "marker must exist before the build step")
			}
			order = append(order, inv.Name)
			return domain.ProcessResult{}, nil
		},
	).Times(3)

	require.NoError(t, s.Run(context.Background(), formula.Steps(), plan, options(dir, domain.PlatformLinux)))

	assert.Equal(t, []string{"opam init", "build-infer.sh", "make install-with-libs"}, order)

	patched, err := os.ReadFile(filepath.Join(dir, domain.BuildScript))
	require.NoError(t, err)
	assert.Contains(t, string(patched), `infer "$INFER_ROOT" $locked --no-depexts`)

	info, err := os.Stat(filepath.Join(dir, domain.BuildScript))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestSequencer_PatchIsLinuxOnly(t *testing.T) {
	s, m := setupSequencerTest(t)
	dir := sourceTree(t)

	m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ProcessResult{}, nil).Times(3)

	require.NoError(t, s.Run(context.Background(), formula.Steps(), domain.EnvironmentPlan{}, options(dir, domain.PlatformMacOS)))

	content, err := os.ReadFile(filepath.Join(dir, domain.BuildScript))
	require.NoError(t, err)
	assert.Equal(t, buildScript, string(content))
}

func TestSequencer_PatchIsIdempotent(t *testing.T) {
	s, m := setupSequencerTest(t)
	dir := sourceTree(t)

	m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ProcessResult{}, nil).Times(6)

	opts := options(dir, domain.PlatformLinux)
	require.NoError(t, s.Run(context.Background(), formula.Steps(), domain.EnvironmentPlan{}, opts))
	once, err := os.ReadFile(filepath.Join(dir, domain.BuildScript))
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background(), formula.Steps(), domain.EnvironmentPlan{}, opts))
	twice, err := os.ReadFile(filepath.Join(dir, domain.BuildScript))
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}

func TestSequencer_PatchTargetMissing(t *testing.T) {
	s, m := setupSequencerTest(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.BuildScript), []byte("#!/bin/sh\nmake\n"), 0o755)) //nolint:gosec // test script

	// opam init runs, then the build step fails before its process starts.
	m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ProcessResult{}, nil).Times(1)

	err := s.Run(context.Background(), formula.Steps(), domain.EnvironmentPlan{}, options(dir, domain.PlatformLinux))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPatchTargetMissing)
}

func TestSequencer_PatchFileMissing(t *testing.T) {
	s, m := setupSequencerTest(t)
	dir := t.TempDir()

	m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ProcessResult{}, nil).Times(1)

	err := s.Run(context.Background(), formula.Steps(), domain.EnvironmentPlan{}, options(dir, domain.PlatformLinux))
	assert.ErrorIs(t, err, domain.ErrPatchReadFailed)
}

func TestSequencer_NonzeroExitAbortsRemainingSteps(t *testing.T) {
	s, m := setupSequencerTest(t)
	dir := sourceTree(t)

	gomock.InOrder(
		m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.ProcessResult{}, nil),
		m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.ProcessResult{Stdout: "compiling", Stderr: "opam: error", ExitCode: 3}, nil),
	)

	err := s.Run(context.Background(), formula.Steps(), domain.EnvironmentPlan{}, options(dir, domain.PlatformOther))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuildStepFailed)

	var failure *domain.StepFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "build-infer.sh", failure.Step)
	assert.Equal(t, 3, failure.ExitCode)
	assert.Equal(t, "compiling", failure.Stdout)
	assert.Equal(t, "opam: error", failure.Stderr)
}

func TestSequencer_RunnerErrorPropagates(t *testing.T) {
	s, m := setupSequencerTest(t)

	m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ProcessResult{}, errors.Join(domain.ErrDependencyMissing, errors.New("opam")))

	err := s.Run(context.Background(), formula.Steps(), domain.EnvironmentPlan{}, options(t.TempDir(), domain.PlatformOther))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyMissing)
}

func TestSequencer_StepSettings(t *testing.T) {
	s, m := setupSequencerTest(t)
	source := t.TempDir()

	m.runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, inv domain.Invocation, _ domain.EnvironmentPlan, _ any) (domain.ProcessResult, error) {
			assert.Equal(t, filepath.Join(source, "facebook-clang-plugins"), inv.Dir)
			assert.Equal(t, 45*time.Minute, inv.Timeout)
			assert.Equal(t, []string{"-j", "4"}, inv.Args)
			return domain.ProcessResult{}, nil
		},
	)

	steps := []domain.BuildStep{{Name: "plugins", Command: "make", Args: []string{"-j", "4"}, Dir: "facebook-clang-plugins"}}
	opts := sequencer.Options{SourceDir: source, StepTimeout: 45 * time.Minute, Strategy: domain.HostStrategy()}

	require.NoError(t, s.Run(context.Background(), steps, domain.EnvironmentPlan{}, opts))
}

func TestSequencer_MarkerKeepsExistingContent(t *testing.T) {
	s, _ := setupSequencerTest(t)
	dir := t.TempDir()
	marker := filepath.Join(dir, domain.ReleaseMarker)
	require.NoError(t, os.WriteFile(marker, []byte("keep"), domain.FilePerm))

	steps := []domain.BuildStep{{Name: "release marker", Marker: domain.ReleaseMarker}}
	require.NoError(t, s.Run(context.Background(), steps, domain.EnvironmentPlan{}, options(dir, domain.PlatformOther)))

	content, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(content))
}

func TestSequencer_MarkerFailure(t *testing.T) {
	s, _ := setupSequencerTest(t)

	steps := []domain.BuildStep{{Name: "release marker", Marker: domain.ReleaseMarker}}
	err := s.Run(context.Background(), steps, domain.EnvironmentPlan{}, options(filepath.Join(t.TempDir(), "missing"), domain.PlatformOther))

	assert.ErrorIs(t, err, domain.ErrMarkerWriteFailed)
}

func TestSequencer_CancelledContext(t *testing.T) {
	s, _ := setupSequencerTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, formula.Steps(), domain.EnvironmentPlan{}, options(t.TempDir(), domain.PlatformOther))
	assert.ErrorIs(t, err, context.Canceled)
}
