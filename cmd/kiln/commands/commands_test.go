package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/cmd/kiln/commands"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

type mockApp struct {
	installFunc func(ctx context.Context, opts app.Options) error
	testFunc    func(ctx context.Context, opts app.Options) error
	runFunc     func(ctx context.Context, opts app.Options) error
	envFunc     func(opts app.Options) (domain.EnvironmentPlan, error)
	platforms   []domain.Platform
}

func (m *mockApp) Install(ctx context.Context, opts app.Options) error {
	if m.installFunc != nil {
		return m.installFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Test(ctx context.Context, opts app.Options) error {
	if m.testFunc != nil {
		return m.testFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Run(ctx context.Context, opts app.Options) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Dependencies(platform domain.Platform) []domain.DependencySpec {
	m.platforms = append(m.platforms, platform)
	return []domain.DependencySpec{
		{Name: "cmake", Phase: domain.PhaseBuild},
		{Name: "opam", Phase: domain.PhaseBuild},
		{Name: "openjdk@11", Phase: domain.PhaseBuildAndTest},
		{Name: "gmp", Phase: domain.PhaseRuntime},
	}
}

func (m *mockApp) Environment(opts app.Options) (domain.EnvironmentPlan, error) {
	if m.envFunc != nil {
		return m.envFunc(opts)
	}
	return domain.NewEnvironmentPlan(nil), nil
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Pipeline(t *testing.T) {
	t.Run("wires persistent flags", func(t *testing.T) {
		var captured app.Options
		mock := &mockApp{
			installFunc: func(_ context.Context, opts app.Options) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock, "install", "-c", "ci.yaml", "--source", "/src/infer", "--prefix", "/opt/infer")
		require.NoError(t, err)
		assert.Equal(t, app.Options{ConfigPath: "ci.yaml", SourceDir: "/src/infer", Prefix: "/opt/infer"}, captured)
	})

	t.Run("defaults the config path", func(t *testing.T) {
		var captured app.Options
		mock := &mockApp{
			testFunc: func(_ context.Context, opts app.Options) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock, "test")
		require.NoError(t, err)
		assert.Equal(t, "kiln.yaml", captured.ConfigPath)
		assert.Empty(t, captured.SourceDir)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ app.Options) error {
				return errors.New("simulated error")
			},
		}

		_, err := execute(t, mock, "run")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ app.Options) error {
				panic("should not be called")
			},
		}

		_, err := execute(t, mock, "run", "extra")
		require.Error(t, err)
	})
}

func TestCommands_LogJSON(t *testing.T) {
	run := func(args ...string) []bool {
		var got []bool
		cli := commands.New(&mockApp{})
		cli.OnLogJSON(func(enable bool) { got = append(got, enable) })
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs(args)
		require.NoError(t, cli.Execute(context.Background()))
		return got
	}

	assert.Equal(t, []bool{true}, run("--log-json", "install"))
	assert.Equal(t, []bool{false}, run("deps"))
}

func TestCommands_Deps(t *testing.T) {
	mock := &mockApp{}

	out, err := execute(t, mock, "deps")
	require.NoError(t, err)
	assert.Equal(t, "build:\n  cmake\n  opam\nbuild-and-test:\n  openjdk@11\nruntime:\n  gmp\n", out)

	_, err = execute(t, mock, "deps", "--platform", "linux")
	require.NoError(t, err)
	assert.Equal(t, []domain.Platform{"", domain.PlatformLinux}, mock.platforms)

	_, err = execute(t, mock, "deps", "--platform", "windows")
	require.Error(t, err)
	assert.Len(t, mock.platforms, 2)
}

func TestCommands_Env(t *testing.T) {
	mock := &mockApp{
		envFunc: func(_ app.Options) (domain.EnvironmentPlan, error) {
			return domain.NewEnvironmentPlan(map[string]string{
				"OPAMYES": "1",
				"JOBS":    "8",
				"TZ":      "UTC",
			}), nil
		},
	}

	out, err := execute(t, mock, "env")
	require.NoError(t, err)
	assert.Equal(t, "JOBS=8\nOPAMYES=1\n", out)

	mock.envFunc = func(_ app.Options) (domain.EnvironmentPlan, error) {
		return domain.EnvironmentPlan{}, domain.ErrConfigParseFailed
	}
	_, err = execute(t, mock, "env")
	require.ErrorIs(t, err, domain.ErrConfigParseFailed)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kiln version "+build.Version)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
}
