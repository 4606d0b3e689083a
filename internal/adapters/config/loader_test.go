package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newLoader(t *testing.T, files fstest.MapFS) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	return &config.Loader{Logger: log, FS: config.NewMapFSAdapter("/work", files)}
}

func TestLoader_MissingFileReturnsDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn("no kiln.yaml found, using defaults")

	loader := &config.Loader{Logger: log, FS: config.NewMapFSAdapter("/work", fstest.MapFS{})}

	got, err := loader.Load("/work/kiln.yaml")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
}

func TestLoader_FullFile(t *testing.T) {
	loader := newLoader(t, fstest.MapFS{
		"kiln.yaml": {Data: []byte(`
source: infer
prefix: /usr/local/Cellar/infer/1.1.0
analyzer: bin/infer
opt_root: /opt/homebrew/opt
locations:
  openjdk@11: /usr/lib/jvm/java-11
  patchelf: tools/patchelf
jobs: 8
timeouts:
  step: 2h
  test: 90s
parallel_tests: 2
`)},
	})

	got, err := loader.Load("/work/kiln.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/work/infer", got.SourceDir)
	assert.Equal(t, "/usr/local/Cellar/infer/1.1.0", got.Prefix)
	assert.Equal(t, "/work/bin/infer", got.Analyzer)
	assert.Equal(t, "/opt/homebrew/opt", got.OptRoot)
	assert.Equal(t, map[string]string{
		"openjdk@11": "/usr/lib/jvm/java-11",
		"patchelf":   "/work/tools/patchelf",
	}, got.Locations)
	assert.Equal(t, 8, got.Jobs)
	assert.Equal(t, 2*time.Hour, got.StepTimeout)
	assert.Equal(t, 90*time.Second, got.TestTimeout)
	assert.Equal(t, 2, got.TestConcurrency)
}

func TestLoader_EmptyFileKeepsDefaults(t *testing.T) {
	loader := newLoader(t, fstest.MapFS{"kiln.yaml": {Data: []byte("")}})

	got, err := loader.Load("/work/kiln.yaml")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTestTimeout, got.TestTimeout)
	assert.Equal(t, domain.DefaultTestConcurrency, got.TestConcurrency)
	assert.Zero(t, got.StepTimeout)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "malformed yaml", content: "source: [unclosed", wantErr: domain.ErrConfigParseFailed},
		{name: "unknown key", content: "sources: .", wantErr: domain.ErrConfigParseFailed},
		{name: "bad step timeout", content: "timeouts:\n  step: forever", wantErr: domain.ErrInvalidTimeout},
		{name: "negative test timeout", content: "timeouts:\n  test: -1m", wantErr: domain.ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newLoader(t, fstest.MapFS{"kiln.yaml": {Data: []byte(tt.content)}})

			_, err := loader.Load("/work/kiln.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoader_NegativeJobs(t *testing.T) {
	loader := newLoader(t, fstest.MapFS{"kiln.yaml": {Data: []byte("jobs: -2")}})

	_, err := loader.Load("/work/kiln.yaml")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidJobs.Error())
}

func TestLoader_OSFS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, domain.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("jobs: 3\n"), domain.PrivateFilePerm))

	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	got, err := loader.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Jobs)
}
