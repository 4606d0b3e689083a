package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

var noDepexts = domain.Patch{
	File:  "build-infer.sh",
	Old:   `infer "$INFER_ROOT" $locked`,
	New:   `infer "$INFER_ROOT" $locked --no-depexts`,
	Scope: domain.ScopeLinux,
}

const script = `#!/bin/bash
opam install --deps-only infer "$INFER_ROOT" $locked
echo done
`

func TestPatch_Apply(t *testing.T) {
	got, changed, err := noDepexts.Apply(script)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, got, `infer "$INFER_ROOT" $locked --no-depexts`)
}

func TestPatch_ApplyTwiceIsApplyOnce(t *testing.T) {
	once, _, err := noDepexts.Apply(script)
	require.NoError(t, err)

	twice, changed, err := noDepexts.Apply(once)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestPatch_TargetMissing(t *testing.T) {
	_, changed, err := noDepexts.Apply("#!/bin/bash\necho nothing to see\n")
	require.Error(t, err)
	assert.False(t, changed)
	assert.ErrorIs(t, err, domain.ErrPatchTargetMissing)
}

func TestBuildStep_CommandLine(t *testing.T) {
	marker := domain.BuildStep{Name: "release", Marker: ".release"}
	assert.True(t, marker.IsMarker())
	assert.Equal(t, "touch .release", marker.CommandLine())

	step := domain.BuildStep{Name: "install", Command: "make", Args: []string{"install-with-libs"}}
	assert.False(t, step.IsMarker())
	assert.Equal(t, "make install-with-libs", step.CommandLine())
}
