package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBuiltin(t *testing.T) {
	p, err := Get("default")
	require.NoError(t, err)
	require.Equal(t, "default", p.Name)
	require.Greater(t, p.Depth, 0)
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("grandmaster-crusher")
	require.Error(t, err)
}

func TestLoadFileOverridesAndAdds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	data := `presets:
  - name: default
    threads: 4
    hash_mb: 512
    multipv: 2
    depth: 30
  - name: blitz
    threads: 1
    hash_mb: 32
    movetime_ms: 100
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	require.NoError(t, LoadFile(path))

	p, err := Get("default")
	require.NoError(t, err)
	require.Equal(t, 4, p.Threads)
	require.Equal(t, 30, p.Depth)

	blitz, err := Get("blitz")
	require.NoError(t, err)
	require.Equal(t, 100, blitz.MoveTimeMillis)
}

func TestLoadFileRejectsLimitlessPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	data := `presets:
  - name: nolimits
    threads: 1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	require.Error(t, LoadFile(path))
}
