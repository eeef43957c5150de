package paintbody

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := writeTestBatch(t, dir, "a.json")
	b := writeTestBatch(t, dir, "b.json")
	cfgPath := writeFile(t, dir, "cfg.yaml", `nSamples: 4
embedSize: 4
voxelSize: [0.1, 0.1, 0.1]
reference:
  pixelChannels: 6
output:
  dir: `+filepath.Join(dir, "out")+`
  png16: true
  raw: true
`)
	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	results, err := Run(cfg, []string{a, b})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0], results[1])
	for _, name := range []string{"a_rgb.png", "a_depth.png", "a_acc.png", "a.raw", "b_rgb.png", "render.gif"} {
		_, err := os.Stat(filepath.Join(dir, "out", name))
		assert.NoError(t, err, name)
	}
}

func TestRunNeedsBatches(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	_, err = Run(cfg, nil)
	assert.Error(t, err)
}
