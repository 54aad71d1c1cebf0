package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {

	cfg, err := ParseConfig([]byte(`
DEEPSORT:
  REID_CKPT: "models/reid.onnx"
  MAX_DIST: 0.3
  N_INIT: 2
`))
	require.NoError(t, err)

	want := DefaultConfig()
	want.ReIDCheckpoint = "models/reid.onnx"
	want.MaxDist = 0.3
	want.NInit = 2

	require.Equal(t, want, cfg)
}

func TestParseConfigErrors(t *testing.T) {

	tests := []struct {
		name string
		doc  string
	}{
		{"Missing Section", "OTHER:\n  MAX_AGE: 3\n"},
		{"Bad Yaml", "DEEPSORT: [\n"},
		{"Wrong Type", "DEEPSORT:\n  MAX_AGE: many\n"},
		{"Out Of Range", "DEEPSORT:\n  MAX_IOU_DISTANCE: 1.5\n"},
		{"Negative Budget", "DEEPSORT:\n  NN_BUDGET: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {

	dir := t.TempDir()
	file := filepath.Join(dir, "deep_sort.yaml")

	require.NoError(t, os.WriteFile(file, []byte("DEEPSORT:\n  MAX_AGE: 30\n"), 0o644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.MaxAge)
	require.Equal(t, 100, cfg.NNBudget)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
