package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFileMatchesDefault(t *testing.T) {
	cfg, err := Unmarshal("../../cfg/config.default.toml")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("cfg/config.default.toml drifted (-want +got):\n%s", diff)
	}
	assert.NoError(t, cfg.Validate())
}

func TestCreateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, CreateDefault(path))

	cfg, err := Unmarshal(path)
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	data := []byte("[Tracker]\nmatching_threshold = 0.5\nSolver = 'greedy'\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Unmarshal(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Tracker.MatchingThreshold)
	assert.Equal(t, SolverGreedy.Value, cfg.Tracker.Solver)
	assert.Equal(t, Default().Tracker.ActivationThreshold, cfg.Tracker.ActivationThreshold)
	assert.Equal(t, Default().Input, cfg.Input)
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := Unmarshal(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Tracker\n"), 0o644))
	_, err = Unmarshal(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*ConfigFile){
		"input type":     func(c *ConfigFile) { c.Input.Type = "floppy" },
		"buffer":         func(c *ConfigFile) { c.Input.Buffer = 0 },
		"output format":  func(c *ConfigFile) { c.Output.Format = "gif" },
		"codec":          func(c *ConfigFile) { c.Output.Codec = "h264x" },
		"jpeg quality":   func(c *ConfigFile) { c.Output.JPEGQuality = 0 },
		"model format":   func(c *ConfigFile) { c.Model.Format = "tflite" },
		"device":         func(c *ConfigFile) { c.Model.Device = "tpu" },
		"model size":     func(c *ConfigFile) { c.Model.Width = 0 },
		"nms":            func(c *ConfigFile) { c.Model.NMSThreshold = 1.5 },
		"slice overlap":  func(c *ConfigFile) { c.Slicing.Enabled = true; c.Slicing.Overlap = 1 },
		"solver":         func(c *ConfigFile) { c.Tracker.Solver = "auction" },
		"matching":       func(c *ConfigFile) { c.Tracker.MatchingThreshold = -0.1 },
		"low above high": func(c *ConfigFile) { c.Tracker.LowThreshold = 0.6 },
		"lost buffer":    func(c *ConfigFile) { c.Tracker.LostTrackBuffer = 0 },
		"mqtt":           func(c *ConfigFile) { c.Mqtt.Enabled = true; c.Mqtt.Topic = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ERR_INVALID_CONFIG)
		})
	}
}

func TestEnums(t *testing.T) {
	assert.NotNil(t, InputTypes.Parse("images"))
	assert.Nil(t, InputTypes.Parse("IMAGES"))
	assert.Equal(t, "onnx", ModelONNX.Value)
	require.NotNil(t, LoggingLevels.Parse("warn"))
	assert.Equal(t, LoggingLevelWarn, *LoggingLevels.Parse("warn"))
}
