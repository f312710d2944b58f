package detection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "images/", cfg.Layout.ImagesDir)
	assert.Equal(t, "results/csv/", cfg.Layout.CSVDir)
	assert.Equal(t, "results/bounding_boxes", cfg.Layout.BoxesDir)
	assert.Equal(t, BackendONNXRuntime, cfg.Detector.Backend)
	assert.Equal(t, 640, cfg.Detector.InputSize)
	assert.InDelta(t, 0.25, cfg.Detector.ConfThreshold, 1e-9)
	assert.InDelta(t, 0.45, cfg.Detector.IoUThreshold, 1e-9)
	assert.Equal(t, "#FF0000", cfg.Annotate.Color)
	assert.Equal(t, 3, cfg.Annotate.Width)
	assert.Equal(t, "production", cfg.Log.Mode)
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
layout:
  csvDir: out/csv
detector:
  backend: remote
  remoteURL: http://localhost:9000/detect
  confThreshold: 0.5
annotate:
  width: 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "out/csv", cfg.Layout.CSVDir)
	assert.Equal(t, "images/", cfg.Layout.ImagesDir)
	assert.Equal(t, BackendRemote, cfg.Detector.Backend)
	assert.Equal(t, "http://localhost:9000/detect", cfg.Detector.RemoteURL)
	assert.InDelta(t, 0.5, cfg.Detector.ConfThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Annotate.Width)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout: [unterminated"), 0o644))
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "decode config")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvBackend, " Remote ")
	t.Setenv(EnvModelPath, "/models/custom.onnx")
	t.Setenv(EnvLogMode, "development")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Detector.Backend)
	assert.Equal(t, "/models/custom.onnx", cfg.Detector.ModelPath)
	assert.Equal(t, "development", cfg.Log.Mode)
}

func TestConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, "config.yaml", ConfigPath(""))
	assert.Equal(t, "mine.yaml", ConfigPath(" mine.yaml "))

	t.Setenv(EnvConfigPath, "/etc/objectlens.yaml")
	assert.Equal(t, "/etc/objectlens.yaml", ConfigPath(""))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	var cfg Config
	cfg.Detector.ConfThreshold = 0.4
	cfg.Annotate.Color = "#00FF00"
	require.NoError(t, SaveConfig(path, cfg))
	assert.NoFileExists(t, path+".tmp")

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got.Detector.ConfThreshold, 1e-9)
	assert.Equal(t, "#00FF00", got.Annotate.Color)
	assert.Equal(t, 3, got.Annotate.Width)
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OBJECTLENS_TEST_VALUE=from-dotenv\n"), 0o644))
	t.Setenv("OBJECTLENS_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("OBJECTLENS_TEST_VALUE"))
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv("OBJECTLENS_TEST_VALUE"))
}
