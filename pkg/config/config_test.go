package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuite(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Should fall back to defaults without a file", func(t *testing.T) {
		t.Setenv("ANDROID_SERIAL", "")
		t.Setenv("DROIDBENCH_ADB", "")
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("Should overlay the file on the defaults", func(t *testing.T) {
		t.Setenv("ANDROID_SERIAL", "")
		cfg, err := LoadConfig(writeSuite(t, `
name: nightly
seed: 42
device:
  timeout: 5s
agent:
  type: shell
  provider: gemini
tasks:
  - name: MarkorCreateNote
    params:
      file_name: todo.md
    repeat: 3
composites:
  - name: MarkorCreateNoteAndOpenClock
    clear_dirs: [/sdcard/Documents/Markor]
    components:
      - task: MarkorCreateNote
        tear_down: true
      - task: ClockOpenApp
        keys: {}
`))
		require.NoError(t, err)
		assert.Equal(t, "nightly", cfg.Name)
		assert.Equal(t, uint64(42), cfg.Seed)
		assert.Equal(t, 5*time.Second, cfg.Device.Timeout)
		assert.Equal(t, "adb", cfg.Device.ADB)
		assert.Equal(t, "gemini", cfg.Agent.Provider)
		assert.Equal(t, 10, cfg.Agent.MaxSteps)
		require.Len(t, cfg.Tasks, 1)
		assert.Equal(t, "todo.md", cfg.Tasks[0].Params["file_name"])
		assert.Equal(t, 3, cfg.Tasks[0].Repeat)
		require.Len(t, cfg.Composites, 1)
		assert.True(t, cfg.Composites[0].Components[0].TearDown)
		assert.Equal(t, []string{"/sdcard/Documents/Markor"}, cfg.Composites[0].ClearDirs)
	})

	t.Run("Should let the environment pick the device", func(t *testing.T) {
		t.Setenv("ANDROID_SERIAL", "emulator-5556")
		t.Setenv("DROIDBENCH_ADB", "/opt/platform-tools/adb")
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "emulator-5556", cfg.Device.Serial)
		assert.Equal(t, "/opt/platform-tools/adb", cfg.Device.ADB)
	})

	t.Run("Should prefer the file serial over the environment", func(t *testing.T) {
		t.Setenv("ANDROID_SERIAL", "emulator-5556")
		cfg, err := LoadConfig(writeSuite(t, "device:\n  serial: emulator-5554\n"))
		require.NoError(t, err)
		assert.Equal(t, "emulator-5554", cfg.Device.Serial)
	})

	t.Run("Should reject unknown fields", func(t *testing.T) {
		_, err := LoadConfig(writeSuite(t, "seeds: 3\n"))
		assert.Error(t, err)
	})

	t.Run("Should report a missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Repeat = 0
	cfg.Agent.Type = "robot"
	cfg.Output.Format = "xml"
	cfg.Tasks = []TaskConfig{{}}
	cfg.Composites = []CompositeConfig{{Components: []ComponentConfig{{}}}}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"repeat", "agent type", "output format", "tasks[0]", "composites[0]: name", "components[0]"} {
		assert.Contains(t, err.Error(), want)
	}
	assert.NoError(t, Default().Validate())
}
