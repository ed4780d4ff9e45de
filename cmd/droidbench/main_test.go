package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boristopalov/droidbench/pkg/device"
)

func execute(t *testing.T, dev device.Device, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(dev)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader("\n"))
	cmd.SetArgs(append([]string{"--log-level", "disabled"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestList(t *testing.T) {
	out, _, err := execute(t, nil, "list", "--composites")
	require.NoError(t, err)
	assert.Contains(t, out, "CameraTakePhotoAndOpenClock")
	assert.Contains(t, out, "audio_file_name")
	assert.NotContains(t, out, "\nClockOpenApp ")
}

func TestDescribe(t *testing.T) {
	out, _, err := execute(t, nil, "describe", "MarkorCreateNoteAndRecordAudio", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] AudioRecorderRecordAudioWithFileName tear_down=false keys=map[file_name:audio_file_name]")
	assert.Contains(t, out, "Create a new note in Markor named")

	again, _, err := execute(t, nil, "describe", "MarkorCreateNoteAndRecordAudio", "--seed", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, _, err = execute(t, nil, "describe", "Nope")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, nil, "validate", "MarkorEditNote",
		"-p", "file_name=todo.md", "-p", "edit_type=footer", "-p", "footer=Bye.")
	require.NoError(t, err)
	assert.Equal(t, "ok: Edit todo.md in Markor. Add to the bottom of the note Bye.\n", out)

	_, _, err = execute(t, nil, "validate", "MarkorEditNote", "-p", "file_name=todo.md", "-p", "edit_type=bogus")
	assert.Error(t, err)

	_, _, err = execute(t, nil, "validate", "MarkorEditNote", "-p", "broken")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	f := device.NewFake()
	out, errOut, err := execute(t, f, "run", "--agent", "noop", "--format", "json", "ClockOpenApp")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "ClockOpenApp", results[0]["task"])
	assert.Equal(t, 0.0, results[0]["score"])
	assert.Contains(t, errOut, "[1] ClockOpenApp score=0.000")
	assert.Contains(t, errOut, "TOTAL")
	assert.Equal(t, device.LauncherPackage, mustForeground(t, f))
}

func TestRunWithSuiteFile(t *testing.T) {
	dir := t.TempDir()
	suite := filepath.Join(dir, "suite.yaml")
	results := filepath.Join(dir, "results.csv")
	require.NoError(t, os.WriteFile(suite, []byte(`
name: smoke
seed: 9
repeat: 2
agent:
  type: noop
output:
  path: `+results+`
composites:
  - name: CameraTakeVideoAndOpenClock
    components:
      - task: CameraTakeVideo
      - task: ClockOpenApp
tasks:
  - name: CameraTakeVideoAndOpenClock
`), 0o644))

	_, _, err := execute(t, device.NewFake(), "--config", suite, "run")
	require.NoError(t, err)

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "CameraTakeVideoAndOpenClock")
	assert.Contains(t, lines[1], ",9,")
}

func mustForeground(t *testing.T, f *device.Fake) string {
	t.Helper()
	pkg, err := device.ForegroundPackage(t.Context(), f)
	require.NoError(t, err)
	return pkg
}
