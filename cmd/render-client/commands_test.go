package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taskYAML = `engine: PATH_TRACED
output_format: PNG
resolution:
  width: 1920
  height: 1080
samples: 128
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func useConfig(t *testing.T, path string) {
	t.Helper()
	previous := opts
	opts = Options{Config: path}
	t.Cleanup(func() { opts = previous })
}

func TestValidateCommand_UsesConfiguredThresholds(t *testing.T) {
	dir := t.TempDir()
	task := writeFile(t, dir, "task.yaml", taskYAML)

	tests := []struct {
		name         string
		config       string
		wantWarnings int
	}{
		{
			name:         "configured resolution limit",
			config:       "registry:\n  mode: memory\nvalidation:\n  max_resolution: 1280\n",
			wantWarnings: 1,
		},
		{
			name:         "default limits",
			config:       "registry:\n  mode: memory\n",
			wantWarnings: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, writeFile(t, t.TempDir(), "config.yaml", tt.config))

			cmd := &validateCommand{}
			cmd.Args.Task = task
			_, report, err := cmd.validate()

			require.NoError(t, err)
			assert.True(t, report.Valid)
			assert.Len(t, report.Warnings, tt.wantWarnings)
		})
	}
}

func TestValidateCommand_MissingConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, filepath.Join(dir, "absent.yaml"))

	cmd := &validateCommand{}
	cmd.Args.Task = writeFile(t, dir, "task.yaml", taskYAML)
	_, report, err := cmd.validate()

	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Warnings)
}

func TestValidateCommand_MalformedConfig(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, writeFile(t, dir, "config.yaml", "registry: [\n"))

	cmd := &validateCommand{}
	cmd.Args.Task = writeFile(t, dir, "task.yaml", taskYAML)
	_, _, err := cmd.validate()

	require.Error(t, err)
}

func TestStatusCommand_JobActionsNeedPersistedHistory(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, writeFile(t, dir, "config.yaml",
		"registry:\n  mode: memory\njobs:\n  download_dir: "+filepath.Join(dir, "downloads")+"\n"))

	tests := []struct {
		name string
		cmd  *statusCommand
	}{
		{"fetch", &statusCommand{NoRefresh: true, Fetch: "job-0001"}},
		{"cancel", &statusCommand{NoRefresh: true, Cancel: "job-0001", Wallet: "0xabc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Execute(nil)
			assert.ErrorIs(t, err, errHistoryNotPersisted)
		})
	}
}

func TestStatusCommand_ListWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, writeFile(t, dir, "config.yaml", "registry:\n  mode: memory\n"))

	err := (&statusCommand{}).Execute(nil)
	assert.NoError(t, err)
}
