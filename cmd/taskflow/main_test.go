// Package main tests for the taskflow CLI application
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/pkg/serialization"
	"github.com/taskflow/taskflow/pkg/taskflow"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		buildTime string
		want      string
	}{
		{"dev defaults", "dev", "unknown", "unknown", "taskflow dev (commit: unknown, built: unknown)\n"},
		{"custom values", "v1.0.0", "abc123", "2024-01-01", "taskflow v1.0.0 (commit: abc123, built: 2024-01-01)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldVersion, oldCommit, oldBuildTime := Version, Commit, BuildTime
			Version, Commit, BuildTime = tt.version, tt.commit, tt.buildTime
			defer func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuildTime }()

			out, err := execute(t, "version")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestPosition(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"anchor day", []string{"position", "2024-01-01", "--anchor", "2024-01-01"}, "2024-01-01 -> M1 W1 D1 (starts 2024-01-01)"},
		{"second month", []string{"position", "2024-02-14", "--anchor", "2024-01-01"}, "2024-02-14 -> M2 W3 D3 (starts 2024-02-14)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}

	t.Run("bad date", func(t *testing.T) {
		_, err := execute(t, "position", "14/02/2024", "--anchor", "2024-01-01")
		assert.ErrorContains(t, err, "YYYY-MM-DD")
	})

	t.Run("missing anchor", func(t *testing.T) {
		_, err := execute(t, "position", "2024-01-01")
		assert.Error(t, err)
	})
}

func TestCalendar(t *testing.T) {
	out, err := execute(t, "calendar", "--anchor", "2024-01-01", "--month", "1", "--week", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "📅 Month 1, Week 2", lines[0])
	assert.Contains(t, lines[1], "Jan 8")
	assert.Contains(t, lines[7], "Jan 14")

	_, err = execute(t, "calendar", "--anchor", "2024-01-01", "--week", "5")
	assert.Error(t, err)
}

func TestMigrateAndExport(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TASKFLOW_STORAGE", "sqlite")
	t.Setenv("TASKFLOW_ARCHIVE", "sqlite")
	t.Setenv("TASKFLOW_SQLITE_PATH", filepath.Join(dir, "tf.db"))
	t.Setenv("TASKFLOW_CODEC", "json")
	t.Setenv("TASKFLOW_COMPRESSION", "none")

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "storage=sqlite")

	path := filepath.Join(dir, "board.json")
	_, err = execute(t, "export", "--out", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s, err := serialization.FromNames("json", "none", nil)
	require.NoError(t, err)
	snap, err := serialization.Decode[taskflow.Snapshot](s, data)
	require.NoError(t, err)
	assert.Empty(t, snap.Topics)

	out, err = execute(t, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "archived 0 stale, 0 done")
}
