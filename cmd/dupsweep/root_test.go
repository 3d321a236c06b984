package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = previous })

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"one.bin", "two.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("duplicate"), 0o644))
	}
	return root
}

func TestRoot_ReportsDuplicates(t *testing.T) {
	root := tree(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "--config", configPath, "-f", root, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "1 duplicate groups")
	assert.Contains(t, out, "report complete")
}

func TestRoot_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	_, err := execute(t, "--config", configPath, "-f", tree(t), "-a", "move")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination folder is required")
}

func TestRoot_DeleteExitsWithError(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	_, err := execute(t, "--config", configPath, "-f", tree(t), "-a", "delete", "--log-level", "error")
	assert.Error(t, err)
}

func TestRoot_SaveConfigAndHistory(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	db := filepath.Join(dir, "runs.db")

	_, err := execute(t, "--config", configPath, "-f", tree(t), "--db", db, "--workers", "2", "--log-level", "error", "--save-config")
	require.NoError(t, err)
	saved, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(saved), "workers: 2")

	// the database path now comes from the saved config
	out, err := execute(t, "history", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "RECLAIMABLE")
	assert.Contains(t, out, "report")
}

func TestHistory_ShowsRunFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	db := filepath.Join(dir, "runs.db")
	root := tree(t)
	quarantine := filepath.Join(dir, "X")

	_, err := execute(t, "--config", configPath, "-f", root, "-a", "move", "-d", quarantine, "--db", db, "--log-level", "error")
	require.NoError(t, err)

	listing, err := execute(t, "history", "--config", configPath, "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(listing), "\n")
	require.Len(t, lines, 2)
	runID := strings.Fields(lines[1])[0]

	out, err := execute(t, "history", runID, "--config", configPath, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "run "+runID)
	assert.Contains(t, out, filepath.Join(root, "one.bin"))
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "moved")
	assert.Contains(t, out, quarantine)

	_, err = execute(t, "history", "missing-run", "--config", configPath, "--db", db)
	assert.Error(t, err)
}
