package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersionInfo(t *testing.T) {
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
	}{
		{
			name:      "set all values",
			version:   "1.0.0",
			commit:    "abc123",
			buildDate: "2026-01-15",
		},
		{
			name:      "set dev version",
			version:   "dev",
			commit:    "HEAD",
			buildDate: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersionInfo(tt.version, tt.commit, tt.buildDate)

			assert.Equal(t, tt.version, versionInfo.Version)
			assert.Equal(t, tt.commit, versionInfo.Commit)
			assert.Equal(t, tt.buildDate, versionInfo.BuildDate)
		})
	}
}

func writeTestConfig(t *testing.T, uploadsRoot, executable string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "openscribe.yaml")
	content := "jobs:\n  uploads_root: " + uploadsRoot + "\n"
	if executable != "" {
		content += "transcriber:\n  executable_path: " + executable + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runWithArgs(t *testing.T, args ...string) error {
	t.Helper()

	origCfg := cfgFile
	defer func() {
		cfgFile = origCfg
		rootCmd.SetArgs(nil)
	}()

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestJobsGC(t *testing.T) {
	uploadsRoot := t.TempDir()
	cfgPath := writeTestConfig(t, uploadsRoot, "")

	stale := filepath.Join(uploadsRoot, "stale-job")
	fresh := filepath.Join(uploadsRoot, "fresh-job")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.MkdirAll(fresh, 0o755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	err := runWithArgs(t, "jobs", "gc", "--config", cfgPath, "--max-age", "30m")
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale dir should be removed")
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh dir should survive")
}

func TestJobsGC_DryRun(t *testing.T) {
	uploadsRoot := t.TempDir()
	cfgPath := writeTestConfig(t, uploadsRoot, "")

	stale := filepath.Join(uploadsRoot, "stale-job")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	err := runWithArgs(t, "jobs", "gc", "--config", cfgPath, "--max-age", "30m", "--dry-run")
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.NoError(t, err, "dry run must not delete")
}

func TestJobsGC_InvalidMaxAge(t *testing.T) {
	cfgPath := writeTestConfig(t, t.TempDir(), "")

	err := runWithArgs(t, "jobs", "gc", "--config", cfgPath, "--max-age", "soon")
	require.Error(t, err)
}

func TestDoctor(t *testing.T) {
	t.Run("passes with executable and writable root", func(t *testing.T) {
		exe := filepath.Join(t.TempDir(), "transcribe")
		require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))
		cfgPath := writeTestConfig(t, t.TempDir(), exe)

		err := runWithArgs(t, "doctor", "--config", cfgPath)
		assert.NoError(t, err)
	})

	t.Run("fails without executable", func(t *testing.T) {
		cfgPath := writeTestConfig(t, t.TempDir(), "")

		err := runWithArgs(t, "doctor", "--config", cfgPath)
		require.Error(t, err)
	})
}
