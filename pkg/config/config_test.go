package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notname9390/lol/pkg/langs"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, runtime.NumCPU(), cfg.ParallelJobs)
	assert.NotEmpty(t, cfg.IgnorePatterns)
	assert.Contains(t, cfg.Languages, "c")
	assert.Equal(t, "build", cfg.OutputDir)
}

func TestShouldIgnore(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.ShouldIgnore("file.o"))
	assert.True(t, cfg.ShouldIgnore("build/file.cpp"))
	assert.True(t, cfg.ShouldIgnore("node_modules/pkg/index.js"))
	assert.False(t, cfg.ShouldIgnore("main.c"))
	assert.False(t, cfg.ShouldIgnore("src/helper.cpp"))
}

func TestIncludePatternsActAsAllowList(t *testing.T) {
	cfg := Default()
	cfg.IncludePatterns = []string{"*.c", "*.cpp"}

	assert.True(t, cfg.ShouldIgnore("file.py"))
	assert.False(t, cfg.ShouldIgnore("main.c"))
	assert.False(t, cfg.ShouldIgnore("helper.cpp"))
}

func TestEnabledAndFlags(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Enabled(langs.C))
	assert.Equal(t, "-Wall -Wextra -std=c99", cfg.FlagsFor(langs.C))

	// languages without an entry default to enabled with no flags
	assert.True(t, cfg.Enabled(langs.Zig))
	assert.Empty(t, cfg.FlagsFor(langs.Zig))

	cfg.Languages["java"] = LanguageSettings{Enabled: false}
	assert.False(t, cfg.Enabled(langs.Java))
}

func configDirEnv(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("config location override relies on XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadCreatesDefaultsOnFirstRun(t *testing.T) {
	configDirEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.ParallelJobs)

	path, err := Path()
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	configDirEnv(t)

	cfg := Default()
	cfg.ParallelJobs = 8
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, "*.tmp")
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.ParallelJobs)
	assert.Contains(t, loaded.IgnorePatterns, "*.tmp")
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	configDirEnv(t)

	path, err := Path()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o770))
	require.NoError(t, os.WriteFile(path, []byte("parallelJobs: [nope"), 0o660))

	_, err = Load()
	assert.Error(t, err)
}
