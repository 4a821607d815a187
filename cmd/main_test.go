package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notname9390/lol/pkg/config"
)

// installStubCompiler puts a fake gcc on PATH so the pipeline runs without a
// real toolchain.
func installStubCompiler(t *testing.T, bin, script string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "gcc"), []byte(script), 0o755))
}

func TestRootCommandExitStatusFollowsSummary(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("relies on sh stubs and XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	require.NoError(t, cfg.Save())

	bin := t.TempDir()
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.c"), []byte("int main() { return 0; }\n"), 0o660))

	installStubCompiler(t, bin, "#!/bin/sh\nexit 1\n")
	exitStatus = 0
	rootCmd.SetArgs([]string{"--c", root})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, 1, exitStatus)

	installStubCompiler(t, bin, "#!/bin/sh\nexit 0\n")
	exitStatus = 1
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, 0, exitStatus)
}
