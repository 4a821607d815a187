package langs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromExtension(t *testing.T) {
	lang, ok := FromExtension("c")
	require.True(t, ok)
	assert.Equal(t, C, lang)

	lang, ok = FromExtension("CPP")
	require.True(t, ok)
	assert.Equal(t, Cpp, lang)

	lang, ok = FromExtension("Rs")
	require.True(t, ok)
	assert.Equal(t, Rust, lang)

	_, ok = FromExtension("md")
	assert.False(t, ok)

	_, ok = FromExtension("")
	assert.False(t, ok)
}

func TestFromKey(t *testing.T) {
	lang, ok := FromKey("cpp")
	require.True(t, ok)
	assert.Equal(t, Cpp, lang)

	_, ok = FromKey("cobol")
	assert.False(t, ok)
}

func TestExtensionsAreUniqueAcrossRegistry(t *testing.T) {
	seen := map[string]Language{}
	for _, lang := range All() {
		for _, ext := range lang.Extensions() {
			other, dup := seen[ext]
			require.Falsef(t, dup, "extension %s claimed by both %s and %s", ext, other.Name(), lang.Name())
			seen[ext] = lang
		}
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Contains(t, exts, "c")
	assert.Contains(t, exts, "rs")
	assert.NotContains(t, exts, "md")

	total := 0
	for _, lang := range All() {
		total += len(lang.Extensions())
	}
	assert.Len(t, exts, total)
}

func TestBuildCommandC(t *testing.T) {
	cmd, err := C.BuildCommand(filepath.Join("src", "main.c"), "", "")
	require.NoError(t, err)

	assert.Equal(t, "gcc", cmd.Exe)
	assert.Equal(t, []string{"-c", "-o", filepath.Join("src", "main.o"), filepath.Join("src", "main.c")}, cmd.Args)
}

func TestBuildCommandFlagNormalization(t *testing.T) {
	cmd, err := C.BuildCommand("main.c", "O2", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"-c", "-O2", "-o", "main.o", "main.c"}, cmd.Args)

	cmd, err = Cpp.BuildCommand("main.cpp", "-Wall std=c++17", "")
	require.NoError(t, err)
	assert.Equal(t, "g++", cmd.Exe)
	assert.Equal(t, []string{"-c", "-Wall", "-std=c++17", "-o", "main.o", "main.cpp"}, cmd.Args)
}

func TestBuildCommandQuotedFlags(t *testing.T) {
	cmd, err := C.BuildCommand("main.c", `-DGREETING="hello world"`, "")
	require.NoError(t, err)
	assert.Contains(t, cmd.Args, "-DGREETING=hello world")
}

func TestBuildCommandOutputDir(t *testing.T) {
	cmd, err := C.BuildCommand(filepath.Join("src", "main.c"), "", "build")
	require.NoError(t, err)
	assert.Contains(t, cmd.Args, filepath.Join("build", "main.o"))
}

func TestBuildCommandCheckedLanguages(t *testing.T) {
	cmd, err := Python.BuildCommand("script.py", "", "")
	require.NoError(t, err)
	assert.Equal(t, "python3", cmd.Exe)
	assert.Equal(t, []string{"-m", "py_compile", "script.py"}, cmd.Args)

	cmd, err = JavaScript.BuildCommand("app.js", "", "")
	require.NoError(t, err)
	assert.Equal(t, "node", cmd.Exe)
	assert.Equal(t, []string{"--check", "app.js"}, cmd.Args)

	cmd, err = TypeScript.BuildCommand("app.ts", "", "")
	require.NoError(t, err)
	assert.Equal(t, "tsc", cmd.Exe)
	assert.Equal(t, []string{"--noEmit", "app.ts"}, cmd.Args)
}

func TestBuildCommandIgnoresFlagsForOtherLanguages(t *testing.T) {
	cmd, err := Rust.BuildCommand("lib.rs", "", "build")
	require.NoError(t, err)
	assert.Equal(t, "rustc", cmd.Exe)
	assert.Equal(t, []string{"lib.rs"}, cmd.Args)
}

func TestObjectPath(t *testing.T) {
	obj, ok := C.ObjectPath(filepath.Join("src", "main.c"), "")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("src", "main.o"), obj)

	obj, ok = Cpp.ObjectPath("helper.cpp", "out")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("out", "helper.o"), obj)

	_, ok = Rust.ObjectPath("lib.rs", "")
	assert.False(t, ok)
}

func TestCompiledSplit(t *testing.T) {
	assert.True(t, C.Compiled())
	assert.True(t, Rust.Compiled())
	assert.False(t, Python.Compiled())
	assert.False(t, JavaScript.Compiled())
	assert.False(t, TypeScript.Compiled())
}

func TestProbeCommands(t *testing.T) {
	exe, args := Go.ProbeCommand()
	assert.Equal(t, "go", exe)
	assert.Equal(t, []string{"version"}, args)

	exe, _ = Python.ProbeCommand()
	assert.Empty(t, exe)
}
