package scan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notname9390/lol/pkg/langs"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o770))
	require.NoError(t, os.WriteFile(path, []byte("content\n"), 0o660))
}

func TestClassifyMixedProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.c"))
	writeFile(t, filepath.Join(root, "helper.cpp"))
	writeFile(t, filepath.Join(root, "script.py"))
	writeFile(t, filepath.Join(root, ".hidden"))

	groups, err := Classify(root, Policy{All: true})
	require.NoError(t, err)

	assert.Len(t, groups[langs.C], 1)
	assert.Len(t, groups[langs.Cpp], 1)
	assert.Len(t, groups[langs.Python], 1)
	assert.NotContains(t, groups, langs.Java)

	for _, files := range groups {
		for _, file := range files {
			assert.NotEqual(t, ".hidden", filepath.Base(file))
		}
	}
}

func TestClassifySkipsUnknownExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"))
	writeFile(t, filepath.Join(root, "LICENSE"))
	writeFile(t, filepath.Join(root, "data.xyz"))
	writeFile(t, filepath.Join(root, "main.c"))

	groups, err := Classify(root, Policy{All: true})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Len(t, groups[langs.C], 1)
}

func TestClassifySkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "hook.py"))
	writeFile(t, filepath.Join(root, "src", "app.py"))

	groups, err := Classify(root, Policy{All: true})
	require.NoError(t, err)

	require.Len(t, groups[langs.Python], 1)
	assert.True(t, strings.HasSuffix(groups[langs.Python][0], filepath.Join("src", "app.py")))
}

func TestClassifySortsGroups(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "zeta.c"))
	writeFile(t, filepath.Join(root, "alpha.c"))
	writeFile(t, filepath.Join(root, "sub", "beta.c"))

	groups, err := Classify(root, Policy{All: true})
	require.NoError(t, err)

	files := groups[langs.C]
	require.Len(t, files, 3)
	assert.True(t, sortedStrings(files))
}

func sortedStrings(items []string) bool {
	for idx := 1; idx < len(items); idx++ {
		if items[idx-1] > items[idx] {
			return false
		}
	}
	return true
}

func TestClassifyExplicitSelection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.c"))
	writeFile(t, filepath.Join(root, "script.py"))

	groups, err := Classify(root, Policy{Selected: map[langs.Language]bool{langs.C: true}})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Len(t, groups[langs.C], 1)
}

func TestClassifyNoSelectionMeansAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.c"))
	writeFile(t, filepath.Join(root, "script.py"))

	groups, err := Classify(root, Policy{})
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestClassifyAllOverridesSelection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.c"))
	writeFile(t, filepath.Join(root, "script.py"))

	groups, err := Classify(root, Policy{
		Selected: map[langs.Language]bool{langs.C: true},
		All:      true,
	})
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestClassifyDisabledLanguages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.c"))
	writeFile(t, filepath.Join(root, "script.py"))

	groups, err := Classify(root, Policy{
		All:      true,
		Disabled: map[langs.Language]bool{langs.Python: true},
	})
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Len(t, groups[langs.C], 1)
}

func TestClassifyIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.c"))
	writeFile(t, filepath.Join(root, "vendor", "dep.c"))

	groups, err := Classify(root, Policy{
		All: true,
		Ignore: func(path string) bool {
			return strings.HasPrefix(path, "vendor/")
		},
	})
	require.NoError(t, err)

	require.Len(t, groups[langs.C], 1)
	assert.Equal(t, "main.c", filepath.Base(groups[langs.C][0]))
}

func TestClassifyRejectsBadRoots(t *testing.T) {
	_, err := Classify(filepath.Join(t.TempDir(), "missing"), Policy{All: true})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "afile.c")
	writeFile(t, file)
	_, err = Classify(file, Policy{All: true})
	assert.Error(t, err)
}

func TestTotalAndLanguages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.c"))
	writeFile(t, filepath.Join(root, "helper.cpp"))
	writeFile(t, filepath.Join(root, "other.c"))

	groups, err := Classify(root, Policy{All: true})
	require.NoError(t, err)

	assert.Equal(t, 3, Total(groups))
	assert.Equal(t, []langs.Language{langs.C, langs.Cpp}, Languages(groups))
}
