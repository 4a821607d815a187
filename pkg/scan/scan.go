// Package scan walks a project tree and groups source files by language.
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/notname9390/lol/pkg/langs"
)

// Policy decides which discovered files end up in the classification.
type Policy struct {
	// Selected restricts the scan to these languages. An empty set means
	// every recognized language unless All is also false and a selection was
	// expected; see Wants.
	Selected map[langs.Language]bool

	// All forces every recognized language even if Selected is non-empty.
	All bool

	// Disabled languages are skipped regardless of selection.
	Disabled map[langs.Language]bool

	// Ignore is consulted with the path relative to the scan root. May be
	// nil.
	Ignore func(path string) bool
}

// Wants reports whether files of the given language should be collected.
func (p Policy) Wants(lang langs.Language) bool {
	if p.Disabled[lang] {
		return false
	}

	if p.All || len(p.Selected) == 0 {
		return true
	}

	return p.Selected[lang]
}

// Classify recursively enumerates root and returns the discovered files
// grouped by language, each group sorted and deduplicated. Hidden entries
// (leading dot) are skipped, symlinks are followed, and unreadable entries
// are silently dropped rather than failing the scan.
func Classify(root string, policy Policy) (map[langs.Language][]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, eris.Wrapf(err, "Project path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, eris.Errorf("Project path is not a directory: %s", root)
	}

	groups := make(map[langs.Language][]string)
	visited := make(map[string]bool)
	walk(root, root, policy, groups, visited)

	for lang, files := range groups {
		sort.Strings(files)
		groups[lang] = dedupe(files)
	}

	return groups, nil
}

func walk(root, dir string, policy Policy, groups map[langs.Language][]string, visited map[string]bool) {
	// guard against symlink cycles
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return
	}
	if visited[resolved] {
		return
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		// unreadable directories don't abort the scan
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		if info.IsDir() {
			walk(root, path, policy, groups, visited)
			continue
		}

		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if ext == "" {
			continue
		}

		lang, ok := langs.FromExtension(ext)
		if !ok || !policy.Wants(lang) {
			continue
		}

		if policy.Ignore != nil {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			if policy.Ignore(filepath.ToSlash(rel)) {
				continue
			}
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		groups[lang] = append(groups[lang], abs)
	}
}

func dedupe(sorted []string) []string {
	result := sorted[:0]
	for idx, item := range sorted {
		if idx == 0 || sorted[idx-1] != item {
			result = append(result, item)
		}
	}
	return result
}

// Total counts the files across all groups.
func Total(groups map[langs.Language][]string) int {
	total := 0
	for _, files := range groups {
		total += len(files)
	}
	return total
}

// Languages returns the languages present in the classification, ordered by
// their registry order for stable output.
func Languages(groups map[langs.Language][]string) []langs.Language {
	result := make([]langs.Language, 0, len(groups))
	for _, lang := range langs.All() {
		if len(groups[lang]) > 0 {
			result = append(result, lang)
		}
	}
	return result
}
