package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/notname9390/lol/pkg/langs"
)

// Format selects the artifact the builder produces.
type Format string

const (
	// FormatRun is a self-extracting POSIX sh launcher with a tar.xz payload.
	FormatRun Format = "run"
	// FormatBundle is the indexed brotli .lpk bundle.
	FormatBundle Format = "lpk"
)

// ParseFormat validates a --format flag value.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatRun:
		return FormatRun, nil
	case FormatBundle:
		return FormatBundle, nil
	}
	return "", eris.Errorf("Unknown archive format %q (expected run or lpk)", value)
}

// Build packages the classified sources below root into a single artifact
// named after name and returns the artifact path. No compiler is invoked.
func Build(name, root string, groups map[langs.Language][]string, format Format) (string, error) {
	files, err := relativeFiles(root, groups)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", eris.New("No source files found to package")
	}

	switch format {
	case FormatBundle:
		out := name + ".lpk"
		return out, buildBundle(out, root, files)
	case FormatRun:
		out := name + ".run"
		return out, buildLauncher(out, filepath.Base(name), root, files, groups)
	}
	return "", eris.Errorf("Unknown archive format %q", format)
}

// relativeFiles flattens the classification into sorted root-relative paths.
func relativeFiles(root string, groups map[langs.Language][]string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to resolve %s", root)
	}

	seen := make(map[string]bool)
	result := make([]string, 0)
	for _, group := range groups {
		for _, file := range group {
			rel, err := filepath.Rel(absRoot, file)
			if err != nil || strings.HasPrefix(rel, "..") {
				// files outside the project root keep only their base name
				rel = filepath.Base(file)
			}
			rel = filepath.ToSlash(rel)
			if !seen[rel] {
				seen[rel] = true
				result = append(result, rel)
			}
		}
	}

	sort.Strings(result)
	return result, nil
}

type fileTree struct {
	dirs  map[string]*fileTree
	files []string // relative to the scan root
}

func newFileTree() *fileTree {
	return &fileTree{dirs: map[string]*fileTree{}}
}

func buildTree(files []string) *fileTree {
	root := newFileTree()
	for _, file := range files {
		node := root
		parts := strings.Split(file, "/")
		for _, part := range parts[:len(parts)-1] {
			sub, ok := node.dirs[part]
			if !ok {
				sub = newFileTree()
				node.dirs[part] = sub
			}
			node = sub
		}
		node.files = append(node.files, file)
	}
	return root
}

func buildBundle(out, root string, files []string) error {
	writer, err := NewBundleWriter(out)
	if err != nil {
		return err
	}

	err = emitTree(writer, root, buildTree(files))
	if err != nil {
		writer.Close()
		os.Remove(out)
		return err
	}

	return writer.Close()
}

func emitTree(writer *BundleWriter, root string, node *fileTree) error {
	names := make([]string, 0, len(node.dirs))
	for name := range node.dirs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		writer.OpenDirectory(name)
		err := emitTree(writer, root, node.dirs[name])
		if err != nil {
			return err
		}

		err = writer.CloseDirectory()
		if err != nil {
			return err
		}
	}

	for _, rel := range node.files {
		hdl, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return eris.Wrapf(err, "Failed to open %s", rel)
		}

		err = writer.WriteFile(baseName(rel), hdl)
		hdl.Close()
		if err != nil {
			return eris.Wrapf(err, "Failed to pack %s", rel)
		}
	}
	return nil
}

func baseName(rel string) string {
	if idx := strings.LastIndexByte(rel, '/'); idx > -1 {
		return rel[idx+1:]
	}
	return rel
}

// Manifest renders the per-language inventory embedded into launcher
// archives and shown by verbose pack runs.
func Manifest(groups map[langs.Language][]string) string {
	var buf strings.Builder
	for _, lang := range langs.All() {
		files := groups[lang]
		if len(files) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "%s: %d files\n", lang.Name(), len(files))
	}
	return buf.String()
}
