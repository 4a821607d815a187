// Package langs maps file extensions to languages and knows how to build
// the external compiler invocation for a single source file.
package langs

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/shell"
)

// Language identifies one supported source language.
type Language int

const (
	C Language = iota
	Cpp
	Python
	Java
	Rust
	Go
	JavaScript
	TypeScript
	CSharp
	Swift
	Kotlin
	Scala
	Haskell
	FSharp
	OCaml
	Nim
	Zig
	V
	Odin
	Jai
)

// Command describes a single external process invocation.
type Command struct {
	Exe  string
	Args []string
}

type meta struct {
	key        string
	name       string
	extensions []string
	compiled   bool
	probeExe   string
	probeArgs  []string
}

var table = map[Language]meta{
	C:          {"c", "C", []string{"c", "h"}, true, "gcc", []string{"--version"}},
	Cpp:        {"cpp", "C++", []string{"cpp", "cc", "cxx", "c++", "hpp", "hxx", "h++"}, true, "g++", []string{"--version"}},
	Python:     {"python", "Python", []string{"py", "pyw", "pyx", "pxd"}, false, "", nil},
	Java:       {"java", "Java", []string{"java"}, true, "javac", []string{"-version"}},
	Rust:       {"rust", "Rust", []string{"rs"}, true, "rustc", []string{"--version"}},
	Go:         {"go", "Go", []string{"go"}, true, "go", []string{"version"}},
	JavaScript: {"js", "JavaScript", []string{"js", "mjs", "cjs"}, false, "", nil},
	TypeScript: {"ts", "TypeScript", []string{"ts", "tsx"}, false, "", nil},
	CSharp:     {"csharp", "C#", []string{"cs"}, true, "dotnet", []string{"--version"}},
	Swift:      {"swift", "Swift", []string{"swift"}, true, "swiftc", []string{"--version"}},
	Kotlin:     {"kotlin", "Kotlin", []string{"kt", "kts"}, true, "kotlinc", []string{"-version"}},
	Scala:      {"scala", "Scala", []string{"scala", "sc"}, true, "scalac", []string{"-version"}},
	Haskell:    {"haskell", "Haskell", []string{"hs", "lhs"}, true, "ghc", []string{"--version"}},
	FSharp:     {"fsharp", "F#", []string{"fs", "fsx", "fsi"}, true, "fsharpc", []string{"--help"}},
	OCaml:      {"ocaml", "OCaml", []string{"ml", "mli"}, true, "ocamlc", []string{"-version"}},
	Nim:        {"nim", "Nim", []string{"nim"}, true, "nim", []string{"--version"}},
	Zig:        {"zig", "Zig", []string{"zig"}, true, "zig", []string{"version"}},
	V:          {"v", "V", []string{"v"}, true, "v", []string{"version"}},
	Odin:       {"odin", "Odin", []string{"odin"}, true, "odin", []string{"version"}},
	Jai:        {"jai", "Jai", []string{"jai"}, true, "jai", []string{"--version"}},
}

var (
	byExtension = map[string]Language{}
	byKey       = map[string]Language{}
)

func init() {
	for lang, m := range table {
		byKey[m.key] = lang
		for _, ext := range m.extensions {
			if other, dup := byExtension[ext]; dup {
				panic("extension ." + ext + " claimed by both " + table[other].name + " and " + m.name)
			}
			byExtension[ext] = lang
		}
	}
}

// All returns every registered language.
func All() []Language {
	result := make([]Language, 0, len(table))
	for lang := Language(0); int(lang) < len(table); lang++ {
		result = append(result, lang)
	}
	return result
}

// FromExtension resolves a file extension (without the leading dot) to a
// language. Matching is case-insensitive.
func FromExtension(ext string) (Language, bool) {
	lang, ok := byExtension[strings.ToLower(ext)]
	return lang, ok
}

// FromKey resolves a config key like "cpp" to a language.
func FromKey(key string) (Language, bool) {
	lang, ok := byKey[strings.ToLower(key)]
	return lang, ok
}

// SupportedExtensions returns every extension in the registry.
func SupportedExtensions() []string {
	result := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		result = append(result, ext)
	}
	return result
}

// Key returns the stable identifier used in config files and CLI flags.
func (l Language) Key() string { return table[l].key }

// Name returns the human-readable language name.
func (l Language) Name() string { return table[l].name }

// Extensions returns the file extensions recognized for this language.
func (l Language) Extensions() []string { return table[l].extensions }

// Compiled reports whether this language needs an external compiler. The
// remaining languages are only syntax-checked.
func (l Language) Compiled() bool { return table[l].compiled }

// ProbeCommand returns the command used to test whether the compiler for
// this language is installed.
func (l Language) ProbeCommand() (string, []string) {
	return table[l].probeExe, table[l].probeArgs
}

// ObjectPath returns the object file a C or C++ compile writes for the given
// source file. The second return value is false for every other language.
func (l Language) ObjectPath(file, outputDir string) (string, bool) {
	if l != C && l != Cpp {
		return "", false
	}

	obj := strings.TrimSuffix(file, filepath.Ext(file)) + ".o"
	if outputDir != "" {
		obj = filepath.Join(outputDir, filepath.Base(obj))
	}
	return obj, true
}

// normalizeFlags splits a user-supplied flag string into tokens. Any token
// that doesn't already start with "-" gets the prefix prepended, so "O2" in
// a config file means "-O2".
func normalizeFlags(flags string) ([]string, error) {
	tokens, err := shell.Fields(flags, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to parse flag string %q", flags)
	}

	for idx, token := range tokens {
		if !strings.HasPrefix(token, "-") {
			tokens[idx] = "-" + token
		}
	}
	return tokens, nil
}

// BuildCommand returns the external invocation that compiles or checks the
// given file. customFlags is only honored for C and C++; outputDir redirects
// their object files when set.
func (l Language) BuildCommand(file, customFlags, outputDir string) (Command, error) {
	switch l {
	case C, Cpp:
		exe := "gcc"
		if l == Cpp {
			exe = "g++"
		}

		args := []string{"-c"}
		if customFlags != "" {
			flags, err := normalizeFlags(customFlags)
			if err != nil {
				return Command{}, err
			}
			args = append(args, flags...)
		}

		obj, _ := l.ObjectPath(file, outputDir)
		args = append(args, "-o", obj, file)
		return Command{Exe: exe, Args: args}, nil
	case Python:
		return Command{Exe: "python3", Args: []string{"-m", "py_compile", file}}, nil
	case Java:
		return Command{Exe: "javac", Args: []string{file}}, nil
	case Rust:
		return Command{Exe: "rustc", Args: []string{file}}, nil
	case Go:
		return Command{Exe: "go", Args: []string{"build", file}}, nil
	case JavaScript:
		return Command{Exe: "node", Args: []string{"--check", file}}, nil
	case TypeScript:
		return Command{Exe: "tsc", Args: []string{"--noEmit", file}}, nil
	case CSharp:
		return Command{Exe: "dotnet", Args: []string{"build", file}}, nil
	case Swift:
		return Command{Exe: "swiftc", Args: []string{file}}, nil
	case Kotlin:
		return Command{Exe: "kotlinc", Args: []string{file}}, nil
	case Scala:
		return Command{Exe: "scalac", Args: []string{file}}, nil
	case Haskell:
		return Command{Exe: "ghc", Args: []string{"-c", file}}, nil
	case FSharp:
		return Command{Exe: "fsharpc", Args: []string{file}}, nil
	case OCaml:
		return Command{Exe: "ocamlc", Args: []string{"-c", file}}, nil
	case Nim:
		return Command{Exe: "nim", Args: []string{"compile", file}}, nil
	case Zig:
		return Command{Exe: "zig", Args: []string{"build-exe", file}}, nil
	case V:
		return Command{Exe: "v", Args: []string{file}}, nil
	case Odin:
		return Command{Exe: "odin", Args: []string{"build", file}}, nil
	case Jai:
		return Command{Exe: "jai", Args: []string{file}}, nil
	}

	return Command{}, eris.Errorf("No build command registered for %s", l.Name())
}
