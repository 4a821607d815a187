// Package project evaluates the optional build.star override script at a
// project root.
package project

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"

	"github.com/notname9390/lol/pkg/langs"
	"github.com/notname9390/lol/pkg/term"
)

// ScriptName is the file looked up at the project root.
const ScriptName = "build.star"

// Overrides collects the settings a build.star script may layer over the
// user config.
type Overrides struct {
	IgnorePatterns []string
	Flags          map[langs.Language]string
	Disabled       map[langs.Language]bool
}

type scriptCtx struct {
	overrides *Overrides
}

func getCtx(thread *starlark.Thread) *scriptCtx {
	return thread.Local("scriptCtx").(*scriptCtx)
}

func resolveLang(fn *starlark.Builtin, value starlark.Value) (langs.Language, error) {
	key, ok := starlark.AsString(value)
	if !ok {
		return 0, eris.Errorf("%s: expected a language name, got %s", fn.Name(), value.Type())
	}

	lang, ok := langs.FromKey(key)
	if !ok {
		return 0, eris.Errorf("%s: unknown language %q", fn.Name(), key)
	}
	return lang, nil
}

func starIgnore(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, eris.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	sctx := getCtx(thread)
	for _, arg := range args {
		pattern, ok := starlark.AsString(arg)
		if !ok {
			return nil, eris.Errorf("%s: expected a pattern string, got %s", fn.Name(), arg.Type())
		}
		sctx.overrides.IgnorePatterns = append(sctx.overrides.IgnorePatterns, pattern)
	}
	return starlark.None, nil
}

func starFlags(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var key, value string
	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "lang", &key, "flags", &value)
	if err != nil {
		return nil, err
	}

	lang, ok := langs.FromKey(key)
	if !ok {
		return nil, eris.Errorf("%s: unknown language %q", fn.Name(), key)
	}

	getCtx(thread).overrides.Flags[lang] = value
	return starlark.None, nil
}

func starDisable(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, eris.Errorf("%s: unexpected keyword arguments", fn.Name())
	}

	sctx := getCtx(thread)
	for _, arg := range args {
		lang, err := resolveLang(fn, arg)
		if err != nil {
			return nil, err
		}
		sctx.overrides.Disabled[lang] = true
	}
	return starlark.None, nil
}

// Load evaluates build.star in the given project root if it exists. A
// missing script yields empty overrides; a broken script is a fatal error
// just like a broken config file.
func Load(ctx context.Context, root string) (*Overrides, error) {
	overrides := &Overrides{
		Flags:    make(map[langs.Language]string),
		Disabled: make(map[langs.Language]bool),
	}

	scriptPath := filepath.Join(root, ScriptName)
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return overrides, nil
		}
		return nil, eris.Wrapf(err, "Failed to read %s", scriptPath)
	}

	builtins := starlark.StringDict{
		"ignore":  starlark.NewBuiltin("ignore", starIgnore),
		"flags":   starlark.NewBuiltin("flags", starFlags),
		"disable": starlark.NewBuiltin("disable", starDisable),
	}

	thread := &starlark.Thread{
		Name: ScriptName,
		Print: func(thread *starlark.Thread, msg string) {
			term.Log(ctx).Info().Str("thread", thread.Name).Msg(msg)
		},
	}
	thread.SetLocal("scriptCtx", &scriptCtx{overrides: overrides})

	_, err = starlark.ExecFile(thread, scriptPath, script, builtins)
	if err != nil {
		if evalError, ok := err.(*starlark.EvalError); ok {
			return nil, eris.Errorf("Failed to execute %s:\n%s", scriptPath, evalError.Backtrace())
		}
		return nil, eris.Wrapf(err, "Failed to execute %s", scriptPath)
	}

	return overrides, nil
}
