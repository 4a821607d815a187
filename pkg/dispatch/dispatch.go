// Package dispatch runs one external compiler process per source file,
// bounded by a global concurrency limit, and aggregates the per-language
// results.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/semaphore"

	"github.com/notname9390/lol/pkg/langs"
	"github.com/notname9390/lol/pkg/scan"
	"github.com/notname9390/lol/pkg/term"
)

// Outcome is the resolved result for a single file. It is only written once
// the file's subprocess has exited.
type Outcome struct {
	File   string
	Ok     bool
	Output string // combined diagnostics on success (warnings etc.)
	Error  string // stderr, falling back to stdout, falling back to a generic message
}

// Result aggregates the outcomes of one language group. Ok is false as soon
// as a single file in the group failed, but Succeeded still lists every file
// whose own compile worked.
type Result struct {
	Lang      langs.Language
	Succeeded []string
	Failed    []string
	Ok        bool
	Output    string
	Error     string
	Outcomes  []Outcome
}

type procOutput struct {
	ok     bool
	stdout string
	stderr string
	err    error
}

// Runner executes the classified file groups.
type Runner struct {
	// Jobs caps how many compiler processes run at once across all
	// languages.
	Jobs int

	// OutputDir redirects C/C++ object files when non-empty.
	OutputDir string

	// Flags returns the custom compiler flags for a language. May be nil.
	Flags func(langs.Language) string

	// Progress enables the terminal progress bar.
	Progress bool

	buildCmd func(langs.Language, string) (langs.Command, error)
	execute  func(context.Context, langs.Command) procOutput
}

// NewRunner returns a Runner with the default process execution backend.
func NewRunner(jobs int) *Runner {
	r := &Runner{Jobs: jobs}
	r.buildCmd = r.defaultBuildCmd
	r.execute = runProcess
	return r
}

func (r *Runner) defaultBuildCmd(lang langs.Language, file string) (langs.Command, error) {
	flags := ""
	if r.Flags != nil {
		flags = r.Flags(lang)
	}
	return lang.BuildCommand(file, flags, r.OutputDir)
}

func runProcess(ctx context.Context, spec langs.Command) procOutput {
	cmd := exec.CommandContext(ctx, spec.Exe, spec.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return procOutput{
		ok:     err == nil,
		stdout: stdout.String(),
		stderr: stderr.String(),
		err:    err,
	}
}

func newProgressBar(total int, visible bool) *progressbar.ProgressBar {
	if !visible || os.Getenv("CI") == "true" {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}

	return progressbar.Default(int64(total), "compiling")
}

// Run compiles every file of every group. Groups share the same global
// permit budget; each file acquires one permit, spawns one process, waits
// for it and releases the permit. The per-file bookkeeping is owned by the
// goroutine that ran the file, so no lock is needed beyond the semaphore.
func (r *Runner) Run(ctx context.Context, groups map[langs.Language][]string) []Result {
	jobs := r.Jobs
	if jobs < 1 {
		jobs = 1
	}

	sem := semaphore.NewWeighted(int64(jobs))
	bar := newProgressBar(scan.Total(groups), r.Progress)

	order := scan.Languages(groups)
	outcomes := make(map[langs.Language][]Outcome, len(order))

	var wg sync.WaitGroup
	for _, lang := range order {
		files := groups[lang]
		slots := make([]Outcome, len(files))
		outcomes[lang] = slots

		for idx, file := range files {
			wg.Add(1)
			go func(lang langs.Language, slots []Outcome, idx int, file string) {
				defer wg.Done()

				if err := sem.Acquire(ctx, 1); err != nil {
					slots[idx] = Outcome{File: file, Error: err.Error()}
					return
				}
				outcome := r.compileOne(ctx, lang, file)
				sem.Release(1)

				slots[idx] = outcome
				// one tick per finished file, regardless of outcome
				bar.Add(1)

				evt := term.Log(ctx).Debug().Str("lang", lang.Name()).Str("file", file)
				if outcome.Ok {
					evt.Msg("compiled")
				} else {
					evt.Msg("failed")
				}
			}(lang, slots, idx, file)
		}
	}
	wg.Wait()
	bar.Finish()

	results := make([]Result, 0, len(order))
	for _, lang := range order {
		results = append(results, aggregate(lang, outcomes[lang]))
	}
	return results
}

func (r *Runner) compileOne(ctx context.Context, lang langs.Language, file string) Outcome {
	spec, err := r.buildCmd(lang, file)
	if err != nil {
		return Outcome{File: file, Error: err.Error()}
	}

	proc := r.execute(ctx, spec)
	if proc.ok {
		return Outcome{File: file, Ok: true, Output: formatOutput(proc)}
	}

	return Outcome{File: file, Error: formatError(proc)}
}

// formatOutput merges stdout and stderr into the diagnostic text kept for a
// successful compile. A non-empty stderr (warnings) does not flip the
// outcome.
func formatOutput(proc procOutput) string {
	var buf strings.Builder
	if proc.stdout != "" {
		buf.WriteString(proc.stdout)
	}
	if proc.stderr != "" {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(proc.stderr)
	}
	return buf.String()
}

func formatError(proc procOutput) string {
	if proc.stderr != "" {
		return proc.stderr
	}
	if proc.stdout != "" {
		return proc.stdout
	}

	// A process that exited non-zero without output gets the generic
	// message; the underlying error text is only useful when the process
	// never started (missing compiler).
	var exitErr *exec.ExitError
	if proc.err != nil && !errors.As(proc.err, &exitErr) {
		return proc.err.Error()
	}
	return "unknown compilation error"
}

func aggregate(lang langs.Language, outcomes []Outcome) Result {
	result := Result{Lang: lang, Ok: true, Outcomes: outcomes}

	var output, errors strings.Builder
	for _, outcome := range outcomes {
		if outcome.Ok {
			result.Succeeded = append(result.Succeeded, outcome.File)
			if outcome.Output != "" {
				output.WriteString(outcome.File + ": " + outcome.Output + "\n")
			}
		} else {
			result.Failed = append(result.Failed, outcome.File)
			errors.WriteString(outcome.File + ": " + outcome.Error + "\n")
		}
	}

	// a single failed file fails the whole group
	result.Ok = len(result.Failed) == 0
	if result.Ok {
		result.Output = output.String()
	} else {
		result.Error = errors.String()
	}
	return result
}
