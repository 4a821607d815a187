// Package cmd implements the lol CLI.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/notname9390/lol/pkg/config"
	"github.com/notname9390/lol/pkg/dispatch"
	"github.com/notname9390/lol/pkg/langs"
	"github.com/notname9390/lol/pkg/pack"
	"github.com/notname9390/lol/pkg/project"
	"github.com/notname9390/lol/pkg/scan"
	"github.com/notname9390/lol/pkg/term"
	"github.com/notname9390/lol/pkg/watch"
)

// langFlags maps the language selection flags to registry keys.
var langFlags = []string{"c", "cpp", "python", "java", "rust", "go", "js", "ts"}

var rootCmd = &cobra.Command{
	Use:   "lol project_path",
	Short: "The fast multi-language code compiler",
	Long: `lol scans a project directory, classifies the source files by language and
compiles (or syntax-checks) each file with the matching toolchain, bounded by
a global parallelism limit. With --name it packages the classified sources
into a single distributable archive instead of compiling.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}
		verbose = verbose || cfg.Verbose

		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger := zerolog.New(term.NewConsoleWriter()).Level(level)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx = term.WithLogger(ctx, &logger)

		run, err := newPipeline(ctx, cmd, args[0], cfg, verbose)
		if err != nil {
			return err
		}

		name, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		if name != "" {
			return run.packArchive(name)
		}

		summary, err := run.compile()
		if err != nil {
			return err
		}

		watchMode, err := cmd.Flags().GetBool("watch")
		if err != nil {
			return err
		}
		if watchMode || cfg.Watch {
			term.PrintTask("Watching for changes (Ctrl+C to stop)")
			return watch.Run(ctx, run.root, func() {
				_, err := run.compile()
				if err != nil {
					term.PrintError(err.Error())
				}
			})
		}

		exitStatus = summary.ExitCode()
		return nil
	},
}

// exitStatus is set by the root command and consumed after Execute so that
// deferred cleanup still runs before the process exits.
var exitStatus int

// pipeline carries everything one classify→dispatch→report pass needs so
// watch mode can rerun it from scratch.
type pipeline struct {
	ctx       context.Context
	root      string
	cfg       *config.Config
	overrides *project.Overrides
	policy    scan.Policy
	jobs      int
	verbose   bool
	format    pack.Format
	cflags    string
	cxxflags  string
}

func newPipeline(ctx context.Context, cmd *cobra.Command, root string, cfg *config.Config, verbose bool) (*pipeline, error) {
	overrides, err := project.Load(ctx, root)
	if err != nil {
		return nil, err
	}

	selected := make(map[langs.Language]bool)
	for _, flag := range langFlags {
		enabled, err := cmd.Flags().GetBool(flag)
		if err != nil {
			return nil, err
		}
		if enabled {
			lang, _ := langs.FromKey(flag)
			selected[lang] = true
		}
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return nil, err
	}

	disabled := make(map[langs.Language]bool)
	for _, lang := range langs.All() {
		if !cfg.Enabled(lang) || overrides.Disabled[lang] {
			disabled[lang] = true
		}
	}

	jobs := cfg.ParallelJobs
	if cmd.Flags().Changed("jobs") {
		jobs, err = cmd.Flags().GetInt("jobs")
		if err != nil {
			return nil, err
		}
	}
	if jobs < 1 {
		jobs = runtime.NumCPU()
	}

	cflags, err := cmd.Flags().GetString("cflags")
	if err != nil {
		return nil, err
	}

	cxxflags, err := cmd.Flags().GetString("cxxflags")
	if err != nil {
		return nil, err
	}

	formatValue, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	format, err := pack.ParseFormat(formatValue)
	if err != nil {
		return nil, err
	}

	run := &pipeline{
		ctx:       ctx,
		root:      root,
		cfg:       cfg,
		overrides: overrides,
		jobs:      jobs,
		verbose:   verbose,
		format:    format,
		cflags:    cflags,
		cxxflags:  cxxflags,
	}
	run.policy = scan.Policy{
		Selected: selected,
		All:      all,
		Disabled: disabled,
		Ignore:   run.shouldIgnore,
	}
	return run, nil
}

func (p *pipeline) shouldIgnore(path string) bool {
	if p.cfg.ShouldIgnore(path) {
		return true
	}

	for _, pattern := range p.overrides.IgnorePatterns {
		tmp := config.Config{IgnorePatterns: []string{pattern}}
		if tmp.ShouldIgnore(path) {
			return true
		}
	}
	return false
}

// flagsFor resolves custom compiler flags: CLI flags beat build.star beats
// the user config.
func (p *pipeline) flagsFor(lang langs.Language) string {
	if lang == langs.C && p.cflags != "" {
		return p.cflags
	}
	if lang == langs.Cpp && p.cxxflags != "" {
		return p.cxxflags
	}
	if flags, ok := p.overrides.Flags[lang]; ok {
		return flags
	}
	return p.cfg.FlagsFor(lang)
}

func (p *pipeline) classify() (map[langs.Language][]string, error) {
	groups, err := scan.Classify(p.root, p.policy)
	if err != nil {
		return nil, err
	}

	if scan.Total(groups) == 0 {
		term.PrintWarning("No source files found")
		return groups, nil
	}

	term.PrintTask("Detected source files")
	for _, lang := range scan.Languages(groups) {
		term.PrintSubtask(fmt.Sprintf("%s: %d files", lang.Name(), len(groups[lang])))
		if p.verbose {
			for _, file := range groups[lang] {
				fmt.Println("     " + file)
			}
		}
	}
	return groups, nil
}

func (p *pipeline) compile() (dispatch.Summary, error) {
	groups, err := p.classify()
	if err != nil {
		return dispatch.Summary{}, err
	}
	if scan.Total(groups) == 0 {
		return dispatch.Summary{}, nil
	}

	runner := dispatch.NewRunner(p.jobs)
	runner.OutputDir = p.cfg.OutputDir
	runner.Flags = p.flagsFor
	runner.Progress = true

	if p.cfg.OutputDir != "" {
		err = os.MkdirAll(p.cfg.OutputDir, 0o770)
		if err != nil {
			return dispatch.Summary{}, eris.Wrapf(err, "Failed to create output directory %s", p.cfg.OutputDir)
		}
	}

	results := runner.Run(p.ctx, groups)
	summary := dispatch.Render(results, p.verbose)

	if p.cfg.AutoClean && summary.Failed == 0 {
		p.cleanObjects(results)
	}
	return summary, nil
}

// cleanObjects drops the object files a successful C/C++ run left behind.
func (p *pipeline) cleanObjects(results []dispatch.Result) {
	for _, result := range results {
		for _, file := range result.Succeeded {
			obj, ok := result.Lang.ObjectPath(file, p.cfg.OutputDir)
			if !ok {
				continue
			}
			err := os.Remove(obj)
			if err != nil && !eris.Is(err, os.ErrNotExist) {
				term.Log(p.ctx).Warn().Err(err).Str("file", obj).Msg("could not clean object file")
			}
		}
	}
}

func (p *pipeline) packArchive(name string) error {
	groups, err := p.classify()
	if err != nil {
		return err
	}
	if scan.Total(groups) == 0 {
		return nil
	}

	term.PrintTask(fmt.Sprintf("Packaging %s", name))
	artifact, err := pack.Build(name, p.root, groups, p.format)
	if err != nil {
		return err
	}

	term.PrintSubtask("Created " + artifact)
	return nil
}

func init() {
	rootCmd.Flags().Bool("c", false, "compile C files")
	rootCmd.Flags().Bool("cpp", false, "compile C++ files")
	rootCmd.Flags().Bool("python", false, "check Python files")
	rootCmd.Flags().Bool("java", false, "compile Java files")
	rootCmd.Flags().Bool("rust", false, "compile Rust files")
	rootCmd.Flags().Bool("go", false, "compile Go files")
	rootCmd.Flags().Bool("js", false, "check JavaScript files")
	rootCmd.Flags().Bool("ts", false, "check TypeScript files")
	rootCmd.Flags().Bool("all", false, "compile all detected languages")
	rootCmd.Flags().BoolP("verbose", "v", false, "show verbose output")
	rootCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "number of parallel compilation jobs")
	rootCmd.Flags().String("cflags", "", "custom compiler flags for C")
	rootCmd.Flags().String("cxxflags", "", "custom compiler flags for C++")
	rootCmd.Flags().String("name", "", "create an archive with the consolidated sources instead of compiling")
	rootCmd.Flags().String("format", string(pack.FormatRun), "archive format (run or lpk)")
	rootCmd.Flags().BoolP("watch", "w", false, "watch the project and recompile on changes")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	if exitStatus != 0 {
		os.Exit(exitStatus)
	}
}
