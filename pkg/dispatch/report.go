package dispatch

import (
	"fmt"
	"strings"

	"github.com/mitchellh/colorstring"

	"github.com/notname9390/lol/pkg/term"
)

// Summary holds the run-wide file counts.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Summarize folds the per-language results into run-wide counts.
func Summarize(results []Result) Summary {
	var s Summary
	for _, result := range results {
		s.Succeeded += len(result.Succeeded)
		s.Failed += len(result.Failed)
	}
	s.Total = s.Succeeded + s.Failed
	return s
}

// ExitCode is 0 iff no file failed anywhere.
func (s Summary) ExitCode() int {
	if s.Failed == 0 {
		return 0
	}
	return 1
}

// Render prints the per-language results and the run summary. verbose adds
// the captured compiler output per group.
func Render(results []Result, verbose bool) Summary {
	term.PrintTask("Compilation results")

	for _, result := range results {
		if result.Ok {
			term.PrintSubtask(fmt.Sprintf("%s: %d files compiled successfully", result.Lang.Name(), len(result.Succeeded)))
			if verbose && result.Output != "" {
				printIndented(result.Output)
			}
		} else {
			term.PrintError(fmt.Sprintf("%s: %d of %d files failed to compile",
				result.Lang.Name(), len(result.Failed), len(result.Failed)+len(result.Succeeded)))
			printIndented(result.Error)
		}
	}

	summary := Summarize(results)
	term.PrintTask("Summary")
	term.PrintSubtask(fmt.Sprintf("Total files: %d", summary.Total))
	term.PrintSubtask(fmt.Sprintf("Successful: %d", summary.Succeeded))
	if summary.Failed > 0 {
		term.PrintError(fmt.Sprintf("Failed: %d", summary.Failed))
	} else {
		colorstring.Printf("[green][bold]  ->[reset] Failed: 0\n")
	}
	return summary
}

func printIndented(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Println("     " + line)
	}
}
