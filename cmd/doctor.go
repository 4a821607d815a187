package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notname9390/lol/pkg/dispatch"
	"github.com/notname9390/lol/pkg/langs"
	"github.com/notname9390/lol/pkg/term"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Checks which language toolchains are installed",
	Long: `Runs every registered compiler's version command and reports which
toolchains are available on this machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		term.PrintTask("Checking toolchains")

		for _, status := range dispatch.Probe(cmd.Context()) {
			if status.Available {
				term.PrintSubtask(fmt.Sprintf("%-12s %s", status.Lang.Name(), status.Version))
			} else {
				exe, _ := status.Lang.ProbeCommand()
				term.PrintError(fmt.Sprintf("%-12s not found (%s)", status.Lang.Name(), exe))
			}
		}

		term.PrintSubtask(fmt.Sprintf("%d languages, %d file extensions recognized",
			len(langs.All()), len(langs.SupportedExtensions())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
