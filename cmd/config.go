package cmd

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/notname9390/lol/pkg/config"
	"github.com/notname9390/lol/pkg/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or reset the user configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Prints the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path()
		if err != nil {
			return err
		}

		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Writes the default configuration",
	Long:  `Writes the documented defaults to the config file. Pass --force to overwrite an existing file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		path, err := config.Path()
		if err != nil {
			return err
		}

		if !force {
			_, err = os.Stat(path)
			if err == nil {
				return eris.Errorf("Config file %s already exists (use --force to overwrite)", path)
			}
			if !eris.Is(err, os.ErrNotExist) {
				return eris.Wrapf(err, "Failed to check %s", path)
			}
		}

		err = config.Default().Save()
		if err != nil {
			return err
		}

		term.PrintSubtask("Wrote defaults to " + path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
