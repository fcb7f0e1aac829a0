package cmd

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run SCRIPT...",
	Short: "Run ate scripts",
	Long: `Run one or more ate scripts in a single session. Variables, tables and
functions defined by a script stay visible to the scripts after it. Use
"-" to read a script from stdin.

Examples:
  ate run lib.ate report.ate
  ate run --keep-going cleanup.ate
  cat people.ate | ate run -`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScripts(newInterp(), args)
	},
}
