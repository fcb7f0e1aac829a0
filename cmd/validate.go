package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cjungmann/ate/pkg/interp"
)

var validateCmd = &cobra.Command{
	Use:   "validate SCRIPT...",
	Short: "Check ate scripts without running them",
	Long: `Check that every line of an ate script names a known command, that
every ate verb names a known action and that every function body parses.

Examples:
  ate validate people.ate
  cat people.ate | ate validate -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var failed error
	for _, path := range args {
		if err := validateScript(path); err != nil {
			fmt.Fprintf(out, "❌ %s:\n%v\n", sourceName(path), err)
			failed = err
			continue
		}
		fmt.Fprintf(out, "✅ %s\n", sourceName(path))
	}
	return failed
}

func validateScript(path string) error {
	if path == "-" {
		return interp.Validate(os.Stdin, sourceName(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return interp.Validate(f, path)
}
