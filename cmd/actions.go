package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cjungmann/ate/pkg/action"
	"github.com/cjungmann/ate/pkg/table"
)

var helpWidth uint

var actionsCmd = &cobra.Command{
	Use:   "actions [action]",
	Short: "Describe the actions of the ate verb",
	Long: `List every action the ate verb accepts with its usage, or describe a
single action.

Examples:
  ate actions
  ate actions walk_rows`,
	Args: cobra.MaximumNArgs(1),
	RunE: runActions,
}

func init() {
	actionsCmd.Flags().UintVarP(&helpWidth, "width", "w", 72, "Wrap descriptions at this column")
}

func runActions(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		info, ok := action.Describe(args[0])
		if !ok {
			return fmt.Errorf("%w: action '%s'", table.ErrNotFound, args[0])
		}
		return action.WriteHelp(out, info, helpWidth)
	}
	for _, info := range action.Actions() {
		if err := action.WriteHelp(out, info, helpWidth); err != nil {
			return err
		}
	}
	return nil
}

