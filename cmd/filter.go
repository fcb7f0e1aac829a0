package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/cjungmann/ate/pkg/parser"
	"github.com/cjungmann/ate/pkg/script"
	"github.com/cjungmann/ate/pkg/shell"
	"github.com/cjungmann/ate/pkg/table"
)

var (
	filterFields  string
	filterExpr    string
	filterSort    string
	filterNatural bool
	filterReverse bool
)

var filterCmd = &cobra.Command{
	Use:   "filter [file|-]",
	Short: "Filter the rows of a JSON/JSONL file with an expression",
	Long: `Load the selected fields of every record into a table, keep the rows
for which the expression is true and print them as JSON Lines.

In the expression $1 is the row array, so $1[0] is the first selected
field. Each field is also a variable named after its path with
non-identifier characters replaced by '_' (info.age becomes info_age).

Examples:
  ate filter people.jsonl -w name,age -e 'age > 30'
  ate filter people.jsonl -w name,info.city -e 'contains(lower(info_city), "os")'
  ate filter people.jsonl -w name,age -e 'age >= 18' --sort age --natural`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterFields, "fields", "w", "", "Comma separated field paths")
	filterCmd.Flags().StringVarP(&filterExpr, "expr", "e", "", "Condition a row must satisfy")
	filterCmd.Flags().StringVar(&filterSort, "sort", "", "Order the output by this field")
	filterCmd.Flags().BoolVarP(&filterNatural, "natural", "n", false, "Sort naturally (img2 before img10)")
	filterCmd.Flags().BoolVarP(&filterReverse, "reverse", "r", false, "Sort in descending order")
	filterCmd.MarkFlagRequired("fields")
	filterCmd.MarkFlagRequired("expr")
}

func runFilter(cmd *cobra.Command, args []string) error {
	source := "-"
	if len(args) > 0 {
		source = args[0]
	}
	fields := parser.SplitFields(filterFields)
	fn, err := script.CompileCondition("filter", filterExpr)
	if err != nil {
		return fmt.Errorf("%w: %v", table.ErrUsage, err)
	}
	h, _, err := loadTable(source, fields)
	if err != nil {
		return err
	}
	if filterSort != "" {
		if h, err = sortByField(h, fields, filterSort); err != nil {
			return err
		}
	}
	view, err := filterTable(h, fields, fn)
	if err != nil {
		return err
	}
	return writeRows(cmd.OutOrStdout(), view, fields)
}

func sortByField(h *table.Head, fields []string, field string) (*table.Head, error) {
	col := slices.Index(fields, field)
	if col < 0 {
		return nil, fmt.Errorf("%w: sort field '%s' is not selected", table.ErrUsage, field)
	}
	order := table.KeyOrder{Reverse: filterReverse}
	if filterNatural {
		order.Mode = table.KeyNatural
	}
	return h.Sort(func(left, right []string) (int, error) {
		return order.Compare(left[col], right[col]), nil
	})
}

const rowVar = "ATE_ROW"

// filterTable runs fn for every row of h with the row bound as $1 and each
// field bound to its variable name.
func filterTable(h *table.Head, fields []string, fn shell.Function) (*table.Head, error) {
	env := shell.New(nil)
	row := env.BindArray(rowVar, nil).Array
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = fieldVar(f)
	}
	return h.Filter(func(values []string) (bool, error) {
		row.Flush()
		if err := row.Append(values...); err != nil {
			return false, err
		}
		for i, name := range names {
			env.BindString(name, values[i])
		}
		code, err := fn.Invoke(env, []string{rowVar})
		return code == 0, err
	})
}

func writeRows(out io.Writer, h *table.Head, fields []string) error {
	w := parser.NewRowWriter(out, fields)
	_, err := h.Walk(0, -1, func(row []string, _ int) error {
		return w.Write(row)
	})
	if err != nil && table.KindOf(err) != table.KindNotFound {
		return err
	}
	return w.Flush()
}
