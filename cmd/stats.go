package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cjungmann/ate/pkg/parser"
	"github.com/cjungmann/ate/pkg/table"
)

var (
	statsFields  string
	statsNatural bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [file|-]",
	Short: "Show statistics about fields of a JSON/JSONL file",
	Long: `Load the selected fields of every record into a table and report, for
each field, how many distinct and empty values it holds, its smallest and
largest value and its widest value.

Supports:
  - File paths: ate stats data.json -w name
  - Stdin: cat data.json | ate stats -w name

Examples:
  ate stats people.jsonl -w name,age
  ate stats people.jsonl -w name,info.city --natural`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsFields, "fields", "w", "", "Comma separated field paths")
	statsCmd.Flags().BoolVarP(&statsNatural, "natural", "n", false, "Order values naturally (img2 before img10)")
	statsCmd.MarkFlagRequired("fields")
}

// FieldStats summarizes one column of a table.
type FieldStats struct {
	Field    string
	Distinct int
	Empty    int
	Min      string
	Max      string
	Width    int
}

func runStats(cmd *cobra.Command, args []string) error {
	source := "-"
	if len(args) > 0 {
		source = args[0]
	}
	fields := parser.SplitFields(statsFields)
	h, lines, err := loadTable(source, fields)
	if err != nil {
		return err
	}

	mode := table.KeyString
	if statsNatural {
		mode = table.KeyNatural
	}
	stats, err := gatherStats(h, fields, mode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File: %s\n", sourceName(source))
	fmt.Fprintf(out, "Format: %s\n", getFormat(lines))
	fmt.Fprintf(out, "Total records: %d\n", h.RowCount())
	return printStats(out, stats)
}

// gatherStats builds a key over each column and reads the statistics off
// the ordered keys.
func gatherStats(h *table.Head, fields []string, mode table.KeyMode) ([]FieldStats, error) {
	sizes := make([]int, len(fields))
	if h.RowCount() > 0 {
		var err error
		if sizes, err = h.FieldSizes(); err != nil {
			return nil, err
		}
	}

	stats := make([]FieldStats, len(fields))
	for i, f := range fields {
		st := FieldStats{Field: f, Width: sizes[i]}
		if h.RowCount() == 0 {
			stats[i] = st
			continue
		}
		key, err := h.MakeKey(table.KeySpec{Column: i, Order: table.KeyOrder{Mode: mode}})
		if err != nil {
			return nil, err
		}
		var prev *string
		_, err = key.Walk(0, -1, func(row []string, _ int) error {
			v := row[0]
			if v == "" {
				st.Empty++
				return nil
			}
			if prev == nil || *prev != v {
				st.Distinct++
			}
			if st.Min == "" {
				st.Min = v
			}
			st.Max = v
			prev = &v
			return nil
		})
		if err != nil {
			return nil, err
		}
		stats[i] = st
	}
	return stats, nil
}

func printStats(out io.Writer, stats []FieldStats) error {
	if _, err := fmt.Fprintf(out, "\nFields:\n"); err != nil {
		return err
	}
	for _, st := range stats {
		_, err := fmt.Fprintf(out, "  %s:\n    distinct: %d\n    empty: %d\n    min: %s\n    max: %s\n    width: %d\n",
			st.Field, st.Distinct, st.Empty, st.Min, st.Max, st.Width)
		if err != nil {
			return err
		}
	}
	return nil
}
