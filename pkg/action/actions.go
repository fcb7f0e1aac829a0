package action

import (
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/cjungmann/ate/pkg/table"
)

// Info describes one action.
type Info struct {
	Name        string
	Description string
	Usage       string
}

type action struct {
	Info
	run func(s *Session, args []string) error
}

var actions []action

func init() {
	actions = []action{
		{Info{"declare", "Create a table handle over an existing array, or over a new hosted array when none is named.",
			"declare HANDLE ROW_SIZE [ARRAY_NAME]"}, declare},
		{Info{"append_data", "Append values to the table's array in whole rows. Values short of a full row are held until later values complete it. Run index_rows to include the new rows.",
			"append_data HANDLE VALUE..."}, appendData},
		{Info{"index_rows", "Rebuild the row index of a handle from its array.",
			"index_rows HANDLE"}, indexRows},
		{Info{"reindex_elements", "Relink the array to follow the handle's row order and renumber its elements.",
			"reindex_elements HANDLE"}, reindexElements},
		{Info{"get_row_count", "Store the number of rows of a table.",
			"get_row_count HANDLE [-v NAME]"}, scalar("get_row_count", rowCount)},
		{Info{"get_row_size", "Store the number of fields per row of a table.",
			"get_row_size HANDLE [-v NAME]"}, scalar("get_row_size", rowSize)},
		{Info{"get_array_name", "Store the name of the array a table indexes.",
			"get_array_name HANDLE [-v NAME]"}, scalar("get_array_name", arrayName)},
		{Info{"get_field_sizes", "Store the longest value of each column in an array.",
			"get_field_sizes HANDLE [-a NAME]"}, fieldSizes},
		{Info{"get_row", "Copy the values of a row into an array.",
			"get_row HANDLE ROW_NUMBER [-a NAME]"}, getRow},
		{Info{"put_row", "Overwrite the values of a row from an array of exactly the row size.",
			"put_row HANDLE ROW_NUMBER ARRAY_NAME"}, putRow},
		{Info{"resize_rows", "Change the number of fields per row in place. Every row gains empty trailing fields or loses its trailing fields, so the element count changes: 8 elements at size 2 resized to 3 become 12. A size that does not divide the element count is not an error here. With -g the same elements are regrouped into rows of the new size instead, which fails and leaves the table unchanged unless the size divides the element count.",
			"resize_rows HANDLE NEW_SIZE [-g]"}, resizeRows},
		{Info{"sort", "Sort the rows of a table with a comparison function called as FUNCTION RESULT LEFT RIGHT [EXTRA...]. The function sets RESULT to a negative, zero or positive integer. Without NEW_HANDLE the sorted index replaces HANDLE.",
			"sort HANDLE FUNCTION [NEW_HANDLE] [-- EXTRA...]"}, sortRows},
		{Info{"filter", "Create a handle over the rows accepted by a function called as FUNCTION ROW [EXTRA...]. A status of 0 accepts the row.",
			"filter HANDLE FUNCTION NEW_HANDLE [-- EXTRA...]"}, filterRows},
		{Info{"make_key", "Build a sorted key index of (key, row number) rows. The key is a field selected with -f, or the value a function called as FUNCTION RESULT ROW [EXTRA...] stores in RESULT.",
			"make_key HANDLE [FUNCTION] NEW_HANDLE [-f FIELD] [-i|-n] [-r] [-- EXTRA...]"}, makeKey},
		{Info{"seek_key", "Store the first row of a key index whose key sorts at or after TARGET.",
			"seek_key HANDLE TARGET [-v NAME] [-p] [-l]"}, seekKey},
		{Info{"walk_rows", "Call a function for each row as FUNCTION ROW ROW_NUMBER HANDLE [EXTRA...]. A non-zero status stops the walk. With -k rows are visited in key order.",
			"walk_rows HANDLE FUNCTION [-s START] [-c COUNT] [-k KEY_HANDLE] [-- EXTRA...]"}, walkRows},
		{Info{"list_actions", "List the available actions.",
			"list_actions"}, listActions},
		{Info{"show_action", "Describe one action, or every action when none is named.",
			"show_action [ACTION]"}, showAction},
	}
}

func lookup(name string) (action, bool) {
	for _, a := range actions {
		if a.Name == name {
			return a, true
		}
	}
	return action{}, false
}

// Actions returns the description of every action.
func Actions() []Info {
	out := make([]Info, len(actions))
	for i, a := range actions {
		out[i] = a.Info
	}
	return out
}

// Describe returns the description of the action name.
func Describe(name string) (Info, bool) {
	a, ok := lookup(name)
	return a.Info, ok
}

// WriteHelp writes a wrapped description of info to w.
func WriteHelp(w io.Writer, info Info, width uint) error {
	body := wordwrap.WrapString(info.Description, width-2)
	_, err := fmt.Fprintf(w, "%s\n  %s\n  usage: %s\n",
		info.Name, strings.ReplaceAll(body, "\n", "\n  "), info.Usage)
	return err
}

func listActions(s *Session, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected argument '%s'", table.ErrUsage, args[0])
	}
	for _, a := range actions {
		if _, err := fmt.Fprintln(s.env.Out(), a.Name); err != nil {
			return err
		}
	}
	return nil
}

func showAction(s *Session, args []string) error {
	if err := expect(args, 0, "action"); err != nil {
		return err
	}
	if len(args) == 1 {
		info, ok := Describe(args[0])
		if !ok {
			return fmt.Errorf("%w: action '%s'", table.ErrNotFound, args[0])
		}
		return WriteHelp(s.env.Out(), info, 72)
	}
	for _, a := range actions {
		if err := WriteHelp(s.env.Out(), a.Info, 72); err != nil {
			return err
		}
	}
	return nil
}
