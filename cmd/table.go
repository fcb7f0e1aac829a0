package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/cjungmann/ate/pkg/array"
	"github.com/cjungmann/ate/pkg/parser"
	"github.com/cjungmann/ate/pkg/table"
)

// loadTable reads the fields of every record in source into a new array
// and indexes it as a table with one row per record.
func loadTable(source string, fields []string) (*table.Head, bool, error) {
	if len(fields) == 0 {
		return nil, false, fmt.Errorf("%w: no fields selected", table.ErrUsage)
	}
	r, err := parser.Open(source, os.Stdin)
	if err != nil {
		return nil, false, err
	}
	defer r.Close()

	arr := array.New()
	_, err = parser.ForEachRow(r, fields, func(values []string) error {
		if settings.MaxElements > 0 && arr.Len()+len(values) > settings.MaxElements {
			return fmt.Errorf("%w: more than %d elements", table.ErrAlloc, settings.MaxElements)
		}
		return arr.Append(values...)
	})
	if err != nil {
		return nil, false, err
	}
	h, err := table.Build(arr, len(fields))
	return h, r.Lines(), err
}

// fieldVar turns a field path such as "user.name" into a variable name.
func fieldVar(field string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, field)
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

func sourceName(source string) string {
	if source == "" || source == "-" {
		return "<stdin>"
	}
	return source
}

func getFormat(isJSONL bool) string {
	if isJSONL {
		return "JSONL"
	}
	return "JSON"
}
