package interp

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"

	"github.com/cjungmann/ate/pkg/array"
	"github.com/cjungmann/ate/pkg/parser"
	"github.com/cjungmann/ate/pkg/script"
	"github.com/cjungmann/ate/pkg/shell"
	"github.com/cjungmann/ate/pkg/table"
)

// Builtin describes one interpreter command.
type Builtin struct {
	Name  string
	Usage string
	run   func(in *Interp, args []string) error
}

var builtins map[string]Builtin

func init() {
	list := []Builtin{
		{"ate", "ate ACTION [ARG...]", runAction},
		{"array", "array NAME [VALUE...]", defineArray},
		{"push", "push NAME VALUE...", pushValues},
		{"set", "set NAME VALUE", setValue},
		{"unset", "unset NAME...", unsetNames},
		{"function", "function NAME { BODY }", nil},
		{"echo", "echo [ARG...]", echo},
		{"print", "print NAME", printVariable},
		{"table", "table HANDLE", printTable},
		{"load", "load ARRAY SOURCE FIELD[,FIELD...]", loadRecords},
		{"dump", "dump HANDLE FIELD[,FIELD...] [FILE]", dumpRows},
		{"source", "source FILE", sourceFile},
		{"errmsg", "errmsg", errmsg},
		{"vars", "vars", listVars},
		{"help", "help", help},
		{"exit", "exit [CODE]", exit},
	}
	builtins = make(map[string]Builtin, len(list))
	for _, b := range list {
		builtins[b.Name] = b
	}
	// Reached only when the definition did not start the line.
	fn := builtins["function"]
	fn.run = func(*Interp, []string) error {
		return fmt.Errorf("%w: function definitions must start a line", table.ErrUsage)
	}
	builtins["function"] = fn
}

// Builtins returns the interpreter commands sorted by name.
func Builtins() []Builtin {
	out := make([]Builtin, 0, len(builtins))
	for _, b := range builtins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func usage(name string) error {
	return fmt.Errorf("%w: usage: %s", table.ErrUsage, builtins[name].Usage)
}

func runAction(in *Interp, args []string) error {
	if len(args) == 0 {
		return usage("ate")
	}
	return in.session.Do(args[0], args[1:])
}

// arrayVar returns the array bound to name, binding a new one when name is
// free.
func (in *Interp) arrayVar(name string) (*array.Array, error) {
	v, ok := in.env.Lookup(name)
	if !ok {
		return in.env.BindArray(name, nil).Array, nil
	}
	if v.Kind != shell.KindArray {
		return nil, fmt.Errorf("%w: '%s' is a %s, not an array", table.ErrTypeMismatch, name, v.Kind)
	}
	return v.Array, nil
}

func (in *Interp) reserve(arr *array.Array, n int) error {
	if in.limit > 0 && arr.Len()+n > in.limit {
		return fmt.Errorf("%w: %d elements exceed the limit of %d", table.ErrAlloc, arr.Len()+n, in.limit)
	}
	return nil
}

func (in *Interp) claimable(name string, kind shell.Kind) error {
	if v, ok := in.env.Lookup(name); ok && v.Kind != kind {
		return fmt.Errorf("%w: '%s' is already a %s variable", table.ErrUsage, name, v.Kind)
	}
	return nil
}

func defineArray(in *Interp, args []string) error {
	if len(args) == 0 {
		return usage("array")
	}
	if err := in.claimable(args[0], shell.KindArray); err != nil {
		return err
	}
	if in.limit > 0 && len(args)-1 > in.limit {
		return fmt.Errorf("%w: %d elements exceed the limit of %d", table.ErrAlloc, len(args)-1, in.limit)
	}
	in.env.BindArray(args[0], array.FromValues(args[1:]...))
	return nil
}

func pushValues(in *Interp, args []string) error {
	if len(args) < 2 {
		return usage("push")
	}
	arr, err := in.arrayVar(args[0])
	if err != nil {
		return err
	}
	if err := in.reserve(arr, len(args)-1); err != nil {
		return err
	}
	return arr.Append(args[1:]...)
}

func setValue(in *Interp, args []string) error {
	if len(args) != 2 {
		return usage("set")
	}
	if err := in.claimable(args[0], shell.KindString); err != nil {
		return err
	}
	in.env.BindString(args[0], args[1])
	return nil
}

func unsetNames(in *Interp, args []string) error {
	if len(args) == 0 {
		return usage("unset")
	}
	for _, name := range args {
		in.env.Unbind(name)
	}
	return nil
}

func echo(in *Interp, args []string) error {
	_, err := fmt.Fprintln(in.out, strings.Join(args, " "))
	return err
}

func printVariable(in *Interp, args []string) error {
	if len(args) != 1 {
		return usage("print")
	}
	v, ok := in.env.Lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: variable '%s'", table.ErrNotFound, args[0])
	}
	switch v.Kind {
	case shell.KindArray:
		var err error
		v.Array.Each(func(e *array.Element) bool {
			_, err = fmt.Fprintf(in.out, "[%d] %s\n", e.Index, e.Value)
			return err == nil
		})
		return err
	case shell.KindFunction:
		if fn, ok := v.Func.(*script.Function); ok {
			_, err := fmt.Fprintf(in.out, "function %s {\n%s\n}\n", fn.Name(), fn.Source())
			return err
		}
		_, err := fmt.Fprintf(in.out, "function %s\n", v.Name)
		return err
	case shell.KindSpecial:
		h, ok := v.Special.(*table.Head)
		if !ok {
			_, err := fmt.Fprintf(in.out, "%s: special\n", v.Name)
			return err
		}
		_, err := fmt.Fprintf(in.out, "%s: %d rows of %d fields, %s\n", v.Name, h.RowCount(), h.Width(), h.State())
		return err
	default:
		_, err := fmt.Fprintln(in.out, v.Value)
		return err
	}
}

func (in *Interp) head(name string) (*table.Head, error) {
	v, ok := in.env.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: handle '%s'", table.ErrNotFound, name)
	}
	h, ok := v.Special.(*table.Head)
	if !ok {
		return nil, fmt.Errorf("%w: '%s' is not a table handle", table.ErrTypeMismatch, name)
	}
	return h, nil
}

// printTable writes the rows of a table in aligned columns.
func printTable(in *Interp, args []string) error {
	if len(args) != 1 {
		return usage("table")
	}
	h, err := in.head(args[0])
	if err != nil {
		return err
	}
	if h.RowCount() == 0 {
		return h.Check(false)
	}
	sizes, err := h.FieldSizes()
	if err != nil {
		return err
	}
	it, err := h.Iterate(0, -1)
	if err != nil {
		return err
	}
	defer it.Close()
	var b strings.Builder
	for it.Next() {
		b.Reset()
		for i, v := range it.Row() {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(sizes)-1 {
				b.WriteString(v)
			} else {
				fmt.Fprintf(&b, "%-*s", sizes[i], v)
			}
		}
		if _, err := fmt.Fprintln(in.out, b.String()); err != nil {
			return err
		}
	}
	return it.Err()
}

// loadRecords appends the named fields of each JSON record in source to an
// array, one row per record.
func loadRecords(in *Interp, args []string) error {
	if len(args) != 3 {
		return usage("load")
	}
	fields := parser.SplitFields(args[2])
	if len(fields) == 0 {
		return usage("load")
	}
	arr, err := in.arrayVar(args[0])
	if err != nil {
		return err
	}
	r, err := parser.Open(args[1], in.stdin)
	if err != nil {
		return fmt.Errorf("%w: %v", table.ErrNotFound, err)
	}
	defer r.Close()

	n, err := parser.ForEachRow(r, fields, func(values []string) error {
		if err := in.reserve(arr, len(values)); err != nil {
			return err
		}
		return arr.Append(values...)
	})
	level.Debug(in.logger).Log("msg", "loaded records", "array", args[0], "records", n, "fields", len(fields))
	if err != nil && table.KindOf(err) == table.KindInternal {
		return fmt.Errorf("%w: %v", table.ErrUsage, err)
	}
	return err
}

// dumpRows writes the rows of a table as JSON Lines, naming the columns
// after fields.
func dumpRows(in *Interp, args []string) (err error) {
	if len(args) < 2 || len(args) > 3 {
		return usage("dump")
	}
	h, err := in.head(args[0])
	if err != nil {
		return err
	}
	fields := parser.SplitFields(args[1])
	if len(fields) != h.Width() {
		return fmt.Errorf("%w: %d field names for rows of %d fields", table.ErrUsage, len(fields), h.Width())
	}
	if err := h.Check(false); err != nil {
		return err
	}

	out := in.out
	if len(args) == 3 && args[2] != "-" {
		f, ferr := os.Create(args[2])
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}

	w := parser.NewRowWriter(out, fields)
	if h.RowCount() > 0 {
		it, err := h.Iterate(0, -1)
		if err != nil {
			return err
		}
		defer it.Close()
		for it.Next() {
			if err := w.Write(it.Row()); err != nil {
				return err
			}
		}
		if err := it.Err(); err != nil {
			return err
		}
	}
	return w.Flush()
}

func sourceFile(in *Interp, args []string) error {
	if len(args) != 1 {
		return usage("source")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", table.ErrNotFound, err)
	}
	defer f.Close()
	return in.Run(f, args[0])
}

func errmsg(in *Interp, args []string) error {
	if len(args) != 0 {
		return usage("errmsg")
	}
	_, err := fmt.Fprintln(in.out, in.env.LastError())
	return err
}

func listVars(in *Interp, args []string) error {
	if len(args) != 0 {
		return usage("vars")
	}
	for _, name := range in.env.Names() {
		v, _ := in.env.Lookup(name)
		if _, err := fmt.Fprintf(in.out, "%-24s %s\n", name, v.Kind); err != nil {
			return err
		}
	}
	return nil
}

func help(in *Interp, args []string) error {
	for _, b := range Builtins() {
		if _, err := fmt.Fprintln(in.out, b.Usage); err != nil {
			return err
		}
	}
	return nil
}

func exit(in *Interp, args []string) error {
	code := in.status
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid exit code '%s'", table.ErrUsage, args[0])
		}
		code = n
	default:
		return usage("exit")
	}
	return &ExitError{Code: code}
}
