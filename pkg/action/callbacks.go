package action

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-kit/log/level"

	"github.com/cjungmann/ate/pkg/array"
	"github.com/cjungmann/ate/pkg/shell"
	"github.com/cjungmann/ate/pkg/table"
)

// scratch holds the temporary variables a callback-driven action passes
// to the host function.
type scratch struct {
	env   *shell.Environment
	names []string
}

func (s *Session) scratch() *scratch { return &scratch{env: s.env} }

func (sc *scratch) array(stem string) (string, *array.Array) {
	name := sc.env.UniqueName(stem)
	sc.names = append(sc.names, name)
	return name, sc.env.BindArray(name, nil).Array
}

func (sc *scratch) value(stem string) string {
	name := sc.env.UniqueName(stem)
	sc.names = append(sc.names, name)
	sc.env.BindString(name, "")
	return name
}

func (sc *scratch) text(name string) string {
	if v, ok := sc.env.Lookup(name); ok {
		return v.Text()
	}
	return ""
}

func (sc *scratch) release() {
	for _, name := range sc.names {
		sc.env.Unbind(name)
	}
}

func invoke(fn shell.Function, env *shell.Environment, name string, args []string) (int, error) {
	code, err := fn.Invoke(env, args)
	if err != nil {
		return code, fmt.Errorf("function '%s': %w", name, err)
	}
	return code, nil
}

func sortRows(s *Session, args []string) error {
	pos, extras, err := parseArgs(newFlags("sort"), args)
	if err != nil {
		return err
	}
	if err := expect(pos, 2, "handle", "function", "new_handle"); err != nil {
		return err
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	fn, err := s.function(pos[1])
	if err != nil {
		return err
	}
	// Without a new handle the sorted index replaces the source handle.
	target := pos[0]
	if len(pos) == 3 {
		target = pos[2]
	}
	if err := s.claim(target, shell.KindSpecial); err != nil {
		return err
	}

	sc := s.scratch()
	defer sc.release()
	result := sc.value(resultStem)
	leftName, left := sc.array(rowArrayStem)
	rightName, right := sc.array(rowArrayStem)
	callArgs := append([]string{result, leftName, rightName}, extras...)

	sorted, err := h.Sort(func(l, r []string) (int, error) {
		if err := fill(left, l); err != nil {
			return 0, err
		}
		if err := fill(right, r); err != nil {
			return 0, err
		}
		s.env.BindString(result, "0")
		if _, err := invoke(fn, s.env, pos[1], callArgs); err != nil {
			return 0, err
		}
		out := sc.text(result)
		n, err := strconv.Atoi(strings.TrimSpace(out))
		if err != nil {
			return 0, fmt.Errorf("%w: comparison result '%s' is not an integer", table.ErrUsage, out)
		}
		return n, nil
	})
	if err != nil {
		return err
	}
	level.Debug(s.logger).Log("msg", "sorted rows", "handle", target, "rows", sorted.RowCount())
	return s.bindHead(target, sorted)
}

func filterRows(s *Session, args []string) error {
	pos, extras, err := parseArgs(newFlags("filter"), args)
	if err != nil {
		return err
	}
	if err := expect(pos, 3, "handle", "function", "new_handle"); err != nil {
		return err
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	fn, err := s.function(pos[1])
	if err != nil {
		return err
	}
	if err := s.claim(pos[2], shell.KindSpecial); err != nil {
		return err
	}

	sc := s.scratch()
	defer sc.release()
	rowName, row := sc.array(rowArrayStem)
	callArgs := append([]string{rowName}, extras...)

	view, err := h.Filter(func(values []string) (bool, error) {
		if err := fill(row, values); err != nil {
			return false, err
		}
		code, err := invoke(fn, s.env, pos[1], callArgs)
		return code == 0, err
	})
	if err != nil {
		return err
	}
	level.Debug(s.logger).Log("msg", "filtered rows", "handle", pos[2], "kept", view.RowCount(), "of", h.RowCount())
	return s.bindHead(pos[2], view)
}

func makeKey(s *Session, args []string) error {
	fs := newFlags("make_key")
	column := fs.IntP("field", "f", -1, "use this field as the key instead of calling a function")
	integer := fs.BoolP("integer", "i", false, "order keys as integers")
	natural := fs.BoolP("natural", "n", false, "order keys in natural order")
	reverse := fs.BoolP("reverse", "r", false, "reverse the key order")
	pos, extras, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if *integer && *natural {
		return fmt.Errorf("%w: --integer and --natural are exclusive", table.ErrUsage)
	}

	spec := table.KeySpec{Column: *column, Order: table.KeyOrder{Reverse: *reverse}}
	switch {
	case *integer:
		spec.Order.Mode = table.KeyInteger
	case *natural:
		spec.Order.Mode = table.KeyNatural
	}

	var fnName, target string
	if fs.Changed("field") {
		if err := expect(pos, 2, "handle", "new_handle"); err != nil {
			return err
		}
		target = pos[1]
	} else {
		if err := expect(pos, 3, "handle", "function", "new_handle"); err != nil {
			return err
		}
		fnName, target = pos[1], pos[2]
	}

	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	if err := s.claim(target, shell.KindSpecial); err != nil {
		return err
	}
	if err := s.reserve(0, 2*h.RowCount()); err != nil {
		return err
	}

	sc := s.scratch()
	defer sc.release()
	if fnName != "" {
		fn, err := s.function(fnName)
		if err != nil {
			return err
		}
		result := sc.value(resultStem)
		rowName, row := sc.array(rowArrayStem)
		callArgs := append([]string{result, rowName}, extras...)
		spec.Func = func(values []string) (string, error) {
			if err := fill(row, values); err != nil {
				return "", err
			}
			s.env.BindString(result, "")
			if _, err := invoke(fn, s.env, fnName, callArgs); err != nil {
				return "", err
			}
			return sc.text(result), nil
		}
	}

	key, err := h.MakeKey(spec)
	if err != nil {
		return err
	}
	s.dropKeyArray(target)
	s.env.BindArray(s.env.UniqueName(keyArrayStem), key.Array())
	level.Debug(s.logger).Log("msg", "built key", "handle", target, "rows", key.RowCount(), "order", spec.Order.Mode)
	return s.bindHead(target, key)
}

// dropKeyArray unbinds the array behind the key index bound to name, unless
// another handle still reads it.
func (s *Session) dropKeyArray(name string) {
	old, err := s.head(name)
	if err != nil || !old.IsKey() {
		return
	}
	arrName, ok := s.env.FindArray(old.Array())
	if !ok || !strings.HasPrefix(arrName, keyArrayStem) {
		return
	}
	for _, other := range s.env.Names() {
		if other == name {
			continue
		}
		if h, err := s.head(other); err == nil && h.Array() == old.Array() {
			return
		}
	}
	s.env.Unbind(arrName)
}

func walkRows(s *Session, args []string) error {
	fs := newFlags("walk_rows")
	start := fs.IntP("start", "s", 0, "first row to visit")
	count := fs.IntP("count", "c", -1, "number of rows to visit")
	keyName := fs.StringP("key", "k", "", "visit rows in the order of this key index")
	pos, extras, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := expect(pos, 2, "handle", "function"); err != nil {
		return err
	}
	if fs.Changed("count") && *count < 1 {
		return fmt.Errorf("%w: row count must be at least 1", table.ErrUsage)
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	fn, err := s.function(pos[1])
	if err != nil {
		return err
	}

	sc := s.scratch()
	defer sc.release()
	rowName, row := sc.array(rowArrayStem)

	visit := func(values []string, n int) error {
		if err := fill(row, values); err != nil {
			return err
		}
		callArgs := append([]string{rowName, strconv.Itoa(n), pos[0]}, extras...)
		code, err := invoke(fn, s.env, pos[1], callArgs)
		if err != nil {
			return err
		}
		if code != 0 {
			return table.ErrStop
		}
		return nil
	}

	var visited int
	if *keyName != "" {
		key, err := s.head(*keyName)
		if err != nil {
			return err
		}
		visited, err = h.WalkKeyed(key, *start, *count, visit)
		if err != nil {
			return err
		}
	} else if visited, err = h.Walk(*start, *count, visit); err != nil {
		return err
	}
	level.Debug(s.logger).Log("msg", "walked rows", "handle", pos[0], "visited", visited)
	return nil
}
