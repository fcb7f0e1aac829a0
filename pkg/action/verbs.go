package action

import (
	"fmt"
	"strconv"

	"github.com/go-kit/log/level"

	"github.com/cjungmann/ate/pkg/array"
	"github.com/cjungmann/ate/pkg/shell"
	"github.com/cjungmann/ate/pkg/table"
)

func declare(s *Session, args []string) error {
	pos, _, err := parseArgs(newFlags("declare"), args)
	if err != nil {
		return err
	}
	if err := expect(pos, 2, "handle", "row_size", "array_name"); err != nil {
		return err
	}
	if err := s.claim(pos[0], shell.KindSpecial); err != nil {
		return err
	}
	width, err := strconv.Atoi(pos[1])
	if err != nil || width < 1 {
		return fmt.Errorf("%w: invalid or missing row_size value '%s'", table.ErrUsage, pos[1])
	}

	var hosted string
	var arr *array.Array
	if len(pos) == 3 {
		if arr, err = s.array(pos[2]); err != nil {
			return err
		}
	} else {
		hosted = s.env.UniqueName(hostedArrayStem)
		arr = s.env.BindArray(hosted, nil).Array
	}

	h, err := table.Build(arr, width)
	if err != nil {
		if hosted != "" {
			s.env.Unbind(hosted)
		}
		return err
	}
	level.Debug(s.logger).Log("msg", "declared table", "handle", pos[0], "rows", h.RowCount(), "width", width)
	return s.bindHead(pos[0], h)
}

func appendData(s *Session, args []string) error {
	fs := newFlags("append_data")
	fs.SetInterspersed(false)
	pos, _, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 1 {
		return fmt.Errorf("%w: missing handle", table.ErrUsage)
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	values := pos[1:]
	if err := s.reserve(h.Array().Len()+len(h.Pending()), len(values)); err != nil {
		return err
	}
	added, err := h.Append(values...)
	if err != nil {
		return err
	}
	level.Debug(s.logger).Log("msg", "appended rows", "handle", pos[0], "rows", added, "pending", len(h.Pending()))
	return nil
}

func indexRows(s *Session, args []string) error {
	name, h, err := s.handleOnly("index_rows", args)
	if err != nil {
		return err
	}
	nh, err := h.Index()
	if err != nil {
		return err
	}
	return s.bindHead(name, nh)
}

func reindexElements(s *Session, args []string) error {
	_, h, err := s.handleOnly("reindex_elements", args)
	if err != nil {
		return err
	}
	return h.Reindex()
}

func (s *Session) handleOnly(action string, args []string) (string, *table.Head, error) {
	pos, _, err := parseArgs(newFlags(action), args)
	if err != nil {
		return "", nil, err
	}
	if err := expect(pos, 1, "handle"); err != nil {
		return "", nil, err
	}
	h, err := s.head(pos[0])
	return pos[0], h, err
}

// scalar runs a one-handle action whose result goes to the -v variable.
func scalar(action string, get func(s *Session, h *table.Head) (string, error)) func(*Session, []string) error {
	return func(s *Session, args []string) error {
		fs := newFlags(action)
		name := fs.StringP("value", "v", s.cfg.ValueName, "variable to receive the result")
		pos, _, err := parseArgs(fs, args)
		if err != nil {
			return err
		}
		if err := expect(pos, 1, "handle"); err != nil {
			return err
		}
		h, err := s.head(pos[0])
		if err != nil {
			return err
		}
		v, err := get(s, h)
		if err != nil {
			return err
		}
		return s.setValue(*name, v)
	}
}

func rowCount(_ *Session, h *table.Head) (string, error) {
	if err := h.Check(false); err != nil {
		return "", err
	}
	return strconv.Itoa(h.RowCount()), nil
}

func rowSize(_ *Session, h *table.Head) (string, error) {
	if err := h.Check(false); err != nil {
		return "", err
	}
	return strconv.Itoa(h.Width()), nil
}

func arrayName(s *Session, h *table.Head) (string, error) {
	if err := h.Check(false); err != nil {
		return "", err
	}
	name, ok := s.env.FindArray(h.Array())
	if !ok {
		return "", fmt.Errorf("%w: the array of this table has no name", table.ErrNotFound)
	}
	return name, nil
}

func fieldSizes(s *Session, args []string) error {
	fs := newFlags("get_field_sizes")
	name := fs.StringP("array", "a", s.cfg.ArrayName, "array to receive the sizes")
	pos, _, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := expect(pos, 1, "handle"); err != nil {
		return err
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	sizes, err := h.FieldSizes()
	if err != nil {
		return err
	}
	values := make([]string, len(sizes))
	for i, n := range sizes {
		values[i] = strconv.Itoa(n)
	}
	return s.setArray(*name, values)
}

func getRow(s *Session, args []string) error {
	fs := newFlags("get_row")
	name := fs.StringP("array", "a", s.cfg.ArrayName, "array to receive the row")
	pos, _, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := expect(pos, 2, "handle", "row_number"); err != nil {
		return err
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	n, err := parseInt("row number", pos[1])
	if err != nil {
		return err
	}
	row, err := h.RowValues(n, nil)
	if err != nil {
		return err
	}
	return s.setArray(*name, row)
}

func putRow(s *Session, args []string) error {
	pos, _, err := parseArgs(newFlags("put_row"), args)
	if err != nil {
		return err
	}
	if err := expect(pos, 3, "handle", "row_number", "array_name"); err != nil {
		return err
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	n, err := parseInt("row number", pos[1])
	if err != nil {
		return err
	}
	src, err := s.array(pos[2])
	if err != nil {
		return err
	}
	return h.PutRow(n, src.Values())
}

func resizeRows(s *Session, args []string) error {
	fs := newFlags("resize_rows")
	regroup := fs.BoolP("regroup", "g", false, "reinterpret the elements instead of adding or removing fields")
	pos, _, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := expect(pos, 2, "handle", "new_size"); err != nil {
		return err
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	width, err := parseInt("row size", pos[1])
	if err != nil {
		return err
	}
	if *regroup {
		return h.Regroup(width)
	}
	if width > h.Width() {
		if err := s.reserve(h.Array().Len(), h.RowCount()*(width-h.Width())); err != nil {
			return err
		}
	}
	if err := h.Resize(width); err != nil {
		return err
	}
	level.Debug(s.logger).Log("msg", "resized rows", "handle", pos[0], "width", width)
	return nil
}

func seekKey(s *Session, args []string) error {
	fs := newFlags("seek_key")
	name := fs.StringP("value", "v", s.cfg.ValueName, "variable to receive the row number")
	permissive := fs.BoolP("permissive", "p", false, "return the row count instead of failing when no key matches")
	linear := fs.BoolP("linear", "l", false, "scan every key in order instead of bisecting")
	pos, _, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := expect(pos, 2, "handle", "target"); err != nil {
		return err
	}
	h, err := s.head(pos[0])
	if err != nil {
		return err
	}
	n, err := h.SeekKey(pos[1], table.SeekOptions{Permissive: *permissive, Sequential: *linear})
	if err != nil {
		return err
	}
	return s.setValue(*name, strconv.Itoa(n))
}
