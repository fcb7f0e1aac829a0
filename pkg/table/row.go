package table

import (
	"fmt"
	"unicode/utf8"

	"github.com/cjungmann/ate/pkg/array"
)

// Row returns the first element of row n, or nil when n is out of range.
func (h *Head) Row(n int) *array.Element {
	if n < 0 || n >= len(h.rows) {
		return nil
	}
	return h.rows[n]
}

// RowValues copies the values of row n into dst, reusing its storage.
func (h *Head) RowValues(n int, dst []string) ([]string, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	if n < 0 || n >= len(h.rows) {
		return nil, fmt.Errorf("%w: row %d out of range (%d rows)", ErrNotFound, n, len(h.rows))
	}
	return CloneRow(dst, h.rows[n], h.width)
}

// CloneRow copies width values starting at start into dst, reusing its
// storage.
func CloneRow(dst []string, start *array.Element, width int) ([]string, error) {
	dst = dst[:0]
	e := start
	for i := 0; i < width; i++ {
		if e == nil || e.IsHead() || e.Owner() == nil {
			return nil, fmt.Errorf("%w: incomplete row, %d of %d fields", ErrCorrupt, i, width)
		}
		dst = append(dst, e.Value)
		e = e.Next()
	}
	return dst, nil
}

// PutRow overwrites the values of row n in place.
func (h *Head) PutRow(n int, values []string) error {
	if err := h.live(); err != nil {
		return err
	}
	if n < 0 || n >= len(h.rows) {
		return fmt.Errorf("%w: row %d out of range (%d rows)", ErrNotFound, n, len(h.rows))
	}
	if len(values) != h.width {
		return fmt.Errorf("%w: %d values for a row of %d", ErrUsage, len(values), h.width)
	}
	e := h.rows[n]
	for _, v := range values {
		if e.IsHead() {
			return fmt.Errorf("%w: incomplete row %d", ErrCorrupt, n)
		}
		e.Value = v
		e = e.Next()
	}
	return nil
}

// FieldSizes returns the longest value, in characters, of each column.
func (h *Head) FieldSizes() ([]int, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	sizes := make([]int, h.width)
	for _, r := range h.rows {
		e := r
		for i := range sizes {
			if e.IsHead() {
				return nil, fmt.Errorf("%w: incomplete row", ErrCorrupt)
			}
			if n := utf8.RuneCountInString(e.Value); n > sizes[i] {
				sizes[i] = n
			}
			e = e.Next()
		}
	}
	return sizes, nil
}

// Rows returns a copy of every indexed row.
func (h *Head) Rows() ([][]string, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(h.rows))
	for _, r := range h.rows {
		row, err := CloneRow(make([]string, 0, h.width), r, h.width)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
