package table

import (
	"fmt"

	"github.com/cjungmann/ate/pkg/array"
)

// Append adds values to the end of the array in whole rows. Values that do
// not fill a row are held until a later call completes it. The new rows
// are not indexed until Index is called. It returns the number of rows
// added to the array.
func (h *Head) Append(values ...string) (int, error) {
	if err := h.live(); err != nil {
		return 0, err
	}
	all := append(h.array.Held(), values...)
	full := len(all) / h.width * h.width
	if err := h.array.Append(all[:full]...); err != nil {
		return 0, err
	}
	h.array.SetHeld(all[full:])
	return full / h.width, nil
}

// Index rebuilds the row index from the array at the current width. An
// incomplete row held by Append stays held.
func (h *Head) Index() (*Head, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: not a table", ErrTypeMismatch)
	}
	return Build(h.array, h.width)
}

// Resize changes the row width, extending or contracting every row.
func (h *Head) Resize(width int) error {
	switch {
	case width < 1:
		return fmt.Errorf("%w: invalid row size of %d", ErrUsage, width)
	case width > h.width:
		return h.Extend(width - h.width)
	case width < h.width:
		return h.Contract(h.width - width)
	}
	return h.Check(true)
}

// Extend adds k empty fields to the end of every row.
func (h *Head) Extend(k int) error {
	if k < 1 {
		return fmt.Errorf("%w: cannot extend rows by %d fields", ErrUsage, k)
	}
	if err := h.Check(true); err != nil {
		return err
	}

	for n, r := range h.rows {
		last, err := h.lastOf(n, r)
		if err != nil {
			return err
		}
		fields := make([]*array.Element, k)
		for i := range fields {
			fields[i] = h.array.NewElement("")
		}
		if err := h.array.InsertAfter(last, fields...); err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}
	h.width += k
	return h.reindex()
}

// Contract removes the last k fields of every row.
func (h *Head) Contract(k int) error {
	if k < 1 {
		return fmt.Errorf("%w: cannot contract rows by %d fields", ErrUsage, k)
	}
	width := h.width - k
	if width < 1 {
		return fmt.Errorf("%w: cannot remove %d fields from rows of %d", ErrUsage, k, h.width)
	}
	if err := h.Check(true); err != nil {
		return err
	}

	for _, r := range h.rows {
		e := r
		for i := 0; i < width; i++ {
			e = e.Next()
		}
		for i := 0; i < k; i++ {
			next := e.Next()
			h.array.Unlink(e)
			e = next
		}
	}
	h.width = width
	return h.reindex()
}

// Regroup reinterprets the same elements as rows of width fields. The
// table is left unchanged when the elements do not divide evenly.
func (h *Head) Regroup(width int) error {
	if err := h.Check(true); err != nil {
		return err
	}
	if width < 1 || h.array.Len()%width != 0 {
		return fmt.Errorf("%w: invalid row size of %d for %d elements", ErrUsage, width, h.array.Len())
	}
	if err := h.reindex(); err != nil {
		return err
	}
	nh, err := Build(h.array, width)
	if err != nil {
		return err
	}
	h.width = width
	h.rows = nh.rows
	h.version = nh.version
	h.key = nil
	return nil
}

// Reindex relinks the array to follow the row order of h and renumbers
// element positions.
func (h *Head) Reindex() error {
	if err := h.Check(true); err != nil {
		return err
	}
	return h.reindex()
}

func (h *Head) reindex() error {
	order := make([]*array.Element, 0, len(h.rows)*h.width)
	for n, r := range h.rows {
		e := r
		for i := 0; i < h.width; i++ {
			if e.IsHead() {
				return fmt.Errorf("%w: row %d ends after %d fields", ErrCorrupt, n, i)
			}
			order = append(order, e)
			e = e.Next()
		}
	}
	if err := h.array.Relink(order); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	h.version = h.array.Version()
	h.view = false
	return nil
}

func (h *Head) lastOf(n int, first *array.Element) (*array.Element, error) {
	e := first
	for i := 1; i < h.width; i++ {
		e = e.Next()
		if e.IsHead() {
			return nil, fmt.Errorf("%w: row %d ends after %d fields", ErrCorrupt, n, i)
		}
	}
	return e, nil
}
