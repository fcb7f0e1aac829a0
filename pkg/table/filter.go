package table

import (
	"fmt"

	"github.com/cjungmann/ate/pkg/array"
)

// Predicate reports whether a row belongs in a filtered view.
type Predicate func(row []string) (bool, error)

// Filter returns a view over the rows accepted by pred, in their original
// order. The view shares h's array; writes through either are visible to
// both.
func (h *Head) Filter(pred Predicate) (*Head, error) {
	if pred == nil {
		return nil, fmt.Errorf("%w: missing filter function", ErrUsage)
	}
	if err := h.live(); err != nil {
		return nil, err
	}

	var kept []*array.Element
	row := make([]string, 0, h.width)
	for _, r := range h.rows {
		var err error
		if row, err = CloneRow(row, r, h.width); err != nil {
			return nil, err
		}
		ok, err := pred(row)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, r)
		}
	}

	view := h.derive(kept)
	view.view = true
	return view, nil
}
