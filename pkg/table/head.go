package table

import (
	"fmt"

	"github.com/cjungmann/ate/pkg/array"
)

// State is the indexing state of a Head relative to its array.
type State int

const (
	// Unindexed means the array holds elements the Head does not cover.
	Unindexed State = iota
	// Indexed means every element of the array is covered by a row.
	Indexed
)

func (s State) String() string {
	if s == Indexed {
		return "indexed"
	}
	return "unindexed"
}

// Head is a fixed-width row index over an array. Row i starts at rows[i]
// and spans width elements in link order.
type Head struct {
	array   *array.Array
	width   int
	rows    []*array.Element
	version uint64
	key     *KeyOrder
	view    bool
}

// Build indexes arr as rows of width elements.
func Build(arr *array.Array, width int) (*Head, error) {
	if arr == nil {
		return nil, fmt.Errorf("%w: missing array", ErrUsage)
	}
	if arr.Disposed() {
		return nil, fmt.Errorf("%w: array has been disposed", ErrStale)
	}
	if width < 1 {
		return nil, fmt.Errorf("%w: invalid row size of %d", ErrUsage, width)
	}
	count := arr.Len()
	if count%width != 0 {
		return nil, fmt.Errorf("%w: invalid row size of %d for %d elements", ErrUsage, width, count)
	}

	expected := count / width
	h := &Head{
		array:   arr,
		width:   width,
		rows:    make([]*array.Element, 0, expected),
		version: arr.Version(),
	}

	i := 0
	for e := arr.Head().Next(); !e.IsHead(); e = e.Next() {
		if i%width == 0 {
			h.rows = append(h.rows, e)
		}
		i++
	}
	if len(h.rows) != expected {
		return nil, fmt.Errorf("%w: indexed %d rows, expected %d", ErrCorrupt, len(h.rows), expected)
	}
	return h, nil
}

// derive returns a Head sharing h's array and width over rows.
func (h *Head) derive(rows []*array.Element) *Head {
	return &Head{
		array:   h.array,
		width:   h.width,
		rows:    rows,
		version: h.version,
		view:    h.view,
	}
}

// Array returns the indexed array.
func (h *Head) Array() *array.Array { return h.array }

// Width returns the number of fields per row.
func (h *Head) Width() int { return h.width }

// RowCount returns the number of indexed rows.
func (h *Head) RowCount() int { return len(h.rows) }

// IsKey reports whether h is a key index built by MakeKey.
func (h *Head) IsKey() bool { return h.key != nil }

// KeyOrder returns the ordering of a key index.
func (h *Head) KeyOrder() (KeyOrder, bool) {
	if h.key == nil {
		return KeyOrder{}, false
	}
	return *h.key, true
}

// IsView reports whether h indexes a subset of its array's rows.
func (h *Head) IsView() bool { return h.view }

// Pending returns a copy of the values held back from an incomplete row.
// They belong to the array, so every Head over it sees the same values.
func (h *Head) Pending() []string {
	return h.array.Held()
}

// State reports whether the array holds elements not yet covered by rows.
// Subset views are always Indexed.
func (h *Head) State() State {
	if h.view || len(h.rows)*h.width == h.array.Len() {
		return Indexed
	}
	return Unindexed
}

// Check verifies that h may still be used. With strict set it also
// refuses rows that do not cover every element of the array, which
// invasive mutations require.
func (h *Head) Check(strict bool) error {
	if err := h.live(); err != nil {
		return err
	}
	count := h.array.Len()
	if count%h.width != 0 {
		return fmt.Errorf("%w: %d elements do not divide into rows of %d", ErrCorrupt, count, h.width)
	}
	if strict && len(h.rows)*h.width != count {
		return fmt.Errorf("%w: %d rows of %d do not cover %d elements", ErrCorrupt, len(h.rows), h.width, count)
	}
	return nil
}

// live verifies that the row references of h are still valid.
func (h *Head) live() error {
	if h == nil {
		return fmt.Errorf("%w: not a table", ErrTypeMismatch)
	}
	if h.array == nil {
		return fmt.Errorf("%w: missing array", ErrCorrupt)
	}
	if h.array.Disposed() {
		return fmt.Errorf("%w: array has been disposed", ErrStale)
	}
	if h.width < 1 {
		return fmt.Errorf("%w: invalid row size of %d", ErrCorrupt, h.width)
	}
	if h.version != h.array.Version() {
		return ErrStale
	}
	return nil
}
