package table

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/facette/natsort"

	"github.com/cjungmann/ate/pkg/array"
)

// Comparator orders two rows. It returns a negative number when left sorts
// first, a positive number when right does, and zero for a tie.
type Comparator func(left, right []string) (int, error)

// Sort returns a new Head over the same array whose rows are ordered by
// cmp. The receiver is left unchanged. Ties are not kept in order.
func (h *Head) Sort(cmp Comparator) (*Head, error) {
	if cmp == nil {
		return nil, fmt.Errorf("%w: missing comparison function", ErrUsage)
	}
	if err := h.live(); err != nil {
		return nil, err
	}

	sorted := h.derive(slices.Clone(h.rows))
	left := make([]string, 0, h.width)
	right := make([]string, 0, h.width)
	var sortErr error

	slices.SortFunc(sorted.rows, func(a, b *array.Element) int {
		if sortErr != nil {
			return 0
		}
		var err error
		if left, err = CloneRow(left, a, h.width); err != nil {
			sortErr = err
			return 0
		}
		if right, err = CloneRow(right, b, h.width); err != nil {
			sortErr = err
			return 0
		}
		c, err := cmp(left, right)
		if err != nil {
			sortErr = err
			return 0
		}
		return c
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return sorted, nil
}

// KeyMode selects how key values compare.
type KeyMode int

const (
	KeyString KeyMode = iota
	KeyInteger
	KeyNatural
)

func (m KeyMode) String() string {
	switch m {
	case KeyInteger:
		return "integer"
	case KeyNatural:
		return "natural"
	default:
		return "string"
	}
}

// KeyOrder is the ordering of a key index.
type KeyOrder struct {
	Mode    KeyMode
	Reverse bool
}

// Compare orders two key values.
func (o KeyOrder) Compare(a, b string) int {
	var c int
	switch o.Mode {
	case KeyInteger:
		c = compareIntegers(a, b)
	case KeyNatural:
		c = compareNatural(a, b)
	default:
		c = strings.Compare(a, b)
	}
	if o.Reverse {
		return -c
	}
	return c
}

// compareIntegers sorts values that parse as integers numerically and
// before any value that does not.
func compareIntegers(a, b string) int {
	x, errA := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	y, errB := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// compareNatural falls back to byte order for values natsort reports as
// preceding each other, such as equal values or "a01" and "a1".
func compareNatural(a, b string) int {
	if a == b {
		return 0
	}
	ab, ba := natsort.Compare(a, b), natsort.Compare(b, a)
	switch {
	case ab && !ba:
		return -1
	case ba && !ab:
		return 1
	}
	return strings.Compare(a, b)
}

// KeyFunc derives the key of a row.
type KeyFunc func(row []string) (string, error)

// KeySpec describes how MakeKey derives keys. When Func is nil the value
// of Column is the key.
type KeySpec struct {
	Func   KeyFunc
	Column int
	Order  KeyOrder
}

// MakeKey builds a key index over h: a two-column table of (key, row
// number) pairs in a new array, sorted by key. Rows with equal keys keep
// their original order.
func (h *Head) MakeKey(spec KeySpec) (*Head, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	if spec.Func == nil && (spec.Column < 0 || spec.Column >= h.width) {
		return nil, fmt.Errorf("%w: key column %d outside rows of %d", ErrUsage, spec.Column, h.width)
	}

	keys := array.New()
	row := make([]string, 0, h.width)
	for n, r := range h.rows {
		var err error
		if row, err = CloneRow(row, r, h.width); err != nil {
			return nil, err
		}
		var key string
		if spec.Func != nil {
			if key, err = spec.Func(row); err != nil {
				return nil, err
			}
		} else {
			key = row[spec.Column]
		}
		if err := keys.Append(key, strconv.Itoa(n)); err != nil {
			return nil, err
		}
	}

	kh, err := Build(keys, 2)
	if err != nil {
		return nil, err
	}
	order := spec.Order
	slices.SortStableFunc(kh.rows, func(a, b *array.Element) int {
		return order.Compare(a.Value, b.Value)
	})
	kh.key = &order
	return kh, nil
}
