package table

import (
	"fmt"
)

// linearRange is the span below which SeekKey stops bisecting and scans.
const linearRange = 8

// SeekOptions tune SeekKey.
type SeekOptions struct {
	// Permissive returns the insertion point, possibly RowCount, instead
	// of failing when every key sorts before the target.
	Permissive bool
	// Sequential scans from the first row instead of bisecting.
	Sequential bool
}

// SeekKey returns the first row of a key index whose key sorts at or after
// target.
func (h *Head) SeekKey(target string, opts SeekOptions) (int, error) {
	if err := h.live(); err != nil {
		return 0, err
	}
	if h.key == nil {
		return 0, fmt.Errorf("%w: not a key index", ErrTypeMismatch)
	}

	order := *h.key
	before := func(i int) bool {
		return order.Compare(h.rows[i].Value, target) < 0
	}

	lo, hi := 0, len(h.rows)
	if !opts.Sequential {
		for hi-lo > linearRange {
			mid := int(uint(lo+hi) >> 1)
			if before(mid) {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
	}
	for lo < hi && before(lo) {
		lo++
	}

	if lo == len(h.rows) && !opts.Permissive {
		return 0, fmt.Errorf("%w: no key at or after %q", ErrNotFound, target)
	}
	return lo, nil
}
