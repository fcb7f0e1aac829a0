package table

import (
	"errors"
	"fmt"
	"strconv"
)

// RowIterator steps through a range of rows, materializing each into a
// reused buffer.
type RowIterator struct {
	head *Head
	pos  int
	end  int
	cur  int
	row  []string
	err  error
}

// Iterate returns an iterator over count rows starting at start. A
// negative count runs to the last row.
func (h *Head) Iterate(start, count int) (*RowIterator, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	end, err := h.span(start, count)
	if err != nil {
		return nil, err
	}
	return &RowIterator{
		head: h,
		pos:  start,
		end:  end,
		cur:  -1,
		row:  make([]string, 0, h.width),
	}, nil
}

// Next advances to the next row. It returns false at the end of the range
// or on error.
func (it *RowIterator) Next() bool {
	if it.err != nil || it.pos >= it.end {
		return false
	}
	if err := it.head.live(); err != nil {
		it.err = err
		return false
	}
	row, err := CloneRow(it.row, it.head.rows[it.pos], it.head.width)
	if err != nil {
		it.err = err
		return false
	}
	it.row = row
	it.cur = it.pos
	it.pos++
	return true
}

// Row returns the current row. The slice is reused by Next.
func (it *RowIterator) Row() []string { return it.row }

// Number returns the row number of the current row.
func (it *RowIterator) Number() int { return it.cur }

// Err returns the error that stopped the iteration, if any.
func (it *RowIterator) Err() error { return it.err }

// Close releases the iterator.
func (it *RowIterator) Close() error {
	it.row = nil
	it.pos = it.end
	return nil
}

// Visitor receives each row of a walk. Returning ErrStop ends the walk
// without error.
type Visitor func(row []string, rowNumber int) error

// Walk calls visit for count rows starting at start and returns the number
// of rows visited. A negative count walks to the last row.
func (h *Head) Walk(start, count int, visit Visitor) (int, error) {
	if visit == nil {
		return 0, fmt.Errorf("%w: missing walk function", ErrUsage)
	}
	it, err := h.Iterate(start, count)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	visited := 0
	for it.Next() {
		visited++
		if err := visit(it.Row(), it.Number()); err != nil {
			if errors.Is(err, ErrStop) {
				return visited, nil
			}
			return visited, err
		}
	}
	return visited, it.Err()
}

// WalkKeyed walks the rows of h in the order of the key index key. The
// visitor receives the data row number each key row refers to.
func (h *Head) WalkKeyed(key *Head, start, count int, visit Visitor) (int, error) {
	if visit == nil {
		return 0, fmt.Errorf("%w: missing walk function", ErrUsage)
	}
	if err := h.live(); err != nil {
		return 0, err
	}
	if key == nil || key.width < 2 {
		return 0, fmt.Errorf("%w: not a key index", ErrTypeMismatch)
	}

	it, err := key.Iterate(start, count)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	row := make([]string, 0, h.width)
	visited := 0
	for it.Next() {
		ref := it.Row()[1]
		n, err := strconv.Atoi(ref)
		if err != nil || n < 0 || n >= len(h.rows) {
			return visited, fmt.Errorf("%w: key row %d refers to row %q of %d", ErrCorrupt, it.Number(), ref, len(h.rows))
		}
		if err := h.live(); err != nil {
			return visited, err
		}
		if row, err = CloneRow(row, h.rows[n], h.width); err != nil {
			return visited, err
		}
		visited++
		if err := visit(row, n); err != nil {
			if errors.Is(err, ErrStop) {
				return visited, nil
			}
			return visited, err
		}
	}
	return visited, it.Err()
}

// span validates a row range and returns its exclusive end.
func (h *Head) span(start, count int) (int, error) {
	rows := len(h.rows)
	if rows == 0 {
		return 0, fmt.Errorf("%w: table has no rows", ErrNotFound)
	}
	if start < 0 || start >= rows {
		return 0, fmt.Errorf("%w: start row %d outside %d rows", ErrUsage, start, rows)
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: row count must be at least 1", ErrUsage)
	}
	if count < 0 || start+count > rows {
		return rows, nil
	}
	return start + count, nil
}
