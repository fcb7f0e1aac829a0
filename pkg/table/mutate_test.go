package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend(t *testing.T) {
	h := newTable(t, 3, "a", "b", "c")

	added, err := h.Append("d", "e")
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 3, h.Array().Len())
	assert.Equal(t, []string{"d", "e"}, h.Pending())
	assert.Equal(t, Indexed, h.State())

	added, err = h.Append("f", "g")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"g"}, h.Pending())
	assert.Equal(t, Unindexed, h.State())
	assert.Equal(t, 1, h.RowCount())

	nh, err := h.Index()
	require.NoError(t, err)
	assert.Equal(t, 2, nh.RowCount())
	assert.Equal(t, Indexed, nh.State())
	assert.Equal(t, []string{"g"}, nh.Pending())
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e", "f"}}, allRows(t, nh))

	// The old head still reads its rows: appending did not restructure.
	row, err := h.RowValues(0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, row)
}

func TestPendingSharedAcrossHeads(t *testing.T) {
	h := newTable(t, 2, "b", "2", "a", "1")
	_, err := h.Append("c")
	require.NoError(t, err)

	sorted, err := h.Sort(func(l, r []string) (int, error) {
		return compareStrings(l[0], r[0]), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, sorted.Pending())

	added, err := sorted.Append("3")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Empty(t, sorted.Pending())
	assert.Empty(t, h.Pending())

	nh, err := sorted.Index()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"b", "2"}, {"a", "1"}, {"c", "3"}}, allRows(t, nh))
	assert.Empty(t, nh.Pending())
}

func TestAppendManyRows(t *testing.T) {
	h := newTable(t, 2)
	added, err := h.Append(sequence(7)...)
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, []string{"6"}, h.Pending())

	nh, err := h.Index()
	require.NoError(t, err)
	assert.Equal(t, 3, nh.RowCount())
	assert.NoError(t, nh.Check(true))
}

func TestResizeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     [][]string
		wantKind Kind
	}{
		{
			name: "extend 2 to 3",
			from: 2, to: 3,
			want: [][]string{{"0", "1", ""}, {"2", "3", ""}, {"4", "5", ""}, {"6", "7", ""}},
		},
		{
			name: "extend 4 to 6",
			from: 4, to: 6,
			want: [][]string{{"0", "1", "2", "3", "", ""}, {"4", "5", "6", "7", "", ""}},
		},
		{
			name: "contract 4 to 2",
			from: 4, to: 2,
			want: [][]string{{"0", "1"}, {"4", "5"}},
		},
		{
			name: "contract 4 to 1",
			from: 4, to: 1,
			want: [][]string{{"0"}, {"4"}},
		},
		{
			name: "same width",
			from: 2, to: 2,
			want: [][]string{{"0", "1"}, {"2", "3"}, {"4", "5"}, {"6", "7"}},
		},
		{
			name: "to zero",
			from: 2, to: 0,
			wantKind: KindUsage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTable(t, tt.from, sequence(8)...)
			err := h.Resize(tt.to)
			if tt.wantKind != KindNone {
				assert.Equal(t, tt.wantKind, KindOf(err))
				assert.Equal(t, tt.from, h.Width())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, h.Width())
			assert.Equal(t, tt.want, allRows(t, h))
			assert.NoError(t, h.Check(true))
			assert.Equal(t, len(tt.want)*tt.to, h.Array().Len())
			assert.Equal(t, int64(h.Array().Len()-1), h.Array().MaxIndex())
		})
	}
}

func TestExtendContractInverse(t *testing.T) {
	for _, k := range []int{1, 2, 5} {
		h := newTable(t, 3, sequence(12)...)
		before := allRows(t, h)

		require.NoError(t, h.Extend(k))
		assert.Equal(t, 3+k, h.Width())
		assert.Equal(t, 12+4*k, h.Array().Len())

		require.NoError(t, h.Contract(k))
		assert.Equal(t, before, allRows(t, h))
		assert.Equal(t, sequence(12), h.Array().Values())
	}
}

func TestExtendEmptyTable(t *testing.T) {
	h := newTable(t, 2)
	require.NoError(t, h.Extend(3))
	assert.Equal(t, 5, h.Width())
	assert.Equal(t, 0, h.Array().Len())

	require.NoError(t, h.Contract(4))
	assert.Equal(t, 1, h.Width())
	assert.ErrorIs(t, h.Contract(1), ErrUsage)
}

func TestResizeRefusesStaleOrPartialHeads(t *testing.T) {
	t.Run("stale", func(t *testing.T) {
		h := newTable(t, 2, sequence(8)...)
		h.Array().Remove(0)
		assert.ErrorIs(t, h.Resize(3), ErrStale)
	})

	t.Run("orphans", func(t *testing.T) {
		h := newTable(t, 2, sequence(8)...)
		require.NoError(t, h.Array().Append("8", "9"))
		assert.Equal(t, KindCorrupt, KindOf(h.Resize(3)))
		assert.Equal(t, 10, h.Array().Len())
	})

	t.Run("filtered view", func(t *testing.T) {
		h := newTable(t, 2, sequence(8)...)
		view, err := h.Filter(func(row []string) (bool, error) { return row[0] == "0", nil })
		require.NoError(t, err)
		assert.Equal(t, KindCorrupt, KindOf(view.Resize(3)))
		assert.Equal(t, KindCorrupt, KindOf(view.Reindex()))
	})
}

func TestResizeInvalidatesAliases(t *testing.T) {
	h := newTable(t, 2, sequence(8)...)
	alias, err := h.Index()
	require.NoError(t, err)

	require.NoError(t, h.Resize(3))
	_, err = alias.RowValues(0, nil)
	assert.ErrorIs(t, err, ErrStale)

	fresh, err := alias.Index()
	require.NoError(t, err)
	assert.Equal(t, 6, fresh.RowCount())
	assert.Equal(t, 2, fresh.Width())
}

func TestRegroup(t *testing.T) {
	h := newTable(t, 2, sequence(8)...)

	err := h.Regroup(3)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Equal(t, 2, h.Width())
	assert.Equal(t, 4, h.RowCount())
	assert.NoError(t, h.Check(true))

	require.NoError(t, h.Regroup(4))
	assert.Equal(t, [][]string{{"0", "1", "2", "3"}, {"4", "5", "6", "7"}}, allRows(t, h))
	assert.ErrorIs(t, h.Regroup(0), ErrUsage)
}

func TestReindexFollowsRowOrder(t *testing.T) {
	h := newTable(t, 2, "b", "2", "a", "1", "c", "3")
	sorted, err := h.Sort(func(l, r []string) (int, error) {
		return compareStrings(l[0], r[0]), nil
	})
	require.NoError(t, err)

	require.NoError(t, sorted.Reindex())
	assert.Equal(t, []string{"a", "1", "b", "2", "c", "3"}, sorted.Array().Values())
	assert.Equal(t, int64(5), sorted.Array().MaxIndex())

	// The unsorted head no longer matches the relinked array.
	assert.ErrorIs(t, h.Check(false), ErrStale)

	nh, err := sorted.Index()
	require.NoError(t, err)
	assert.Equal(t, allRows(t, sorted), allRows(t, nh))
}
