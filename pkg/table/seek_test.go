package table

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyTable(t *testing.T, order KeyOrder, keys ...string) *Head {
	t.Helper()
	values := make([]string, 0, len(keys))
	values = append(values, keys...)
	h := newTable(t, 1, values...)
	key, err := h.MakeKey(KeySpec{Column: 0, Order: order})
	require.NoError(t, err)
	return key
}

func TestSeekKey(t *testing.T) {
	key := keyTable(t, KeyOrder{}, "delta", "alpha", "charlie", "bravo", "echo")

	tests := []struct {
		target   string
		want     int
		wantKind Kind
	}{
		{target: "alpha", want: 0},
		{target: "a", want: 0},
		{target: "bravo", want: 1},
		{target: "c", want: 2},
		{target: "echo", want: 4},
		{target: "zulu", wantKind: KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := key.SeekKey(tt.target, SeekOptions{})
			if tt.wantKind != KindNone {
				assert.Equal(t, tt.wantKind, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := key.SeekKey("zulu", SeekOptions{Permissive: true})
	require.NoError(t, err)
	assert.Equal(t, key.RowCount(), got)
}

func TestSeekKeyMatchesLinearScan(t *testing.T) {
	orders := []KeyOrder{
		{},
		{Mode: KeyInteger},
		{Mode: KeyNatural},
		{Mode: KeyInteger, Reverse: true},
	}
	keys := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		keys = append(keys, strconv.Itoa((i*37)%101))
	}
	for _, order := range orders {
		key := keyTable(t, order, keys...)
		for target := -1; target <= 102; target += 3 {
			name := fmt.Sprintf("%s-%v-%d", order.Mode, order.Reverse, target)
			t.Run(name, func(t *testing.T) {
				s := strconv.Itoa(target)
				bisect, err := key.SeekKey(s, SeekOptions{Permissive: true})
				require.NoError(t, err)
				linear, err := key.SeekKey(s, SeekOptions{Permissive: true, Sequential: true})
				require.NoError(t, err)
				assert.Equal(t, linear, bisect)

				for i := 0; i < bisect; i++ {
					assert.Negative(t, order.Compare(key.Row(i).Value, s))
				}
				if bisect < key.RowCount() {
					assert.GreaterOrEqual(t, order.Compare(key.Row(bisect).Value, s), 0)
				}
			})
		}
	}
}

func TestSeekKeyRequiresKeyIndex(t *testing.T) {
	h := newTable(t, 2, "a", "0")
	_, err := h.SeekKey("a", SeekOptions{})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	empty := keyTable(t, KeyOrder{})
	_, err = empty.SeekKey("a", SeekOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
	pos, err := empty.SeekKey("a", SeekOptions{Permissive: true})
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
}
