package action

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjungmann/ate/pkg/array"
	"github.com/cjungmann/ate/pkg/script"
	"github.com/cjungmann/ate/pkg/shell"
	"github.com/cjungmann/ate/pkg/table"
)

type fixture struct {
	t   *testing.T
	s   *Session
	env *shell.Environment
	out *bytes.Buffer
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	var out bytes.Buffer
	env := shell.New(&out)
	return &fixture{t: t, s: NewSession(env, cfg, nil), env: env, out: &out}
}

func (f *fixture) do(line string) error {
	fields := strings.Fields(line)
	return f.s.Do(fields[0], fields[1:])
}

func (f *fixture) must(line string) {
	f.t.Helper()
	require.NoError(f.t, f.do(line), line)
}

func (f *fixture) value(name string) string {
	f.t.Helper()
	v, ok := f.env.Lookup(name)
	require.True(f.t, ok, "variable %s", name)
	return v.Text()
}

func (f *fixture) values(name string) []string {
	f.t.Helper()
	v, ok := f.env.Lookup(name)
	require.True(f.t, ok, "variable %s", name)
	require.Equal(f.t, shell.KindArray, v.Kind)
	return v.Array.Values()
}

func (f *fixture) function(name, body string) {
	f.t.Helper()
	fn, err := script.Compile(name, body)
	require.NoError(f.t, err)
	f.env.BindFunction(name, fn)
}

func (f *fixture) array(name string, values ...string) {
	f.env.BindArray(name, array.FromValues(values...))
}

func (f *fixture) rows(handle string) [][]string {
	f.t.Helper()
	h, err := f.s.head(handle)
	require.NoError(f.t, err)
	rows, err := h.Rows()
	require.NoError(f.t, err)
	return rows
}

func eight() []string {
	out := make([]string, 8)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func TestDeclare(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", eight()...)

	tests := []struct {
		line     string
		wantKind table.Kind
		rows     string
	}{
		{line: "declare t2 2 data", rows: "4"},
		{line: "declare t4 4 data", rows: "2"},
		{line: "declare t8 8 data", rows: "1"},
		{line: "declare t1 1 data", rows: "8"},
		{line: "declare bad 3 data", wantKind: table.KindUsage},
		{line: "declare bad 0 data", wantKind: table.KindUsage},
		{line: "declare bad x data", wantKind: table.KindUsage},
		{line: "declare bad 2 nosuch", wantKind: table.KindNotFound},
		{line: "declare bad", wantKind: table.KindUsage},
		{line: "declare data 2 data", wantKind: table.KindUsage},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := f.do(tt.line)
			if tt.wantKind != table.KindNone {
				assert.Equal(t, tt.wantKind, table.KindOf(err))
				assert.NotEmpty(t, f.env.LastError())
				return
			}
			require.NoError(t, err)
			handle := strings.Fields(tt.line)[1]
			f.must("get_row_count " + handle)
			assert.Equal(t, tt.rows, f.value(DefaultValueName))
		})
	}
}

func TestDeclareHostedArray(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.must("declare people 3")
	f.must("append_data people alice 30 paris bob 25")
	f.must("append_data people rome")
	f.must("index_rows people")

	f.must("get_row_count people -v n")
	assert.Equal(t, "2", f.value("n"))
	f.must("get_array_name people")
	assert.Equal(t, "ATE_HOSTED_ARRAY_1", f.value(DefaultValueName))
	assert.Equal(t, []string{"alice", "30", "paris", "bob", "25", "rome"}, f.values("ATE_HOSTED_ARRAY_1"))

	f.must("declare other 2")
	f.must("get_array_name other")
	assert.Equal(t, "ATE_HOSTED_ARRAY_2", f.value(DefaultValueName))
}

func TestRowAccess(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", "alice", "30", "bob", "25", "carol", "35")
	f.must("declare people 2 data")

	f.must("get_row people 1")
	assert.Equal(t, []string{"bob", "25"}, f.values(DefaultArrayName))

	f.must("get_row people 2 -a row")
	assert.Equal(t, []string{"carol", "35"}, f.values("row"))

	err := f.do("get_row people 3")
	assert.Equal(t, table.KindNotFound, table.KindOf(err))
	assert.Equal(t, 127, ExitCode(err))
	assert.Contains(t, f.env.LastError(), "out of range")

	f.array("replacement", "bobby", "26")
	f.must("put_row people 1 replacement")
	assert.Equal(t, []string{"alice", "30", "bobby", "26", "carol", "35"}, f.values("data"))

	f.array("short", "x")
	assert.Equal(t, table.KindUsage, table.KindOf(f.do("put_row people 1 short")))

	f.must("get_field_sizes people")
	assert.Equal(t, []string{"5", "2"}, f.values(DefaultArrayName))

	f.must("get_row_size people")
	assert.Equal(t, "2", f.value(DefaultValueName))
}

func TestResultVariableConflicts(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", "a", "b")
	f.must("declare t 1 data")

	err := f.do("get_row_count t -v data")
	assert.Equal(t, table.KindUsage, table.KindOf(err))
	assert.Equal(t, []string{"a", "b"}, f.values("data"))

	err = f.do("get_row_count data")
	assert.Equal(t, table.KindTypeMismatch, table.KindOf(err))
	assert.Equal(t, 3, ExitCode(err))

	err = f.do("get_row_count nosuch")
	assert.Equal(t, table.KindNotFound, table.KindOf(err))
}

func TestResizeRows(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", eight()...)
	f.must("declare t 2 data")

	f.must("resize_rows t 3")
	assert.Equal(t, [][]string{{"0", "1", ""}, {"2", "3", ""}, {"4", "5", ""}, {"6", "7", ""}}, f.rows("t"))

	f.must("resize_rows t 2")
	assert.Equal(t, eight(), f.values("data"))

	err := f.do("resize_rows t 3 -g")
	assert.Equal(t, table.KindUsage, table.KindOf(err))
	f.must("get_row_size t")
	assert.Equal(t, "2", f.value(DefaultValueName))

	f.must("resize_rows t 4 --regroup")
	assert.Equal(t, [][]string{{"0", "1", "2", "3"}, {"4", "5", "6", "7"}}, f.rows("t"))

	assert.Equal(t, table.KindUsage, table.KindOf(f.do("resize_rows t 0")))
}

func TestStaleHandles(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", eight()...)
	f.must("declare a 2 data")
	f.must("declare b 2 data")

	f.must("resize_rows a 4")
	err := f.do("get_row b 0")
	assert.ErrorIs(t, err, table.ErrStale)
	assert.Equal(t, 4, ExitCode(err))

	f.must("index_rows b")
	f.must("get_row_count b")
	assert.Equal(t, "8", f.value(DefaultValueName))

	f.env.Unbind("data")
	assert.ErrorIs(t, f.do("get_row a 0"), table.ErrStale)
}

func TestElementLimit(t *testing.T) {
	f := newFixture(t, Config{MaxElements: 6})
	f.must("declare t 2")
	f.must("append_data t a b c d")

	err := f.do("append_data t e f g")
	assert.Equal(t, table.KindAlloc, table.KindOf(err))
	assert.Equal(t, 5, ExitCode(err))

	f.must("index_rows t")
	assert.Equal(t, table.KindAlloc, table.KindOf(f.do("resize_rows t 4")))
	f.must("resize_rows t 3")
}

func TestSort(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", "carol", "35", "alice", "30", "bob", "25")
	f.must("declare people 2 data")
	f.function("by_name", "set $1 = cmp($2[0], $3[0])")
	f.function("by_field", "set $1 = ncmp($2[$4], $3[$4])")

	f.must("sort people by_name sorted")
	assert.Equal(t, [][]string{{"alice", "30"}, {"bob", "25"}, {"carol", "35"}}, f.rows("sorted"))
	assert.Equal(t, [][]string{{"carol", "35"}, {"alice", "30"}, {"bob", "25"}}, f.rows("people"))

	f.must("sort people by_field -- 1")
	assert.Equal(t, [][]string{{"bob", "25"}, {"alice", "30"}, {"carol", "35"}}, f.rows("people"))

	// Scratch variables do not outlive the action.
	for _, name := range f.env.Names() {
		assert.False(t, strings.HasPrefix(name, "ATE_ROW_"), name)
		assert.False(t, strings.HasPrefix(name, "ATE_RESULT_"), name)
	}

	f.function("broken", "set $1 = 'x'")
	assert.Equal(t, table.KindUsage, table.KindOf(f.do("sort people broken")))
	assert.Equal(t, table.KindNotFound, table.KindOf(f.do("sort people missing")))
	f.env.BindString("plain", "x")
	assert.Equal(t, table.KindTypeMismatch, table.KindOf(f.do("sort people plain")))
}

func TestSortKeepsPartialRow(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", "b", "2", "a", "1")
	f.function("by_name", "set $1 = cmp($2[0], $3[0])")
	f.must("declare t 2 data")

	f.must("append_data t c")
	f.must("sort t by_name")
	assert.Equal(t, [][]string{{"a", "1"}, {"b", "2"}}, f.rows("t"))

	f.must("append_data t 3")
	f.must("index_rows t")
	assert.Equal(t, [][]string{{"b", "2"}, {"a", "1"}, {"c", "3"}}, f.rows("t"))
	assert.Equal(t, []string{"b", "2", "a", "1", "c", "3"}, f.values("data"))

	h, err := f.s.head("t")
	require.NoError(t, err)
	assert.Empty(t, h.Pending())
}

func TestFilter(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", "carol", "35", "alice", "30", "bob", "25")
	f.must("declare people 2 data")
	f.function("older", "return $1[1] > $2")

	f.must("filter people older over28 -- 28")
	assert.Equal(t, [][]string{{"carol", "35"}, {"alice", "30"}}, f.rows("over28"))

	f.must("filter people older none -- 99")
	f.must("get_row_count none")
	assert.Equal(t, "0", f.value(DefaultValueName))
	assert.Equal(t, table.KindNotFound, table.KindOf(f.do("walk_rows none older")))

	assert.Equal(t, table.KindUsage, table.KindOf(f.do("filter people older")))
}

func TestMakeKeyAndSeek(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", "carol", "35", "alice", "30", "bob", "25", "dave", "9")
	f.must("declare people 2 data")

	f.must("make_key people -f 0 by_name")
	assert.Equal(t, [][]string{{"alice", "1"}, {"bob", "2"}, {"carol", "0"}, {"dave", "3"}}, f.rows("by_name"))

	f.must("seek_key by_name c")
	assert.Equal(t, "2", f.value(DefaultValueName))
	f.must("seek_key by_name bob -v pos -l")
	assert.Equal(t, "1", f.value("pos"))

	err := f.do("seek_key by_name zed")
	assert.Equal(t, 127, ExitCode(err))
	f.must("seek_key by_name zed -p")
	assert.Equal(t, "4", f.value(DefaultValueName))

	f.must("make_key people -f 1 -i by_age")
	assert.Equal(t, [][]string{{"9", "3"}, {"25", "2"}, {"30", "1"}, {"35", "0"}}, f.rows("by_age"))

	f.function("initial_age", "set $1 = concat(upper($2[0]), ':', $2[1])")
	f.must("make_key people initial_age by_fn -r")
	assert.Equal(t, [][]string{{"DAVE:9", "3"}, {"CAROL:35", "0"}, {"BOB:25", "2"}, {"ALICE:30", "1"}}, f.rows("by_fn"))

	f.must("get_array_name by_name")
	assert.True(t, strings.HasPrefix(f.value(DefaultValueName), "ATE_KEY_ARRAY_"))

	assert.Equal(t, table.KindTypeMismatch, table.KindOf(f.do("seek_key people alice")))
	assert.Equal(t, table.KindUsage, table.KindOf(f.do("make_key people -f 0 -i -n k")))
	assert.Equal(t, table.KindUsage, table.KindOf(f.do("make_key people -f 5 k")))
}

func TestMakeKeyRebind(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", "carol", "35", "alice", "30", "bob", "25")
	f.must("declare people 2 data")
	keyArrays := func() []string {
		var names []string
		for _, name := range f.env.Names() {
			if strings.HasPrefix(name, keyArrayStem) {
				names = append(names, name)
			}
		}
		return names
	}

	f.must("make_key people -f 0 k")
	f.must("make_key people -f 1 -i k")
	assert.Len(t, keyArrays(), 1)
	assert.Equal(t, [][]string{{"25", "2"}, {"30", "1"}, {"35", "0"}}, f.rows("k"))

	// A handle sharing the old key array keeps it alive.
	f.function("by_key", "set $1 = cmp($2[0], $3[0])")
	f.must("sort k by_key alias")
	f.must("make_key people -f 0 k")
	assert.Len(t, keyArrays(), 2)
	assert.Equal(t, [][]string{{"25", "2"}, {"30", "1"}, {"35", "0"}}, f.rows("alias"))
}

func TestWalkRows(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.array("data", "carol", "35", "alice", "30", "bob", "25")
	f.must("declare people 2 data")
	f.function("show", "echo $2, $1[0], $3, $4")
	f.function("first_two", "echo $1[0]; return $2 < 1")

	f.must("walk_rows people show -- tag")
	assert.Equal(t, "0 carol people tag\n1 alice people tag\n2 bob people tag\n", f.out.String())

	f.out.Reset()
	f.must("walk_rows people show -s 1 -c 1")
	assert.Equal(t, "1 alice people \n", f.out.String())

	f.out.Reset()
	f.must("walk_rows people first_two")
	assert.Equal(t, "carol\nalice\n", f.out.String())

	f.out.Reset()
	f.must("make_key people -f 0 by_name")
	f.must("walk_rows people show -k by_name")
	assert.Equal(t, "1 alice people \n2 bob people \n0 carol people \n", f.out.String())

	assert.Equal(t, table.KindUsage, table.KindOf(f.do("walk_rows people show -s 3")))
	assert.Equal(t, table.KindUsage, table.KindOf(f.do("walk_rows people show -c 0")))
	assert.Equal(t, table.KindUsage, table.KindOf(f.do("walk_rows people")))
}

func TestHelpActions(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.must("list_actions")
	lines := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	assert.Len(t, lines, len(Actions()))
	assert.Contains(t, lines, "walk_rows")

	f.out.Reset()
	f.must("show_action seek_key")
	assert.Contains(t, f.out.String(), "usage: seek_key HANDLE TARGET")

	info, ok := Describe("resize_rows")
	require.True(t, ok)
	assert.Contains(t, info.Description, "8 elements at size 2 resized to 3 become 12")
	assert.Contains(t, info.Description, "fails and leaves the table unchanged")

	assert.Equal(t, table.KindNotFound, table.KindOf(f.do("show_action nope")))
	assert.Equal(t, table.KindUsage, table.KindOf(f.do("frobnicate")))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(table.ErrUsage))
	assert.Equal(t, 1, ExitCode(assert.AnError))
}
