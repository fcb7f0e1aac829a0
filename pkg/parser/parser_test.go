package parser

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, input string, lines bool) []Record {
	t.Helper()
	records, err := NewReader(strings.NewReader(input), lines).ReadAll()
	require.NoError(t, err)
	return records
}

func TestReaderShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		lines bool
		want  []string
	}{
		{"array", `[{"a":"x"},{"a":"y"}]`, false, []string{"x", "y"}},
		{"single object", `{"a":"x"}`, false, []string{"x"}},
		{"concatenated", "{\"a\":\"x\"}\n{\"a\":\"y\"} {\"a\":\"z\"}", false, []string{"x", "y", "z"}},
		{"leading whitespace", "\n\t [ {\"a\":\"x\"} ]", false, []string{"x"}},
		{"empty array", `[]`, false, nil},
		{"empty input", "", false, nil},
		{"jsonl", "{\"a\":\"x\"}\n\n{\"a\":\"y\"}\n", true, []string{"x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, rec := range readAll(t, tt.input, tt.lines) {
				got = append(got, rec["a"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReaderMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		lines bool
	}{
		{"truncated object", `{"a":`, false},
		{"truncated array", `[{"a":1}`, false},
		{"truncated after records", `[{"a":1},{"a":2}`, false},
		{"truncated after comma", `[{"a":1},`, false},
		{"scalar element", `[1,2]`, false},
		{"bad line", "{\"a\":1}\nnot json\n", true},
		{"null line", "null\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input), tt.lines).ReadAll()
			assert.Error(t, err)
		})
	}
}

func TestReaderTruncatedArray(t *testing.T) {
	r := NewReader(strings.NewReader(`[{"a":1},{"a":2}`), false)
	for i := 0; i < 2; i++ {
		_, err := r.Next()
		require.NoError(t, err)
	}
	_, err := r.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestReaderStreaming(t *testing.T) {
	r := NewReader(strings.NewReader(`[{"n":1},{"n":2}]`), false)
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, float64(1), rec["n"])
	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, float64(2), rec["n"])
	_, err = r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	jsonl := filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(jsonl, []byte("{\"a\":1}\n{\"a\":2}\n"), 0o644))

	r, err := Open(jsonl, nil)
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.Lines())
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	inline, err := Open(`{"a":3}`, nil)
	require.NoError(t, err)
	records, err = inline.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, float64(3), records[0]["a"])

	stdin, err := Open("-", strings.NewReader(`{"a":4}`))
	require.NoError(t, err)
	records, err = stdin.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = Open(filepath.Join(dir, "missing.json"), nil)
	assert.Error(t, err)
}

func TestField(t *testing.T) {
	rec := readAll(t, `{"name":"ann","age":42,"ok":true,"none":null,
		"user":{"city":"Oslo","tags":["a","b"]},"ratio":0.5}`, false)[0]

	tests := []struct {
		path  string
		want  string
		found bool
	}{
		{"name", "ann", true},
		{"age", "42", true},
		{"ratio", "0.5", true},
		{"ok", "true", true},
		{"none", "", true},
		{"user.city", "Oslo", true},
		{"user.tags.1", "b", true},
		{"user.tags", `["a","b"]`, true},
		{"user.tags.5", "", false},
		{"user.zip", "", false},
		{"name.first", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Field(rec, tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestForEachRow(t *testing.T) {
	r := NewReader(strings.NewReader(`[{"a":"1","b":"x"},{"b":"y"}]`), false)
	var rows [][]string
	n, err := ForEachRow(r, []string{"a", "b"}, func(values []string) error {
		rows = append(rows, append([]string(nil), values...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][]string{{"1", "x"}, {"", "y"}}, rows)

	_, err = ForEachRow(NewReader(strings.NewReader(`{}`), false), nil, func([]string) error { return nil })
	assert.Error(t, err)

	stop := errors.New("stop")
	n, err = ForEachRow(NewReader(strings.NewReader(`{} {}`), false), []string{"a"}, func([]string) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 0, n)
}

func TestSplitFields(t *testing.T) {
	assert.Equal(t, []string{"a", "b.c"}, SplitFields(" a, ,b.c ,"))
	assert.Nil(t, SplitFields(""))
}

func TestRowWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewRowWriter(&buf, []string{"z", "a"})
	require.NoError(t, w.Write([]string{"1", "two \"q\""}))
	require.NoError(t, w.Write([]string{"", "x"}))
	assert.Error(t, w.Write([]string{"only"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "{\"z\":\"1\",\"a\":\"two \\\"q\\\"\"}\n{\"z\":\"\",\"a\":\"x\"}\n", buf.String())

	back := readAll(t, buf.String(), true)
	require.Len(t, back, 2)
	assert.Equal(t, "two \"q\"", back[0]["a"])
}

func TestOrderedRecord(t *testing.T) {
	rec := OrderedRecord{{Key: "b", Val: 1}, {Key: "a", Val: []string{"x"}}}
	assert.Equal(t, `{"b":1,"a":["x"]}`, rec.String())
	v, ok := rec.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"x"}, v)
	_, ok = rec.Get("c")
	assert.False(t, ok)
}
