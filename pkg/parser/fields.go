package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Field returns the text of the value at a dotted path such as
// "user.name" or "tags.0". Missing paths report false.
func Field(rec Record, path string) (string, bool) {
	var cur interface{} = map[string]interface{}(rec)
	for _, part := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]interface{}:
			next, ok := v[part]
			if !ok {
				return "", false
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return "", false
			}
			cur = v[i]
		default:
			return "", false
		}
	}
	return Text(cur), true
}

// Text renders a decoded JSON value as a single string. Objects and arrays
// are rendered as compact JSON.
func Text(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// Project returns the values of fields in rec, in field order. Missing
// fields yield empty strings.
func Project(rec Record, fields []string, dst []string) []string {
	dst = dst[:0]
	for _, f := range fields {
		v, _ := Field(rec, f)
		dst = append(dst, v)
	}
	return dst
}

// ForEachRow projects every record read from r onto fields and calls fn
// with the values. The slice passed to fn is reused between calls.
func ForEachRow(r *Reader, fields []string, fn func(values []string) error) (int, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("no fields selected")
	}
	var (
		row   []string
		count int
	)
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		row = Project(rec, fields, row)
		if err := fn(row); err != nil {
			return count, err
		}
		count++
	}
}

// SplitFields parses a comma separated field list.
func SplitFields(list string) []string {
	var fields []string
	for _, f := range strings.Split(list, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
