package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// KeyVal is one field of an OrderedRecord.
type KeyVal struct {
	Key string
	Val interface{}
}

// OrderedRecord is a JSON object that keeps its fields in insertion order.
type OrderedRecord []KeyVal

// MarshalJSON implements the json.Marshaler interface.
func (r OrderedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(kv.Val)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (r OrderedRecord) Get(key string) (interface{}, bool) {
	for _, kv := range r {
		if kv.Key == key {
			return kv.Val, true
		}
	}
	return nil, false
}

func (r OrderedRecord) String() string {
	b, _ := r.MarshalJSON()
	return string(b)
}

// RowWriter writes table rows as JSON Lines, one object per row with the
// fields in column order.
type RowWriter struct {
	w      *bufio.Writer
	fields []string
	rec    OrderedRecord
}

// NewRowWriter returns a writer naming columns after fields.
func NewRowWriter(w io.Writer, fields []string) *RowWriter {
	return &RowWriter{
		w:      bufio.NewWriter(w),
		fields: fields,
		rec:    make(OrderedRecord, len(fields)),
	}
}

// Write emits one row. The row must have one value per field.
func (rw *RowWriter) Write(row []string) error {
	if len(row) != len(rw.fields) {
		return fmt.Errorf("row has %d values, expected %d", len(row), len(rw.fields))
	}
	for i, f := range rw.fields {
		rw.rec[i] = KeyVal{Key: f, Val: row[i]}
	}
	b, err := rw.rec.MarshalJSON()
	if err != nil {
		return err
	}
	if _, err := rw.w.Write(b); err != nil {
		return err
	}
	return rw.w.WriteByte('\n')
}

// Flush writes any buffered rows.
func (rw *RowWriter) Flush() error {
	return rw.w.Flush()
}
