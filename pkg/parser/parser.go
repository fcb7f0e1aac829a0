package parser

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record represents a single JSON object
type Record map[string]interface{}

// Reader streams records from JSON or JSONL input. JSON input may be a
// single object, an array of objects, or concatenated objects.
type Reader struct {
	closer io.Closer
	lines  bool

	scanner *bufio.Scanner
	buf     *bufio.Reader
	decoder *json.Decoder

	started bool
	inArray bool
}

// Open returns a reader for source.
// Special cases:
// - Empty string or "-" reads from stdin
// - Strings starting with '{' or '[' are treated as inline JSON
// - Files ending in .jsonl or .ndjson are read as JSON Lines
func Open(source string, stdin io.Reader) (*Reader, error) {
	switch {
	case len(source) > 0 && (source[0] == '{' || source[0] == '['):
		return NewReader(strings.NewReader(source), false), nil
	case source == "" || source == "-":
		if stdin == nil {
			stdin = os.Stdin
		}
		return NewReader(stdin, false), nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r := NewReader(f, strings.HasSuffix(source, ".jsonl") || strings.HasSuffix(source, ".ndjson"))
	r.closer = f
	return r, nil
}

// NewReader reads records from r, one JSON object per line when lines is
// set.
func NewReader(r io.Reader, lines bool) *Reader {
	rd := &Reader{lines: lines}
	if lines {
		rd.scanner = bufio.NewScanner(r)
		rd.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	} else {
		rd.buf = bufio.NewReader(r)
		rd.decoder = json.NewDecoder(rd.buf)
	}
	return rd
}

// Lines reports whether the input is read as JSON Lines.
func (r *Reader) Lines() bool { return r.lines }

// Close closes the underlying file, if the reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// truncated reports end of input inside a JSON array as io.ErrUnexpectedEOF
// so callers stopping on io.EOF do not mistake it for a clean end.
func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	if r.lines {
		return r.nextLine()
	}
	if !r.started {
		if err := r.start(); err != nil {
			return nil, err
		}
	}

	if r.inArray && !r.decoder.More() {
		t, err := r.decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", truncated(err))
		}
		if delim, ok := t.(json.Delim); !ok || delim != ']' {
			return nil, fmt.Errorf("expected array end, got %v", t)
		}
		r.inArray = false
		return nil, io.EOF
	}

	var record Record
	if err := r.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) && !r.inArray {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode JSON record: %w", truncated(err))
	}
	if record == nil {
		return nil, fmt.Errorf("record is not an object")
	}
	return record, nil
}

// start consumes leading whitespace and an opening '[' if present.
func (r *Reader) start() error {
	r.started = true
	for {
		b, err := r.buf.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}
		switch b[0] {
		case ' ', '\n', '\t', '\r':
			r.buf.ReadByte()
			continue
		case '[':
			if _, err := r.decoder.Token(); err != nil {
				return fmt.Errorf("failed to decode JSON: %w", err)
			}
			r.inArray = true
		}
		return nil
	}
}

func (r *Reader) nextLine() (Record, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSONL record: %w", err)
		}
		if record == nil {
			return nil, fmt.Errorf("JSONL record is not an object")
		}
		return record, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL input: %w", err)
	}
	return nil, io.EOF
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
