// Package csvrows turns CSV text into a forward-only sequence of rows keyed
// by the header line.
package csvrows

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Row is one parsed record: column name -> cell value.
type Row map[string]string

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader reads rows lazily from an underlying byte source.
// It is single-pass and not safe for concurrent use.
type Reader struct {
	r       *csv.Reader
	headers []string
	started bool
	line    int
}

// NewReader wraps src. Nothing is read until the first call to Read.
func NewReader(src io.Reader) *Reader {
	br := bufio.NewReader(src)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1 // ragged rows are allowed
	return &Reader{r: r}
}

// Headers returns the header row, or nil before the first Read.
func (r *Reader) Headers() []string {
	return r.headers
}

// Line returns the input line of the most recently read record.
func (r *Reader) Line() int {
	return r.line
}

// Read returns the next row. It returns io.EOF once the input is exhausted;
// an input that holds only a header (or nothing at all) yields io.EOF on the
// first call. Malformed quoting is reported as a *csv.ParseError.
func (r *Reader) Read() (Row, error) {
	if !r.started {
		r.started = true
		headers, err := r.r.Read()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading csv header: %w", err)
		}
		r.headers = headers
		r.line, _ = r.r.FieldPos(0)
	}

	record, err := r.r.Read()
	if err != nil {
		return nil, err
	}
	r.line, _ = r.r.FieldPos(0)
	return r.toRow(record), nil
}

func (r *Reader) toRow(record []string) Row {
	row := make(Row, len(record))
	for i, value := range record {
		if i < len(r.headers) {
			row[r.headers[i]] = value
			continue
		}
		row["_"+strconv.Itoa(i)] = value
	}
	return row
}

// ReadBatch reads up to size rows. It returns the rows read so far together
// with io.EOF when the input ends before size rows were collected.
func (r *Reader) ReadBatch(size int) ([]Row, error) {
	rows := make([]Row, 0, size)
	for len(rows) < size {
		row, err := r.Read()
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
