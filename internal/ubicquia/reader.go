package ubicquia

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingHeader is returned for an export without a header line.
var ErrMissingHeader = errors.New("ubicquia: missing header")

// Reader iterates over the data rows of a vendor export.
type Reader struct {
	csv    *csv.Reader
	header []string
}

// NewReader consumes the header line and prepares row iteration.
func NewReader(r io.Reader) (*Reader, error) {
	br := stripUTF8BOM(bufio.NewReader(r))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("ubicquia: read header: %w", err)
	}
	cols := make([]string, len(header))
	for i := range header {
		cols[i] = strings.TrimSpace(header[i])
	}
	return &Reader{csv: cr, header: cols}, nil
}

// Header returns the trimmed header columns.
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next row with its 1-based line number in the file.
// Row-level failures (see IsRowError)
// leave the reader usable; io.EOF ends the iteration.
func (r *Reader) Next() (int, Record, error) {
	outer, err := r.csv.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return perr.StartLine, Record{}, err
		}
		return 0, Record{}, err
	}
	line, _ := r.csv.FieldPos(0)
	rec, err := Extract(outer)
	return line, rec, err
}

// IsRowError reports whether err only affects the current row.
func IsRowError(err error) bool {
	var perr *csv.ParseError
	return errors.Is(err, ErrMalformedRow) ||
		errors.Is(err, ErrTruncatedRow) ||
		errors.Is(err, ErrMissingDeviceID) ||
		errors.As(err, &perr)
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
