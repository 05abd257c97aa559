package text

import (
	"Go2FlowCount/internal/config"
	"Go2FlowCount/internal/model"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Reader reads delimited flow records, one per line:
//
//	sTime|eTime|bytes|packets
//
// Times use any format accepted by config.ParseTime. Lines starting with '#'
// are comments; a first line whose first field is "sTime" is a header.
type Reader struct {
	r      *csv.Reader
	closer io.Closer
	seen   bool
}

// NewReader reads records from r, fields separated by delim.
func NewReader(r io.Reader, delim string) (*Reader, error) {
	if delim == "" {
		delim = "|"
	}
	comma, n := utf8.DecodeRuneInString(delim)
	if n != len(delim) {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", delim)
	}
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &Reader{r: cr}, nil
}

// Open reads records from the file at path; "-" reads standard input.
func Open(path, delim string) (*Reader, error) {
	if path == "" || path == "-" {
		return NewReader(os.Stdin, delim)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}
	r, err := NewReader(f, delim)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Next returns the next record.
func (r *Reader) Next() (*model.FlowRecord, error) {
	for {
		fields, err := r.r.Read()
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("%w: %v", model.ErrBadRecord, err)
			}
			return nil, err
		}
		first := !r.seen
		r.seen = true
		if first && strings.EqualFold(strings.TrimSpace(fields[0]), "sTime") {
			continue
		}
		line, _ := r.r.FieldPos(0)
		return parseRecord(fields, line)
	}
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func parseRecord(fields []string, line int) (*model.FlowRecord, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: line %d: want 4 fields, got %d", model.ErrBadRecord, line, len(fields))
	}
	start, err := config.ParseTime(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: start time: %v", model.ErrBadRecord, line, err)
	}
	end, err := config.ParseTime(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: end time: %v", model.ErrBadRecord, line, err)
	}
	if end < start {
		return nil, fmt.Errorf("%w: line %d: end time before start time", model.ErrBadRecord, line)
	}
	bytes, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: bytes: %v", model.ErrBadRecord, line, err)
	}
	packets, err := strconv.ParseUint(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: packets: %v", model.ErrBadRecord, line, err)
	}
	return &model.FlowRecord{StartTime: start, EndTime: end, Bytes: bytes, Packets: packets}, nil
}
