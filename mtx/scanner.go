package mtx

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Size is the parsed size line of a coordinate file.
type Size struct {
	Rows    int64
	Cols    int64
	Entries int64
}

// Entry is one data line. Row and Col are the raw 1-indexed identifiers.
// Weight holds the value token verbatim so it can be emitted unmodified;
// it is empty when HasWeight is false.
type Entry struct {
	Row       int64
	Col       int64
	Weight    string
	HasWeight bool
}

// Scanner streams entries from a Matrix Market coordinate file.
//
// The banner and size line are consumed by NewScanner; afterwards each
// Scan call yields one entry. Scan returns false once all declared
// entries were read and the remainder of the file was validated, or on
// the first error. Err reports that error, nil on clean EOF.
type Scanner struct {
	path   string
	sc     *bufio.Scanner
	header Header
	size   Size
	line   int
	width  int // fields per data line, fixed by the first one
	read   int64
	entry  Entry
	err    error
	done   bool
}

const maxLineBytes = 1 << 20

// NewScanner reads the banner, comments and size line from r.
// path is used in error messages only.
func NewScanner(r io.Reader, path string) (*Scanner, error) {
	s := &Scanner{path: path, sc: bufio.NewScanner(r), header: defaultHeader()}
	s.sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	sawBanner := false
	for s.sc.Scan() {
		s.line++
		text := strings.TrimSpace(s.sc.Text())
		switch {
		case text == "":
			continue
		case s.line == 1 && len(text) >= len(bannerPrefix) && strings.EqualFold(text[:len(bannerPrefix)], bannerPrefix):
			h, err := parseBanner(path, s.line, text)
			if err != nil {
				return nil, err
			}
			// Unsupported variants are rejected here: an array file has a
			// 2-field size line that would otherwise fail with a
			// misleading size-line error.
			if h.Format == "array" {
				return nil, formatErrf(path, s.line, "array format is not supported, only coordinate")
			}
			if h.Field == "complex" {
				return nil, formatErrf(path, s.line, "complex field is not supported")
			}
			s.header = h
			sawBanner = true
		case strings.HasPrefix(text, "%"):
			continue
		default:
			if err := s.parseSizeLine(text); err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	if err := s.sc.Err(); err != nil {
		return nil, err
	}
	if sawBanner {
		return nil, formatErrf(path, s.line, "missing size line")
	}
	return nil, formatErrf(path, s.line, "empty input")
}

// Header returns the banner fields (defaults if the file has no banner).
func (s *Scanner) Header() Header { return s.header }

// Size returns the parsed size line.
func (s *Scanner) Size() Size { return s.size }

// Count returns the number of entries yielded so far.
func (s *Scanner) Count() int64 { return s.read }

func (s *Scanner) parseSizeLine(text string) error {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return formatErrf(s.path, s.line, "size line must be 'rows cols entries', got %d fields", len(fields))
	}
	vals := make([]int64, 3)
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil || v < 0 {
			return formatErrf(s.path, s.line, "size line field %q is not a non-negative integer", f)
		}
		vals[i] = v
	}
	s.size = Size{Rows: vals[0], Cols: vals[1], Entries: vals[2]}
	return nil
}

// Scan advances to the next entry.
func (s *Scanner) Scan() bool {
	if s.done || s.err != nil {
		return false
	}
	if s.read == s.size.Entries {
		s.finish()
		return false
	}
	for s.sc.Scan() {
		s.line++
		text := strings.TrimSpace(s.sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		if err := s.parseEntry(text); err != nil {
			s.err = err
			return false
		}
		s.read++
		return true
	}
	if err := s.sc.Err(); err != nil {
		s.err = err
		return false
	}
	s.err = formatErrf(s.path, s.line, "declared %d entries, file ends after %d", s.size.Entries, s.read)
	return false
}

// Entry returns the entry produced by the last successful Scan.
func (s *Scanner) Entry() Entry { return s.entry }

// Err returns the first error encountered, nil on clean EOF.
func (s *Scanner) Err() error { return s.err }

func (s *Scanner) parseEntry(text string) error {
	fields := strings.Fields(text)
	if s.width == 0 {
		switch {
		case len(fields) < 2 || len(fields) > 3:
			return formatErrf(s.path, s.line, "entry must have 2 or 3 fields, got %d", len(fields))
		case len(fields) == 3 && s.header.Field == "pattern":
			return formatErrf(s.path, s.line, "pattern matrix must not carry a value column")
		}
		s.width = len(fields)
	} else if len(fields) != s.width {
		return formatErrf(s.path, s.line, "entry has %d fields, expected %d as established by the first entry", len(fields), s.width)
	}

	row, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return formatErrf(s.path, s.line, "row index %q is not an integer", fields[0])
	}
	col, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return formatErrf(s.path, s.line, "column index %q is not an integer", fields[1])
	}
	if row < 1 || row > s.size.Rows {
		return formatErrf(s.path, s.line, "row index %d out of bounds [1, %d]", row, s.size.Rows)
	}
	if col < 1 || col > s.size.Cols {
		return formatErrf(s.path, s.line, "column index %d out of bounds [1, %d]", col, s.size.Cols)
	}

	s.entry = Entry{Row: row, Col: col}
	if s.width == 3 {
		if _, err := strconv.ParseFloat(fields[2], 64); err != nil {
			return formatErrf(s.path, s.line, "value %q is not numeric", fields[2])
		}
		s.entry.Weight = fields[2]
		s.entry.HasWeight = true
	}
	return nil
}

// finish validates that nothing but comments and blanks trail the data.
func (s *Scanner) finish() {
	s.done = true
	for s.sc.Scan() {
		s.line++
		text := strings.TrimSpace(s.sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		s.err = formatErrf(s.path, s.line, "trailing data after %d declared entries", s.size.Entries)
		return
	}
	if err := s.sc.Err(); err != nil {
		s.err = err
	}
}
