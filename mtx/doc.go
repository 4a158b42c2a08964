// Package mtx reads Matrix Market coordinate files as a stream of edge
// entries.
//
// The scanner validates the banner, the size line and every data line,
// and yields entries one at a time so arbitrarily large graphs can be
// converted without holding the edge list in memory. All parse failures
// are reported as *FormatError with the offending line number.
package mtx
