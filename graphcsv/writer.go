// Package graphcsv writes and verifies the toolkit's canonical CSV
// representation: nodes.csv (header "node_id") and edges.csv (header
// "src,dst" or "src,dst,weight").
package graphcsv

import (
	"bufio"
	"os"
	"strconv"

	"github.com/WittenYeh/GraphDatasets/internal/fs"
)

// Canonical output file names.
const (
	NodesFileName = "nodes.csv"
	EdgesFileName = "edges.csv"
)

// CSV header rows.
const (
	NodeHeader         = "node_id"
	EdgeHeader         = "src,dst"
	WeightedEdgeHeader = "src,dst,weight"
)

const tmpSuffix = ".tmp"

// Writer produces one CSV file atomically: rows are streamed to a
// temporary file next to the destination, which only replaces the
// destination on Commit. A Writer that is never committed leaves any
// pre-existing destination file untouched.
type Writer struct {
	fsys      fs.FileSystem
	file      fs.File
	bw        *bufio.Writer
	path      string
	tmpPath   string
	buf       []byte
	finished  bool
	committed bool
	discarded bool
}

// NewWriter creates the temporary file and writes the header row.
func NewWriter(fsys fs.FileSystem, path, header string) (*Writer, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	tmpPath := path + tmpSuffix
	f, err := fsys.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		fsys:    fsys,
		file:    f,
		bw:      bufio.NewWriterSize(f, 1<<20),
		path:    path,
		tmpPath: tmpPath,
		buf:     make([]byte, 0, 64),
	}
	if _, err := w.bw.WriteString(header); err != nil {
		w.Discard()
		return nil, err
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		w.Discard()
		return nil, err
	}
	return w, nil
}

// WriteNode appends one node_id row.
func (w *Writer) WriteNode(id int64) error {
	w.buf = strconv.AppendInt(w.buf[:0], id, 10)
	w.buf = append(w.buf, '\n')
	_, err := w.bw.Write(w.buf)
	return err
}

// WriteEdge appends one src,dst row.
func (w *Writer) WriteEdge(src, dst int64) error {
	w.buf = strconv.AppendInt(w.buf[:0], src, 10)
	w.buf = append(w.buf, ',')
	w.buf = strconv.AppendInt(w.buf, dst, 10)
	w.buf = append(w.buf, '\n')
	_, err := w.bw.Write(w.buf)
	return err
}

// WriteWeightedEdge appends one src,dst,weight row. The weight token is
// emitted verbatim, exactly as it appeared in the source.
func (w *Writer) WriteWeightedEdge(src, dst int64, weight string) error {
	w.buf = strconv.AppendInt(w.buf[:0], src, 10)
	w.buf = append(w.buf, ',')
	w.buf = strconv.AppendInt(w.buf, dst, 10)
	w.buf = append(w.buf, ',')
	w.buf = append(w.buf, weight...)
	w.buf = append(w.buf, '\n')
	_, err := w.bw.Write(w.buf)
	return err
}

// Finish flushes, syncs and closes the temporary file without renaming
// it. Callers producing several files finish all of them before the
// first Commit, so no destination is replaced until every file is fully
// durable on disk.
func (w *Writer) Finish() error {
	if w.finished || w.committed || w.discarded {
		return nil
	}
	if err := w.bw.Flush(); err != nil {
		w.Discard()
		return err
	}
	if err := w.file.Sync(); err != nil {
		w.Discard()
		return err
	}
	if err := w.file.Close(); err != nil {
		w.discarded = true
		w.fsys.Remove(w.tmpPath)
		return err
	}
	w.finished = true
	return nil
}

// Commit renames the temporary file over the destination, finishing it
// first if needed. After Commit the Writer must not be used.
func (w *Writer) Commit() error {
	if w.committed || w.discarded {
		return nil
	}
	if err := w.Finish(); err != nil {
		return err
	}
	if err := w.fsys.Rename(w.tmpPath, w.path); err != nil {
		w.discarded = true
		w.fsys.Remove(w.tmpPath)
		return err
	}
	w.committed = true
	return nil
}

// Discard closes and removes the temporary file. Safe to call multiple
// times and after Commit, so callers can defer it unconditionally.
func (w *Writer) Discard() {
	if w.committed || w.discarded {
		return
	}
	w.discarded = true
	if !w.finished {
		w.file.Close()
	}
	w.fsys.Remove(w.tmpPath)
}
