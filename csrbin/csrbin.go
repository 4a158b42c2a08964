// Package csrbin exports converted CSV graphs as binary CSR files for
// GPU graph frameworks.
//
// The layout follows the EMOGI convention: three little-endian files
// named <name>_row.bin, <name>_col.bin and <name>_weight.bin. Each file
// starts with an 8-byte element count and an 8-byte reserved word,
// followed by the payload: uint64 row offsets (one per node plus a
// terminator), uint64 column indices per edge, and float32 weights per
// edge. Unweighted graphs get a constant weight of 1.0.
package csrbin

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/WittenYeh/GraphDatasets/graphcsv"
	"github.com/WittenYeh/GraphDatasets/internal/fs"
)

// ErrInvalidInput indicates nodes.csv/edges.csv that cannot form a CSR.
var ErrInvalidInput = errors.New("invalid csr input")

const (
	tmpSuffix  = ".tmp"
	writeBuf   = 1 << 20
	checkEvery = 1 << 16
)

// Stats summarizes an export.
type Stats struct {
	Nodes    int64
	Edges    int64
	Weighted bool
	Files    []string
}

// Export reads nodes.csv and edges.csv from dir and writes
// <name>_row.bin, <name>_col.bin and <name>_weight.bin next to them.
// The edge list is scanned twice: once to count per-node degrees, once
// to place column indices, so peak memory is the CSR arrays themselves.
func Export(ctx context.Context, fsys fs.FileSystem, dir, name string) (*Stats, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	nodes, err := countNodes(fsys, filepath.Join(dir, graphcsv.NodesFileName))
	if err != nil {
		return nil, err
	}

	edgesPath := filepath.Join(dir, graphcsv.EdgesFileName)
	degrees := make([]uint64, nodes)
	edges, weighted, err := countDegrees(ctx, fsys, edgesPath, degrees)
	if err != nil {
		return nil, err
	}

	// Degrees become exclusive prefix sums, i.e. the row offset array.
	rowPtr := make([]uint64, nodes+1)
	var sum uint64
	for i, d := range degrees {
		rowPtr[i] = sum
		sum += d
	}
	rowPtr[nodes] = sum

	col := make([]uint64, edges)
	var weights []float32
	if weighted {
		weights = make([]float32, edges)
	}
	// cursor[i] is the write position inside node i's CSR segment.
	cursor := make([]uint64, nodes)
	copy(cursor, rowPtr)
	if err := placeEdges(ctx, fsys, edgesPath, cursor, col, weights); err != nil {
		return nil, err
	}

	stats := &Stats{Nodes: nodes, Edges: edges, Weighted: weighted}

	rowPath := filepath.Join(dir, name+"_row.bin")
	if err := writeUint64File(fsys, rowPath, rowPtr); err != nil {
		return nil, err
	}
	stats.Files = append(stats.Files, rowPath)

	colPath := filepath.Join(dir, name+"_col.bin")
	if err := writeUint64File(fsys, colPath, col); err != nil {
		return nil, err
	}
	stats.Files = append(stats.Files, colPath)

	weightPath := filepath.Join(dir, name+"_weight.bin")
	if err := writeWeightFile(fsys, weightPath, weights, edges); err != nil {
		return nil, err
	}
	stats.Files = append(stats.Files, weightPath)

	return stats, nil
}

func countNodes(fsys fs.FileSystem, path string) (int64, error) {
	rc, err := fsys.Open(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 64*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %s is empty", ErrInvalidInput, path)
	}
	if sc.Text() != graphcsv.NodeHeader {
		return 0, fmt.Errorf("%w: %s has unexpected header %q", ErrInvalidInput, path, sc.Text())
	}

	var n int64
	for sc.Scan() {
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// countDegrees scans the edge list once, accumulating out-degrees.
func countDegrees(ctx context.Context, fsys fs.FileSystem, path string, degrees []uint64) (edges int64, weighted bool, err error) {
	err = scanEdges(ctx, fsys, path, func(src, dst uint64, _ string, hasWeight bool) error {
		weighted = hasWeight
		degrees[src]++
		edges++
		return nil
	}, uint64(len(degrees)))
	return edges, weighted, err
}

// placeEdges scans the edge list again and drops every edge into its
// node's CSR segment, preserving file order within a node.
func placeEdges(ctx context.Context, fsys fs.FileSystem, path string, cursor []uint64, col []uint64, weights []float32) error {
	return scanEdges(ctx, fsys, path, func(src, dst uint64, weight string, hasWeight bool) error {
		pos := cursor[src]
		col[pos] = dst
		if weights != nil {
			w, err := strconv.ParseFloat(weight, 32)
			if err != nil {
				return fmt.Errorf("%w: bad weight %q", ErrInvalidInput, weight)
			}
			weights[pos] = float32(w)
		}
		cursor[src] = pos + 1
		return nil
	}, uint64(len(cursor)))
}

func scanEdges(ctx context.Context, fsys fs.FileSystem, path string, fn func(src, dst uint64, weight string, hasWeight bool) error, nodes uint64) error {
	rc, err := fsys.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s is empty", ErrInvalidInput, path)
	}

	var weighted bool
	switch sc.Text() {
	case graphcsv.EdgeHeader:
	case graphcsv.WeightedEdgeHeader:
		weighted = true
	default:
		return fmt.Errorf("%w: %s has unexpected header %q", ErrInvalidInput, path, sc.Text())
	}

	var line int64 = 1
	for sc.Scan() {
		line++
		src, dst, weight, err := splitEdge(sc.Text(), weighted)
		if err != nil {
			return fmt.Errorf("%w: %s line %d: %v", ErrInvalidInput, path, line, err)
		}
		if src >= nodes || dst >= nodes {
			return fmt.Errorf("%w: %s line %d: endpoint out of range", ErrInvalidInput, path, line)
		}
		if err := fn(src, dst, weight, weighted); err != nil {
			return err
		}
		if line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return sc.Err()
}

func splitEdge(line string, weighted bool) (src, dst uint64, weight string, err error) {
	srcStr, rest, ok := strings.Cut(line, ",")
	if !ok {
		return 0, 0, "", errors.New("missing dst column")
	}
	dstStr := rest
	if weighted {
		dstStr, weight, ok = strings.Cut(rest, ",")
		if !ok {
			return 0, 0, "", errors.New("missing weight column")
		}
	}
	if src, err = strconv.ParseUint(srcStr, 10, 64); err != nil {
		return 0, 0, "", err
	}
	if dst, err = strconv.ParseUint(dstStr, 10, 64); err != nil {
		return 0, 0, "", err
	}
	return src, dst, weight, nil
}

// binWriter commits a binary file atomically: payload streams into a
// temporary file that replaces the destination on success.
type binWriter struct {
	fsys fs.FileSystem
	path string
	tmp  string
	f    fs.File
	w    *bufio.Writer
}

func newBinWriter(fsys fs.FileSystem, path string, count uint64) (*binWriter, error) {
	tmp := path + tmpSuffix
	f, err := fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	bw := &binWriter{fsys: fsys, path: path, tmp: tmp, f: f, w: bufio.NewWriterSize(f, writeBuf)}
	var header [16]byte
	binary.LittleEndian.PutUint64(header[0:8], count)
	// Bytes 8..16 stay zero, reserved by the on-disk format.
	if _, err := bw.w.Write(header[:]); err != nil {
		bw.discard()
		return nil, err
	}
	return bw, nil
}

func (bw *binWriter) writeUint64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if _, err := bw.w.Write(buf[:]); err != nil {
		bw.discard()
		return err
	}
	return nil
}

func (bw *binWriter) writeFloat32(v float32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	if _, err := bw.w.Write(buf[:]); err != nil {
		bw.discard()
		return err
	}
	return nil
}

func (bw *binWriter) commit() error {
	if err := bw.w.Flush(); err != nil {
		bw.discard()
		return err
	}
	if err := bw.f.Sync(); err != nil {
		bw.discard()
		return err
	}
	if err := bw.f.Close(); err != nil {
		bw.f = nil
		bw.discard()
		return err
	}
	bw.f = nil
	if err := bw.fsys.Rename(bw.tmp, bw.path); err != nil {
		bw.fsys.Remove(bw.tmp)
		return err
	}
	return nil
}

func (bw *binWriter) discard() {
	if bw.f != nil {
		bw.f.Close()
		bw.f = nil
	}
	bw.fsys.Remove(bw.tmp)
}

func writeUint64File(fsys fs.FileSystem, path string, values []uint64) error {
	bw, err := newBinWriter(fsys, path, uint64(len(values)))
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := bw.writeUint64(v); err != nil {
			return err
		}
	}
	return bw.commit()
}

func writeWeightFile(fsys fs.FileSystem, path string, weights []float32, edges int64) error {
	bw, err := newBinWriter(fsys, path, uint64(edges))
	if err != nil {
		return err
	}
	if weights != nil {
		for _, w := range weights {
			if err := bw.writeFloat32(w); err != nil {
				return err
			}
		}
		return bw.commit()
	}
	for i := int64(0); i < edges; i++ {
		if err := bw.writeFloat32(1.0); err != nil {
			return err
		}
	}
	return bw.commit()
}
