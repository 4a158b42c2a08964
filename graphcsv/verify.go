package graphcsv

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/WittenYeh/GraphDatasets/internal/fs"
)

// ErrInvalidOutput indicates that nodes.csv/edges.csv violate the
// canonical-format contract.
var ErrInvalidOutput = errors.New("invalid converted output")

// Report summarizes a verified dataset directory.
type Report struct {
	Nodes         int64
	Edges         int64
	TouchedNodes  int64 // distinct node IDs referenced by at least one edge
	Weighted      bool
	IsolatedNodes int64 // Nodes - TouchedNodes
}

// Verify re-reads nodes.csv and edges.csv from dir and checks the
// conversion invariants on the actual files: node IDs are exactly
// 0..N-1 in ascending order and every edge endpoint lies in [0, N).
//
// Endpoint tracking uses a roaring bitmap so verification stays cheap on
// graphs with hundreds of millions of edges.
func Verify(fsys fs.FileSystem, dir string) (*Report, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	nodes, err := verifyNodes(fsys, filepath.Join(dir, NodesFileName))
	if err != nil {
		return nil, err
	}
	if nodes > math.MaxUint32 {
		return nil, fmt.Errorf("%w: node count %d exceeds supported range", ErrInvalidOutput, nodes)
	}

	report := &Report{Nodes: nodes}
	touched := roaring.New()
	if err := verifyEdges(fsys, filepath.Join(dir, EdgesFileName), nodes, touched, report); err != nil {
		return nil, err
	}
	report.TouchedNodes = int64(touched.GetCardinality())
	report.IsolatedNodes = report.Nodes - report.TouchedNodes
	return report, nil
}

func verifyNodes(fsys fs.FileSystem, path string) (int64, error) {
	rc, err := fsys.Open(path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	if !sc.Scan() {
		return 0, fmt.Errorf("%w: %s is empty", ErrInvalidOutput, path)
	}
	if got := strings.TrimSpace(sc.Text()); got != NodeHeader {
		return 0, fmt.Errorf("%w: %s header is %q, want %q", ErrInvalidOutput, path, got, NodeHeader)
	}

	var n int64
	for sc.Scan() {
		id, err := strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s row %d is not an integer", ErrInvalidOutput, path, n+1)
		}
		if id != n {
			return 0, fmt.Errorf("%w: %s row %d has node_id %d, IDs must be contiguous from 0", ErrInvalidOutput, path, n+1, id)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

func verifyEdges(fsys fs.FileSystem, path string, nodes int64, touched *roaring.Bitmap, report *Report) error {
	rc, err := fsys.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	if !sc.Scan() {
		return fmt.Errorf("%w: %s is empty", ErrInvalidOutput, path)
	}
	switch strings.TrimSpace(sc.Text()) {
	case EdgeHeader:
	case WeightedEdgeHeader:
		report.Weighted = true
	default:
		return fmt.Errorf("%w: %s has unexpected header %q", ErrInvalidOutput, path, sc.Text())
	}

	wantFields := 2
	if report.Weighted {
		wantFields = 3
	}
	line := int64(1)
	for sc.Scan() {
		line++
		fields := strings.Split(strings.TrimSpace(sc.Text()), ",")
		if len(fields) != wantFields {
			return fmt.Errorf("%w: %s:%d has %d columns, want %d", ErrInvalidOutput, path, line, len(fields), wantFields)
		}
		for _, f := range fields[:2] {
			id, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s:%d endpoint %q is not an integer", ErrInvalidOutput, path, line, f)
			}
			if id < 0 || id >= nodes {
				return fmt.Errorf("%w: %s:%d endpoint %d out of range [0, %d)", ErrInvalidOutput, path, line, id, nodes)
			}
			touched.Add(uint32(id))
		}
		report.Edges++
	}
	return sc.Err()
}
