package graphdatasets

import (
	"context"
	"path/filepath"
	"time"

	"github.com/WittenYeh/GraphDatasets/graphcsv"
	"github.com/WittenYeh/GraphDatasets/internal/fs"
	"github.com/WittenYeh/GraphDatasets/internal/idmap"
	"github.com/WittenYeh/GraphDatasets/mtx"
)

// Stats summarizes a completed conversion.
type Stats struct {
	Nodes     int64
	Edges     int64 // rows written to edges.csv, including mirrored ones
	Weighted  bool
	Symmetric bool // source banner declared a symmetric variant
	Duration  time.Duration
}

// checkEvery is how many entries pass between context checks.
const checkEvery = 1 << 16

// Convert reads the Matrix Market file at path and writes nodes.csv and
// edges.csv into the file's directory (or the configured output
// directory). The input is read exactly once; edge rows stream to disk
// as they are parsed.
//
// Outputs are committed atomically: rows go to temporary files that
// replace the destinations only after the whole input parsed cleanly,
// and both temp files are flushed and synced before the first rename
// (nodes.csv, then edges.csv). On failure before the renames any
// pre-existing outputs stay untouched.
//
// Re-running Convert with the same input and options produces
// byte-identical outputs.
func Convert(ctx context.Context, path string, optFns ...Option) (*Stats, error) {
	opts := options{
		logger: NoopLogger(),
		fsys:   fs.Default,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.outputDir == "" {
		opts.outputDir = filepath.Dir(path)
	}

	start := time.Now()
	stats, err := convert(ctx, path, &opts)
	if stats != nil {
		stats.Duration = time.Since(start)
	}
	opts.logger.LogConvert(ctx, path, stats, err)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func convert(ctx context.Context, path string, opts *options) (*Stats, error) {
	in, err := opts.fsys.Open(path)
	if err != nil {
		return nil, translateError(path, err)
	}
	defer in.Close()

	sc, err := mtx.NewScanner(in, path)
	if err != nil {
		return nil, err
	}
	header := sc.Header()
	size := sc.Size()
	bipartite := size.Rows != size.Cols
	mirror := opts.mirrorSymmetric && header.Symmetric()

	edgeHeader := graphcsv.EdgeHeader
	if opts.weights {
		edgeHeader = graphcsv.WeightedEdgeHeader
	}
	edges, err := graphcsv.NewWriter(opts.fsys, filepath.Join(opts.outputDir, graphcsv.EdgesFileName), edgeHeader)
	if err != nil {
		return nil, err
	}
	defer edges.Discard()

	var (
		ids     *idmap.Map
		written int64
	)
	if opts.idPolicy == IDFirstSeen {
		ids = idmap.New()
	}

	for sc.Scan() {
		entry := sc.Entry()
		if sc.Count() == 1 && opts.weights && !entry.HasWeight {
			return nil, &mtx.FormatError{Path: path, Msg: "weight output requested but source has no value column"}
		}

		var src, dst int64
		if ids != nil {
			src = ids.Get(entry.Row)
			dst = ids.Get(entry.Col)
		} else {
			src = entry.Row - 1
			dst = entry.Col - 1
			if bipartite {
				dst += size.Rows
			}
		}

		if err := writeEdge(edges, opts.weights, src, dst, entry.Weight); err != nil {
			return nil, err
		}
		written++
		if mirror && src != dst {
			if err := writeEdge(edges, opts.weights, dst, src, entry.Weight); err != nil {
				return nil, err
			}
			written++
		}

		if sc.Count()%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	nodeCount := size.Rows
	if bipartite {
		nodeCount = size.Rows + size.Cols
	}
	if ids != nil {
		nodeCount = ids.Len()
	}

	nodes, err := graphcsv.NewWriter(opts.fsys, filepath.Join(opts.outputDir, graphcsv.NodesFileName), graphcsv.NodeHeader)
	if err != nil {
		return nil, err
	}
	defer nodes.Discard()

	for id := int64(0); id < nodeCount; id++ {
		if err := nodes.WriteNode(id); err != nil {
			return nil, err
		}
		if id%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	// Both temp files become durable before either destination is
	// replaced; only a failure between the two renames can leave mixed
	// generations on disk.
	if err := edges.Finish(); err != nil {
		return nil, err
	}
	if err := nodes.Finish(); err != nil {
		return nil, err
	}
	if err := nodes.Commit(); err != nil {
		return nil, err
	}
	if err := edges.Commit(); err != nil {
		return nil, err
	}

	return &Stats{
		Nodes:     nodeCount,
		Edges:     written,
		Weighted:  opts.weights,
		Symmetric: header.Symmetric(),
	}, nil
}

func writeEdge(w *graphcsv.Writer, weighted bool, src, dst int64, weight string) error {
	if weighted {
		return w.WriteWeightedEdge(src, dst, weight)
	}
	return w.WriteEdge(src, dst)
}
