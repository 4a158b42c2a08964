package graphdatasets

import (
	"github.com/WittenYeh/GraphDatasets/internal/fs"
)

// IDPolicy selects how raw Matrix Market identifiers become output node IDs.
type IDPolicy int

const (
	// IDFirstSeen remaps raw IDs to a dense 0-based range in the order
	// they first appear in the edge list. Nodes are derived strictly
	// from edges: a node declared only by the header's dimensions but
	// absent from every entry does not appear in nodes.csv.
	IDFirstSeen IDPolicy = iota

	// IDDeclared takes the node set from the header's dimensions
	// instead: node count is rows for square matrices, or rows+cols for
	// bipartite ones with column IDs offset by rows. Raw IDs map to
	// raw-1 and isolated nodes are preserved.
	IDDeclared
)

type options struct {
	weights         bool
	mirrorSymmetric bool
	idPolicy        IDPolicy
	outputDir       string
	logger          *Logger
	fsys            fs.FileSystem
}

// Option configures Convert behavior.
type Option func(*options)

// WithWeights controls value-column passthrough. Off by default: the
// value column is dropped and edges.csv has the header "src,dst". When
// enabled, the source must carry a value column and edges.csv gets a
// third "weight" column with the tokens copied verbatim.
func WithWeights(enabled bool) Option {
	return func(o *options) {
		o.weights = enabled
	}
}

// WithMirrorSymmetric controls mirrored-edge synthesis for matrices
// whose banner declares a symmetric variant. Off by default, matching
// the Matrix Market convention that one stored entry already stands for
// one undirected edge. When enabled, every non-loop entry additionally
// emits the reversed (dst, src) row.
func WithMirrorSymmetric(enabled bool) Option {
	return func(o *options) {
		o.mirrorSymmetric = enabled
	}
}

// WithIDPolicy selects the node ID assignment policy. Default IDFirstSeen.
func WithIDPolicy(policy IDPolicy) Option {
	return func(o *options) {
		o.idPolicy = policy
	}
}

// WithOutputDir overrides the output directory. By default outputs are
// written next to the input file.
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.outputDir = dir
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFS injects a filesystem implementation. Used by tests for fault
// injection; defaults to the local filesystem.
func WithFS(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fsys = fsys
		}
	}
}
