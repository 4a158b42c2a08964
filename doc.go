// Package graphdatasets normalizes public graph datasets into a uniform
// two-file CSV representation.
//
// The core operation is Convert, a single-pass, streaming Matrix Market
// to CSV converter: it remaps arbitrary 1-indexed, possibly sparse node
// identifiers to a dense 0-based range and writes nodes.csv and
// edges.csv next to the input file. Memory use is proportional to the
// number of distinct node IDs, not to the file size, so graphs with
// billions of edges convert on modest machines.
//
//	stats, err := graphdatasets.Convert(ctx, "soc-LiveJournal1.mtx")
//
// Outputs are committed atomically: on any parse or I/O failure the
// previous nodes.csv/edges.csv are left untouched.
//
// The surrounding subpackages handle the rest of the acquisition
// pipeline: fetch (resumable downloads), archive (extraction), dataset
// (catalog and pipeline), graphcsv (output verification), typemeta
// (column type metadata) and csrbin (binary CSR export).
package graphdatasets
