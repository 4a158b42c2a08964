package mtx

import "strings"

const bannerPrefix = "%%MatrixMarket"

// Header holds the banner fields of a Matrix Market file.
// Files without a banner default to a general coordinate matrix.
type Header struct {
	Object   string // "matrix"
	Format   string // "coordinate" ("array" is rejected by the scanner)
	Field    string // "real", "integer", "pattern" or "complex"
	Symmetry string // "general", "symmetric", "skew-symmetric" or "hermitian"
}

// Symmetric reports whether each stored entry stands for both
// orientations of an undirected edge.
func (h Header) Symmetric() bool {
	return h.Symmetry == "symmetric" || h.Symmetry == "skew-symmetric" || h.Symmetry == "hermitian"
}

func defaultHeader() Header {
	return Header{Object: "matrix", Format: "coordinate", Field: "real", Symmetry: "general"}
}

var (
	validObjects = map[string]bool{"matrix": true}
	validFormats = map[string]bool{"coordinate": true, "array": true}
	validFields  = map[string]bool{"real": true, "integer": true, "pattern": true, "complex": true, "double": true}
	validSyms    = map[string]bool{"general": true, "symmetric": true, "skew-symmetric": true, "hermitian": true}
)

// parseBanner parses a "%%MatrixMarket object format field symmetry" line.
func parseBanner(path string, line int, s string) (Header, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) != 5 {
		return Header{}, formatErrf(path, line, "banner must have 5 fields, got %d", len(fields))
	}
	h := Header{Object: fields[1], Format: fields[2], Field: fields[3], Symmetry: fields[4]}
	switch {
	case !validObjects[h.Object]:
		return Header{}, formatErrf(path, line, "unsupported object %q", h.Object)
	case !validFormats[h.Format]:
		return Header{}, formatErrf(path, line, "unknown format %q", h.Format)
	case !validFields[h.Field]:
		return Header{}, formatErrf(path, line, "unknown field %q", h.Field)
	case !validSyms[h.Symmetry]:
		return Header{}, formatErrf(path, line, "unknown symmetry %q", h.Symmetry)
	}
	return h, nil
}
