// Package typemeta infers property column types from converted CSV files
// and persists them as type_meta.json, so downstream loaders know how to
// interpret node and edge properties without scanning the full files.
package typemeta

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/WittenYeh/GraphDatasets/codec"
	"github.com/WittenYeh/GraphDatasets/graphcsv"
	"github.com/WittenYeh/GraphDatasets/internal/fs"
)

// FileName is the metadata file written next to the CSVs.
const FileName = "type_meta.json"

// Supported type strings.
const (
	TypeLong    = "long"
	TypeDouble  = "double"
	TypeBoolean = "boolean"
	TypeString  = "string"
)

// sampleRows is how many data rows are inspected per file.
const sampleRows = 10000

// Meta maps property column names to type strings for both files.
// ID columns (node_id, src, dst) are never included.
type Meta struct {
	NodeTypes map[string]string `json:"node_types"`
	EdgeTypes map[string]string `json:"edge_types"`
}

// Generate infers types from nodes.csv/edges.csv in dir and writes
// type_meta.json there. Missing CSVs contribute empty maps rather than
// failing, so it can run on partially converted directories.
func Generate(fsys fs.FileSystem, dir string) (*Meta, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	meta := &Meta{
		NodeTypes: map[string]string{},
		EdgeTypes: map[string]string{},
	}

	nodeTypes, err := inferFile(fsys, filepath.Join(dir, graphcsv.NodesFileName), 1)
	if err != nil {
		return nil, err
	}
	if nodeTypes != nil {
		meta.NodeTypes = nodeTypes
	}

	edgeTypes, err := inferFile(fsys, filepath.Join(dir, graphcsv.EdgesFileName), 2)
	if err != nil {
		return nil, err
	}
	if edgeTypes != nil {
		meta.EdgeTypes = edgeTypes
	}

	if err := write(fsys, filepath.Join(dir, FileName), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// inferFile samples path and infers a type per column, skipping the
// first skipColumns ID columns. Returns nil if the file does not exist.
func inferFile(fsys fs.FileSystem, path string, skipColumns int) (map[string]string, error) {
	rc, err := fsys.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	columns := make([]string, len(header))
	copy(columns, header)

	kinds := make([]kind, len(columns))
	for row := 0; row < sampleRows; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := skipColumns; i < len(record) && i < len(kinds); i++ {
			kinds[i] = kinds[i].observe(record[i])
		}
	}

	types := make(map[string]string, len(columns)-skipColumns)
	for i := skipColumns; i < len(columns); i++ {
		types[columns[i]] = kinds[i].typeString()
	}
	return types, nil
}

func write(fsys fs.FileSystem, path string, meta *Meta) error {
	data, err := codec.Default.Marshal(meta)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := fsys.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		fsys.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		fsys.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		fsys.Remove(tmpPath)
		return err
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		fsys.Remove(tmpPath)
		return err
	}
	return nil
}

// kind is the inference lattice: unseen -> boolean/long -> double -> string.
// Conflicting observations promote; empty values are treated as missing.
type kind int

const (
	kindUnseen kind = iota
	kindBoolean
	kindLong
	kindDouble
	kindString
)

func (k kind) observe(value string) kind {
	if k == kindString {
		return k
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return k
	}
	observed := classify(value)
	if k == kindUnseen {
		return observed
	}
	return promote(k, observed)
}

func classify(value string) kind {
	switch strings.ToLower(value) {
	case "true", "false":
		return kindBoolean
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return kindLong
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return kindDouble
	}
	return kindString
}

func promote(a, b kind) kind {
	if a == b {
		return a
	}
	// Numeric widening is the only compatible promotion.
	if (a == kindLong && b == kindDouble) || (a == kindDouble && b == kindLong) {
		return kindDouble
	}
	return kindString
}

func (k kind) typeString() string {
	switch k {
	case kindBoolean:
		return TypeBoolean
	case kindLong:
		return TypeLong
	case kindDouble:
		return TypeDouble
	default:
		return TypeString
	}
}
