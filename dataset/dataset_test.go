package dataset

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WittenYeh/GraphDatasets/typemeta"
)

const toyMTX = `%%MatrixMarket matrix coordinate pattern symmetric
3 3 2
1 2
2 3
`

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLookup(t *testing.T) {
	ds, ok := Lookup("com-dblp")
	require.True(t, ok)
	assert.Equal(t, FormatEdgeList, ds.Format)
	assert.Equal(t, "snap", ds.Source)

	_, ok = Lookup("no-such-dataset")
	assert.False(t, ok)
}

func TestAll_SortedByName(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
}

func TestPipeline_RunDataset_MTX(t *testing.T) {
	payload := gzipBytes(t, toyMTX)

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	defer srv.Close()

	root := t.TempDir()
	p := NewPipeline(root)
	ds := Dataset{
		Name:   "toy",
		Source: "test",
		URL:    srv.URL + "/toy.mtx.gz",
		Format: FormatMTX,
	}

	require.NoError(t, p.RunDataset(context.Background(), ds))

	dir := filepath.Join(root, "toy")
	nodes, err := os.ReadFile(filepath.Join(dir, "nodes.csv"))
	require.NoError(t, err)
	assert.Equal(t, "node_id\n0\n1\n2\n", string(nodes))

	edges, err := os.ReadFile(filepath.Join(dir, "edges.csv"))
	require.NoError(t, err)
	assert.Equal(t, "src,dst\n0,1\n1,2\n", string(edges))

	_, err = os.Stat(filepath.Join(dir, typemeta.FileName))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "toy", m.Name)
	assert.Equal(t, FormatMTX, m.Format)
	assert.EqualValues(t, 3, m.Nodes)
	assert.EqualValues(t, 2, m.Edges)

	// A second run finds the outputs and never touches the network.
	before := hits.Load()
	require.NoError(t, p.RunDataset(context.Background(), ds))
	assert.Equal(t, before, hits.Load())
}

func TestPipeline_RunDataset_EdgeListStopsAfterExtract(t *testing.T) {
	payload := gzipBytes(t, "1 2\n2 3\n")

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(payload)
	}))
	defer srv.Close()

	root := t.TempDir()
	p := NewPipeline(root)
	ds := Dataset{
		Name:   "toy-el",
		Source: "test",
		URL:    srv.URL + "/toy-el.ungraph.txt.gz",
		Format: FormatEdgeList,
	}

	require.NoError(t, p.RunDataset(context.Background(), ds))

	dir := filepath.Join(root, "toy-el")
	raw, err := os.ReadFile(filepath.Join(dir, "toy-el.ungraph.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1 2\n2 3\n", string(raw))

	_, err = os.Stat(filepath.Join(dir, "nodes.csv"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, ManifestFileName))
	require.NoError(t, err)

	// The manifest marks the directory complete.
	before := hits.Load()
	require.NoError(t, p.RunDataset(context.Background(), ds))
	assert.Equal(t, before, hits.Load())
}

func TestExtractNested_ZipContainingTarGz(t *testing.T) {
	dir := t.TempDir()

	// tar.gz with one file
	var tarBuf bytes.Buffer
	zw := gzip.NewWriter(&tarBuf)
	tw := tar.NewWriter(zw)
	content := []byte("payload\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "inner.txt", Mode: 0644, Size: int64(len(content))}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())

	// zip wrapping the tar.gz
	zipPath := filepath.Join(dir, "bundle.zip")
	zf, err := os.Create(zipPath)
	require.NoError(t, err)
	zipw := zip.NewWriter(zf)
	entry, err := zipw.Create("inner.tar.gz")
	require.NoError(t, err)
	_, err = entry.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zipw.Close())
	require.NoError(t, zf.Close())

	files, err := extractNested(zipPath)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "inner.txt", filepath.Base(files[0]))

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(raw))
}

func TestPipeline_Run_UnknownDataset(t *testing.T) {
	p := NewPipeline(t.TempDir())
	err := p.Run(context.Background(), "no-such-dataset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-dataset")
}

func TestRemoteFileName(t *testing.T) {
	name, err := remoteFileName("https://snap.stanford.edu/data/cit-Patents.txt.gz")
	require.NoError(t, err)
	assert.Equal(t, "cit-Patents.txt.gz", name)

	_, err = remoteFileName("https://example.com/")
	assert.Error(t, err)
}

func TestFindMTX_PrefersDatasetName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"aaa_coord.mtx", "toy.mtx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	got, err := findMTX(dir, "toy", nil)
	require.NoError(t, err)
	assert.Equal(t, "toy.mtx", filepath.Base(got))
}

func TestFindMTX_NoneFound(t *testing.T) {
	_, err := findMTX(t.TempDir(), "toy", nil)
	require.Error(t, err)
}
