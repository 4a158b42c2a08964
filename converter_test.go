package graphdatasets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/WittenYeh/GraphDatasets/graphcsv"
	"github.com/WittenYeh/GraphDatasets/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMTX(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "graph.mtx")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestConvert_SymmetricPattern(t *testing.T) {
	dir := t.TempDir()
	path := writeMTX(t, dir,
		"%%MatrixMarket matrix coordinate pattern symmetric\n"+
			"3 3 2\n"+
			"1 2\n"+
			"2 3\n")

	stats, err := Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Nodes)
	assert.Equal(t, int64(2), stats.Edges)
	assert.True(t, stats.Symmetric)
	assert.False(t, stats.Weighted)

	assert.Equal(t, "node_id\n0\n1\n2\n", readOutput(t, dir, graphcsv.NodesFileName))
	assert.Equal(t, "src,dst\n0,1\n1,2\n", readOutput(t, dir, graphcsv.EdgesFileName))
}

func TestConvert_FirstSeenOrder(t *testing.T) {
	dir := t.TempDir()
	// Raw IDs are sparse and out of order: 9 -> 0, 4 -> 1, 2 -> 2.
	path := writeMTX(t, dir,
		"10 10 2\n"+
			"9 4\n"+
			"4 2\n")

	stats, err := Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Nodes, "nodes derive from edges, not from the declared dimension")
	assert.Equal(t, "src,dst\n0,1\n1,2\n", readOutput(t, dir, graphcsv.EdgesFileName))
	assert.Equal(t, "node_id\n0\n1\n2\n", readOutput(t, dir, graphcsv.NodesFileName))
}

func TestConvert_Deterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeMTX(t, dir,
		"4 4 3\n"+
			"4 1\n"+
			"2 3\n"+
			"1 2\n")

	_, err := Convert(context.Background(), path)
	require.NoError(t, err)
	first := readOutput(t, dir, graphcsv.NodesFileName) + readOutput(t, dir, graphcsv.EdgesFileName)

	_, err = Convert(context.Background(), path)
	require.NoError(t, err)
	second := readOutput(t, dir, graphcsv.NodesFileName) + readOutput(t, dir, graphcsv.EdgesFileName)

	assert.Equal(t, first, second, "re-running must produce byte-identical output")
}

func TestConvert_WeightModes(t *testing.T) {
	input := "%%MatrixMarket matrix coordinate real general\n" +
		"2 2 1\n" +
		"1 2 0.5\n"

	t.Run("dropped by default", func(t *testing.T) {
		dir := t.TempDir()
		path := writeMTX(t, dir, input)
		stats, err := Convert(context.Background(), path)
		require.NoError(t, err)
		assert.False(t, stats.Weighted)
		assert.Equal(t, "src,dst\n0,1\n", readOutput(t, dir, graphcsv.EdgesFileName))
	})

	t.Run("passed through when enabled", func(t *testing.T) {
		dir := t.TempDir()
		path := writeMTX(t, dir, input)
		stats, err := Convert(context.Background(), path, WithWeights(true))
		require.NoError(t, err)
		assert.True(t, stats.Weighted)
		assert.Equal(t, "src,dst,weight\n0,1,0.5\n", readOutput(t, dir, graphcsv.EdgesFileName))
	})

	t.Run("enabled against unweighted source fails", func(t *testing.T) {
		dir := t.TempDir()
		path := writeMTX(t, dir, "2 2 1\n1 2\n")
		_, err := Convert(context.Background(), path, WithWeights(true))
		var ferr *FormatError
		require.ErrorAs(t, err, &ferr)
		assert.NoFileExists(t, filepath.Join(dir, graphcsv.EdgesFileName))
	})
}

func TestConvert_MirrorSymmetric(t *testing.T) {
	dir := t.TempDir()
	path := writeMTX(t, dir,
		"%%MatrixMarket matrix coordinate pattern symmetric\n"+
			"3 3 2\n"+
			"1 2\n"+
			"3 3\n")

	stats, err := Convert(context.Background(), path, WithMirrorSymmetric(true))
	require.NoError(t, err)
	// The loop entry (3,3) must not be duplicated.
	assert.Equal(t, int64(3), stats.Edges)
	assert.Equal(t, "src,dst\n0,1\n1,0\n2,2\n", readOutput(t, dir, graphcsv.EdgesFileName))
}

func TestConvert_MirrorIgnoredForGeneral(t *testing.T) {
	dir := t.TempDir()
	path := writeMTX(t, dir, "2 2 1\n1 2\n")

	stats, err := Convert(context.Background(), path, WithMirrorSymmetric(true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Edges)
}

func TestConvert_DeclaredIDs(t *testing.T) {
	t.Run("square with isolated nodes", func(t *testing.T) {
		dir := t.TempDir()
		path := writeMTX(t, dir,
			"5 5 2\n"+
				"1 2\n"+
				"4 3\n")

		stats, err := Convert(context.Background(), path, WithIDPolicy(IDDeclared))
		require.NoError(t, err)
		assert.Equal(t, int64(5), stats.Nodes, "isolated node 5 must be preserved")
		assert.Equal(t, "node_id\n0\n1\n2\n3\n4\n", readOutput(t, dir, graphcsv.NodesFileName))
		assert.Equal(t, "src,dst\n0,1\n3,2\n", readOutput(t, dir, graphcsv.EdgesFileName))
	})

	t.Run("bipartite offsets columns", func(t *testing.T) {
		dir := t.TempDir()
		path := writeMTX(t, dir,
			"2 3 2\n"+
				"1 1\n"+
				"2 3\n")

		stats, err := Convert(context.Background(), path, WithIDPolicy(IDDeclared))
		require.NoError(t, err)
		assert.Equal(t, int64(5), stats.Nodes)
		// Column j maps to rows + j - 1.
		assert.Equal(t, "src,dst\n0,2\n1,4\n", readOutput(t, dir, graphcsv.EdgesFileName))
	})
}

func TestConvert_MissingFile(t *testing.T) {
	_, err := Convert(context.Background(), filepath.Join(t.TempDir(), "nope.mtx"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConvert_EntryCountMismatchLeavesOutputsUntouched(t *testing.T) {
	dir := t.TempDir()
	nodesPath := filepath.Join(dir, graphcsv.NodesFileName)
	edgesPath := filepath.Join(dir, graphcsv.EdgesFileName)
	require.NoError(t, os.WriteFile(nodesPath, []byte("node_id\n0\n"), 0644))
	require.NoError(t, os.WriteFile(edgesPath, []byte("src,dst\n0,0\n"), 0644))

	path := writeMTX(t, dir,
		"3 3 3\n"+
			"1 2\n"+
			"2 3\n")

	_, err := Convert(context.Background(), path)
	var ferr *FormatError
	require.ErrorAs(t, err, &ferr)

	assert.Equal(t, "node_id\n0\n", readOutput(t, dir, graphcsv.NodesFileName))
	assert.Equal(t, "src,dst\n0,0\n", readOutput(t, dir, graphcsv.EdgesFileName))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "no temp files may survive: %s", e.Name())
	}
}

func TestConvert_WriteFailureLeavesNoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeMTX(t, dir, "2 2 1\n1 2\n")

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(graphcsv.EdgesFileName, fs.Fault{FailOnSync: true})

	_, err := Convert(context.Background(), path, WithFS(ffs))
	require.ErrorIs(t, err, fs.ErrInjected)

	assert.NoFileExists(t, filepath.Join(dir, graphcsv.EdgesFileName))
	assert.NoFileExists(t, filepath.Join(dir, graphcsv.NodesFileName))
}

func TestConvert_LateSyncFailureLeavesBothOutputsUntouched(t *testing.T) {
	dir := t.TempDir()
	nodesPath := filepath.Join(dir, graphcsv.NodesFileName)
	edgesPath := filepath.Join(dir, graphcsv.EdgesFileName)
	require.NoError(t, os.WriteFile(nodesPath, []byte("node_id\n0\n"), 0644))
	require.NoError(t, os.WriteFile(edgesPath, []byte("src,dst\n0,0\n"), 0644))

	path := writeMTX(t, dir, "2 2 1\n1 2\n")

	// nodes.csv is the last file finalized; its sync failure must not
	// leave a freshly replaced edges.csv behind.
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(graphcsv.NodesFileName, fs.Fault{FailOnSync: true})

	_, err := Convert(context.Background(), path, WithFS(ffs))
	require.ErrorIs(t, err, fs.ErrInjected)

	assert.Equal(t, "node_id\n0\n", readOutput(t, dir, graphcsv.NodesFileName))
	assert.Equal(t, "src,dst\n0,0\n", readOutput(t, dir, graphcsv.EdgesFileName))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "no temp files may survive: %s", e.Name())
	}
}

func TestConvert_ContextCancellation(t *testing.T) {
	dir := t.TempDir()

	var sb strings.Builder
	const entries = 70000 // enough to cross a cancellation check
	fmt.Fprintf(&sb, "%d %d %d\n", entries, entries, entries)
	for i := 1; i <= entries; i++ {
		fmt.Fprintf(&sb, "%d %d\n", i, i)
	}
	path := writeMTX(t, dir, sb.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Convert(ctx, path)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, graphcsv.EdgesFileName))
}

func TestConvert_OutputDirOverride(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	path := writeMTX(t, srcDir, "2 2 1\n1 2\n")

	_, err := Convert(context.Background(), path, WithOutputDir(outDir))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, graphcsv.EdgesFileName))
	assert.NoFileExists(t, filepath.Join(srcDir, graphcsv.EdgesFileName))
}

func TestConvert_VerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeMTX(t, dir,
		"6 6 4\n"+
			"1 2\n"+
			"2 3\n"+
			"5 6\n"+
			"6 1\n")

	stats, err := Convert(context.Background(), path)
	require.NoError(t, err)

	report, err := graphcsv.Verify(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, stats.Nodes, report.Nodes)
	assert.Equal(t, stats.Edges, report.Edges)
	assert.Equal(t, int64(0), report.IsolatedNodes)
}
