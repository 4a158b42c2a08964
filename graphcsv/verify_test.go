package graphcsv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOutputs(t *testing.T, dir, nodes, edges string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, NodesFileName), []byte(nodes), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, EdgesFileName), []byte(edges), 0644))
}

func TestVerify_OK(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir,
		"node_id\n0\n1\n2\n3\n",
		"src,dst\n0,1\n1,2\n2,2\n")

	report, err := Verify(nil, dir)
	require.NoError(t, err)
	assert.Equal(t, int64(4), report.Nodes)
	assert.Equal(t, int64(3), report.Edges)
	assert.Equal(t, int64(3), report.TouchedNodes)
	assert.Equal(t, int64(1), report.IsolatedNodes)
	assert.False(t, report.Weighted)
}

func TestVerify_Weighted(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir,
		"node_id\n0\n1\n",
		"src,dst,weight\n0,1,0.5\n")

	report, err := Verify(nil, dir)
	require.NoError(t, err)
	assert.True(t, report.Weighted)
	assert.Equal(t, int64(1), report.Edges)
}

func TestVerify_EndpointOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir,
		"node_id\n0\n1\n",
		"src,dst\n0,5\n")

	_, err := Verify(nil, dir)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestVerify_NonContiguousNodes(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir,
		"node_id\n0\n2\n",
		"src,dst\n0,1\n")

	_, err := Verify(nil, dir)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestVerify_BadHeaders(t *testing.T) {
	dir := t.TempDir()
	writeOutputs(t, dir,
		"id\n0\n",
		"src,dst\n")

	_, err := Verify(nil, dir)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestVerify_MissingFiles(t *testing.T) {
	_, err := Verify(nil, t.TempDir())
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
