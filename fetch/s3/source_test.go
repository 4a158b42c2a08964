package s3

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRef(t *testing.T) {
	bucket, key, err := splitRef("s3://graph-mirrors/suitesparse/soc-LiveJournal1.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "graph-mirrors", bucket)
	assert.Equal(t, "suitesparse/soc-LiveJournal1.tar.gz", key)
}

func TestSplitRef_Invalid(t *testing.T) {
	for _, ref := range []string{
		"https://example.com/x",
		"s3://bucket-only",
		"s3:///no-bucket",
	} {
		_, _, err := splitRef(ref)
		assert.Error(t, err, ref)
	}
}

func TestIntegration_Open(t *testing.T) {
	ref := os.Getenv("S3_TEST_REF")
	if ref == "" {
		t.Skip("Skipping S3 integration test: S3_TEST_REF not set")
	}

	ctx := context.Background()
	src, err := NewDefault(ctx)
	require.NoError(t, err)

	obj, err := src.Open(ctx, ref, 0)
	require.NoError(t, err)
	defer obj.Body.Close()

	n, err := io.Copy(io.Discard, obj.Body)
	require.NoError(t, err)
	assert.Equal(t, obj.Size, n)
}
