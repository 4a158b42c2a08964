package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRef(t *testing.T) {
	bucket, key, err := splitRef("minio://datasets/snap/com-dblp.ungraph.txt.gz")
	require.NoError(t, err)
	assert.Equal(t, "datasets", bucket)
	assert.Equal(t, "snap/com-dblp.ungraph.txt.gz", key)
}

func TestSplitRef_Invalid(t *testing.T) {
	for _, ref := range []string{"s3://bucket/key", "minio://bucket"} {
		_, _, err := splitRef(ref)
		assert.Error(t, err, ref)
	}
}
