// Package minio provides a fetch.Source for dataset mirrors on MinIO and
// other S3-compatible object stores. Refs use the form
// "minio://bucket/key"; the endpoint lives in the minio client.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/WittenYeh/GraphDatasets/fetch"
)

// Source implements fetch.Source backed by an S3-compatible store.
type Source struct {
	client *minio.Client
}

// New creates a MinIO source.
func New(client *minio.Client) *Source {
	return &Source{client: client}
}

// Open starts reading the object at offset.
func (s *Source) Open(ctx context.Context, ref string, offset int64) (*fetch.Object, error) {
	bucket, key, err := splitRef(ref)
	if err != nil {
		return nil, err
	}

	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("%w: %s", fetch.ErrNotFound, ref)
		}
		return nil, err
	}

	opts := minio.GetObjectOptions{}
	if offset > 0 {
		if err := opts.SetRange(offset, 0); err != nil {
			return nil, err
		}
	}
	obj, err := s.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, err
	}
	return &fetch.Object{Body: obj, Size: info.Size, Offset: offset}, nil
}

func splitRef(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "minio" || u.Host == "" {
		return "", "", fmt.Errorf("invalid minio ref %q, want minio://bucket/key", ref)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid minio ref %q: empty key", ref)
	}
	return u.Host, key, nil
}
