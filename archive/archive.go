// Package archive extracts downloaded dataset archives.
//
// Public graph repositories ship datasets in a handful of containers:
// gzip-compressed edge lists (SNAP), tar.gz bundles (SuiteSparse), zip
// files that in turn contain a tar (Yelp), and occasionally zstd or lz4
// streams. Extract dispatches on the file name suffix.
package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrUnsupported is returned for archive types the toolkit cannot unpack.
var ErrUnsupported = errors.New("unsupported archive type")

const copyBufSize = 1 << 20

// Extract unpacks the archive at path into destDir and returns the paths
// of the files it produced. Single-stream compression (.gz, .zst, .lz4)
// yields one file named after the archive with the suffix stripped.
func Extract(path, destDir string) ([]string, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return untar(path, destDir, decompressorGzip)
	case strings.HasSuffix(name, ".tar.zst"):
		return untar(path, destDir, decompressorZstd)
	case strings.HasSuffix(name, ".tar"):
		return untar(path, destDir, nil)
	case strings.HasSuffix(name, ".zip"):
		return unzip(path, destDir)
	case strings.HasSuffix(name, ".gz"):
		return decompressFile(path, destDir, ".gz", decompressorGzip)
	case strings.HasSuffix(name, ".zst"):
		return decompressFile(path, destDir, ".zst", decompressorZstd)
	case strings.HasSuffix(name, ".lz4"):
		return decompressFile(path, destDir, ".lz4", decompressorLZ4)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
}

// Supported reports whether Extract can handle the file name.
func Supported(name string) bool {
	name = strings.ToLower(name)
	for _, suffix := range []string{".tar.gz", ".tgz", ".tar.zst", ".tar", ".zip", ".gz", ".zst", ".lz4"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// decompressor wraps a raw stream with a decoding reader.
type decompressor func(io.Reader) (io.ReadCloser, error)

func decompressorGzip(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func decompressorZstd(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func decompressorLZ4(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func decompressFile(path, destDir, suffix string, wrap decompressor) ([]string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	dec, err := wrap(in)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	outName := strings.TrimSuffix(filepath.Base(path), suffix)
	outPath := filepath.Join(destDir, outName)
	if err := writeFile(outPath, dec); err != nil {
		return nil, err
	}
	return []string{outPath}, nil
}

func untar(path, destDir string, wrap decompressor) ([]string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var r io.Reader = in
	if wrap != nil {
		dec, err := wrap(in)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	var produced []string
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return produced, nil
		}
		if err != nil {
			return nil, err
		}
		outPath, err := securePath(destDir, hdr.Name)
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(outPath, 0755); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
				return nil, err
			}
			if err := writeFile(outPath, tr); err != nil {
				return nil, err
			}
			produced = append(produced, outPath)
		}
	}
}

func unzip(path, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var produced []string
	for _, f := range zr.File {
		outPath, err := securePath(destDir, f.Name)
		if err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0755); err != nil {
				return nil, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return nil, err
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		err = writeFile(outPath, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		produced = append(produced, outPath)
	}
	return produced, nil
}

// securePath rejects archive entries that would escape destDir.
func securePath(destDir, name string) (string, error) {
	name = filepath.FromSlash(name)
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("archive entry %q escapes the destination directory", name)
	}
	return filepath.Join(destDir, name), nil
}

func writeFile(path string, r io.Reader) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	buf := make([]byte, copyBufSize)
	if _, err := io.CopyBuffer(out, r, buf); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
