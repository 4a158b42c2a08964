package fs

import (
	"io"
	"os"
)

// File represents an open file used for output writing.
type File interface {
	io.Writer
	io.Closer
	Sync() error
}

// FileSystem abstracts the disk operations the toolkit performs, so
// failure paths (short writes, failing syncs and renames) are testable.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Open(name string) (io.ReadCloser, error)  { return os.Open(name) }
func (LocalFS) Remove(name string) error                 { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error     { return os.Rename(oldpath, newpath) }
func (LocalFS) Stat(name string) (os.FileInfo, error)    { return os.Stat(name) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Default is the default local file system.
var Default FileSystem = LocalFS{}
