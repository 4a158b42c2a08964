// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open output file with write/sync/close capabilities
//   - [FileSystem]: the disk operations the toolkit performs
//
// # Implementations
//
//   - [LocalFS]: production implementation using the standard os package
//   - [FaultyFS]: test utility for fault injection (simulate I/O errors)
//
// Production code should use fs.Default (which is [LocalFS]). Tests can
// inject [FaultyFS] to make a specific output file fail mid-write, on
// sync or on rename, and then assert that no partial output survives.
//
// Filesystem operations intentionally take no context.Context: they are
// fast and non-interruptible at the syscall level. Cancellation belongs
// to the conversion loop, not to individual writes.
package fs
