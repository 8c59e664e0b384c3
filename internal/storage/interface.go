// Package storage abstracts the filesystem the generator reads from and
// writes to. Generated outputs are staged in a Bundle and only reach disk
// once the whole run has succeeded.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a path does not exist.
var ErrNotFound = errors.New("file not found")

// Storage defines the filesystem operations used by the generator.
type Storage interface {
	// Read reads contents from a path.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write replaces the contents at path. The file is either fully written
	// or left untouched.
	Write(ctx context.Context, path string, content []byte) error

	// Exists checks if a path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// CopyFile copies a single file, creating parent directories.
	CopyFile(ctx context.Context, src, dst string) error

	// RemoveAll removes path and everything below it.
	RemoveAll(ctx context.Context, path string) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(ctx context.Context, path string) error
}

// Config holds storage configuration.
type Config struct {
	// Type is the storage type (filesystem, memory).
	Type string

	// BasePath is the directory relative paths are resolved against.
	BasePath string
}
