package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FS implements Storage on top of an afero filesystem.
type FS struct {
	fs       afero.Fs
	basePath string
}

// NewFS wraps fs. Relative paths are resolved against basePath.
func NewFS(fs afero.Fs, basePath string) *FS {
	return &FS{fs: fs, basePath: basePath}
}

// Afero exposes the wrapped filesystem.
func (s *FS) Afero() afero.Fs {
	return s.fs
}

func (s *FS) resolvePath(path string) string {
	if filepath.IsAbs(path) || s.basePath == "" {
		return path
	}
	return filepath.Join(s.basePath, path)
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Read reads contents from a path.
func (s *FS) Read(ctx context.Context, path string) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	content, err := afero.ReadFile(s.fs, s.resolvePath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Write writes content to a sibling temporary file and renames it into
// place, so a failed write never leaves a truncated file at path.
func (s *FS) Write(ctx context.Context, path string, content []byte) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	fullPath := s.resolvePath(path)
	if err := s.fs.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := fullPath + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := s.fs.Rename(tmp, fullPath); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// Exists checks if a path exists.
func (s *FS) Exists(ctx context.Context, path string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, s.resolvePath(path))
}

// CopyFile copies src to dst.
func (s *FS) CopyFile(ctx context.Context, src, dst string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	in, err := s.fs.Open(s.resolvePath(src))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, src)
		}
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	dstPath := s.resolvePath(dst)
	if err := s.fs.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out, err := s.fs.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// RemoveAll removes path and everything below it.
func (s *FS) RemoveAll(ctx context.Context, path string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := s.fs.RemoveAll(s.resolvePath(path)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// MkdirAll creates a directory and all parent directories.
func (s *FS) MkdirAll(ctx context.Context, path string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.resolvePath(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

var _ Storage = (*FS)(nil)
