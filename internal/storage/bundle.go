package storage

import (
	"context"
	"fmt"
	"sort"
)

// Bundle collects generated files in memory. Nothing touches the
// filesystem until Commit.
type Bundle struct {
	files map[string][]byte
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{files: make(map[string][]byte)}
}

// Stage records content for path, replacing any earlier staged content.
func (b *Bundle) Stage(path string, content []byte) {
	b.files[path] = append([]byte(nil), content...)
}

// StageString is Stage for text content.
func (b *Bundle) StageString(path, content string) {
	b.files[path] = []byte(content)
}

// Get returns the staged content for path.
func (b *Bundle) Get(path string) ([]byte, bool) {
	c, ok := b.files[path]
	return c, ok
}

// Len returns the number of staged files.
func (b *Bundle) Len() int {
	return len(b.files)
}

// Paths returns staged paths in sorted order.
func (b *Bundle) Paths() []string {
	paths := make([]string, 0, len(b.files))
	for p := range b.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Commit writes every staged file in sorted path order.
func (b *Bundle) Commit(ctx context.Context, s Storage) error {
	for _, p := range b.Paths() {
		if err := s.Write(ctx, p, b.files[p]); err != nil {
			return fmt.Errorf("commit %s: %w", p, err)
		}
	}
	return nil
}
