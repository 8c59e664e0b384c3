package storage

import (
	"fmt"

	"github.com/spf13/afero"
)

// StorageType represents the type of storage.
type StorageType string

const (
	// TypeFilesystem is backed by the operating system filesystem.
	TypeFilesystem StorageType = "filesystem"

	// TypeMemory is backed by an in-memory filesystem, used by tests and
	// dry runs.
	TypeMemory StorageType = "memory"
)

// NewStorage creates a storage adapter based on configuration.
func NewStorage(config *Config) (*FS, error) {
	if config == nil {
		config = &Config{Type: string(TypeFilesystem)}
	}

	switch StorageType(config.Type) {
	case TypeFilesystem, "":
		return NewFS(afero.NewOsFs(), config.BasePath), nil
	case TypeMemory:
		return NewFS(afero.NewMemMapFs(), config.BasePath), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}
}
