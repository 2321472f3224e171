package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/agentskills/marketplace/internal/storage"
)

// StorageConfig configures skill bundle storage.
type StorageConfig struct {
	// Backend is "local" or "s3".
	Backend string `env:"STORAGE_BACKEND" yaml:"backend" default:"local"`

	// BaseDir is the root directory for the local backend.
	BaseDir string `env:"STORAGE_BASE_DIR" yaml:"base_dir" default:"./data/bundles"`

	// Bucket and Prefix configure the s3 backend.
	Bucket string `env:"STORAGE_S3_BUCKET" yaml:"bucket"`
	Prefix string `env:"STORAGE_S3_PREFIX" yaml:"prefix"`
}

// Validate checks backend selection and its required settings.
func (s StorageConfig) Validate() error {
	var result error

	switch storage.BackendType(s.Backend) {
	case storage.BackendLocal:
		if s.BaseDir == "" {
			result = multierror.Append(result, fmt.Errorf("storage base_dir is required for the local backend"))
		}
	case storage.BackendS3:
		if s.Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("storage bucket is required for the s3 backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("storage backend must be 'local' or 's3', got %q", s.Backend))
	}

	return result
}

// ManagerConfig returns the storage package configuration for this section.
func (s StorageConfig) ManagerConfig() storage.Config {
	return storage.Config{
		Backend: storage.BackendType(s.Backend),
		BaseDir: s.BaseDir,
		Bucket:  s.Bucket,
		Prefix:  s.Prefix,
	}
}
