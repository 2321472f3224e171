package storage

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BackendType selects the bundle storage backend.
type BackendType string

const (
	// BackendLocal stores bundles on the local filesystem.
	BackendLocal BackendType = "local"
	// BackendS3 stores bundles in an S3 bucket.
	BackendS3 BackendType = "s3"
)

// BundleNamespace is the namespace published skill bundles live under.
const BundleNamespace = "bundles"

// Config configures bundle storage.
type Config struct {
	Backend BackendType

	// BaseDir is the root directory for the local backend.
	BaseDir string

	// Bucket and Prefix configure the S3 backend. Client may be preset for
	// tests; when nil one is built from the ambient AWS configuration.
	Bucket string
	Prefix string
	Client *s3.Client
}

// Manager owns the root provider and hands out namespace-scoped providers.
type Manager struct {
	backend  BackendType
	provider FileProvider
}

// New builds a Manager for the configured backend.
func New(ctx context.Context, cfg Config) (*Manager, error) {
	var provider FileProvider

	switch cfg.Backend {
	case BackendLocal:
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base directory is required for local backend")
		}
		provider = NewLocalFileProvider(cfg.BaseDir)

	case BackendS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("bucket is required for s3 backend")
		}
		client := cfg.Client
		if client == nil {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("load aws config: %w", err)
			}
			client = s3.NewFromConfig(awsCfg)
		}
		provider = NewS3FileProvider(cfg.Bucket, cfg.Prefix, NewAWSS3Client(client))

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}

	return &Manager{backend: cfg.Backend, provider: provider}, nil
}

// NewWithProvider builds a Manager around an existing provider.
func NewWithProvider(provider FileProvider) *Manager {
	return &Manager{provider: provider}
}

// Bundles returns the provider scoped to the published-bundle namespace.
func (m *Manager) Bundles() FileProvider {
	return NewPrefixedFileProvider(m.provider, BundleNamespace)
}

// Backend returns the configured backend type.
func (m *Manager) Backend() BackendType {
	return m.backend
}
