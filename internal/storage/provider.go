// Package storage holds the published skill bundles. It abstracts the
// backing store behind a FileProvider so the publisher and download handlers
// work the same against a local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileProvider is the storage operation set the marketplace needs for
// bundles: whole-file reads and writes keyed by relative path.
type FileProvider interface {
	// Read returns the entire content of a file.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores data under path, creating or replacing it.
	Write(ctx context.Context, path string, data []byte) error

	// Exists reports whether a file exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error

	// List returns the relative paths of files under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// LocalFileProvider stores bundles on the local filesystem under a base
// directory.
type LocalFileProvider struct {
	baseDir string
}

// NewLocalFileProvider creates a filesystem-backed provider rooted at baseDir.
func NewLocalFileProvider(baseDir string) *LocalFileProvider {
	return &LocalFileProvider{baseDir: baseDir}
}

func (p *LocalFileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(p.baseDir, path)) //nolint:gosec // G304: path is joined onto the trusted baseDir
}

func (p *LocalFileProvider) Write(ctx context.Context, path string, data []byte) error {
	fullPath := filepath.Join(p.baseDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(fullPath), err)
	}
	return os.WriteFile(fullPath, data, 0o600)
}

func (p *LocalFileProvider) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(p.baseDir, path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (p *LocalFileProvider) Delete(ctx context.Context, path string) error {
	err := os.Remove(filepath.Join(p.baseDir, path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (p *LocalFileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	searchPath := filepath.Join(p.baseDir, prefix)

	var result []string
	err := filepath.Walk(searchPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(p.baseDir, path)
			if err == nil {
				result = append(result, rel)
			}
		}
		return nil
	})
	if err != nil && os.IsNotExist(err) {
		return []string{}, nil
	}
	return result, err
}

// S3FileProvider stores bundles in an S3 bucket under an optional key prefix.
type S3FileProvider struct {
	bucket   string
	prefix   string
	s3Client S3Client
}

// NewS3FileProvider creates an S3-backed provider.
func NewS3FileProvider(bucket, prefix string, s3Client S3Client) *S3FileProvider {
	return &S3FileProvider{bucket: bucket, prefix: prefix, s3Client: s3Client}
}

func (p *S3FileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return p.s3Client.GetObject(ctx, p.bucket, p.getKey(path))
}

func (p *S3FileProvider) Write(ctx context.Context, path string, data []byte) error {
	return p.s3Client.PutObject(ctx, p.bucket, p.getKey(path), data)
}

// Exists returns (false, nil) only for a definitive "not found"; transport
// and permission errors propagate.
func (p *S3FileProvider) Exists(ctx context.Context, path string) (bool, error) {
	err := p.s3Client.HeadObject(ctx, p.bucket, p.getKey(path))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *S3FileProvider) Delete(ctx context.Context, path string) error {
	return p.s3Client.DeleteObject(ctx, p.bucket, p.getKey(path))
}

func (p *S3FileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.s3Client.ListObjects(ctx, p.bucket, p.getKey(prefix))
	if err != nil {
		return nil, err
	}

	var result []string
	prefixLen := len(p.getKey(""))
	for _, key := range keys {
		if len(key) > prefixLen {
			result = append(result, key[prefixLen:])
		}
	}
	return result, nil
}

func (p *S3FileProvider) getKey(path string) string {
	if p.prefix == "" {
		return path
	}
	return p.prefix + "/" + path
}

// PrefixedFileProvider scopes another provider to a namespace so several
// components can share one backend without colliding.
type PrefixedFileProvider struct {
	provider FileProvider
	prefix   string
}

// NewPrefixedFileProvider wraps provider with a path prefix.
func NewPrefixedFileProvider(provider FileProvider, prefix string) *PrefixedFileProvider {
	return &PrefixedFileProvider{provider: provider, prefix: prefix}
}

func (p *PrefixedFileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return p.provider.Read(ctx, p.prefixPath(path))
}

func (p *PrefixedFileProvider) Write(ctx context.Context, path string, data []byte) error {
	return p.provider.Write(ctx, p.prefixPath(path), data)
}

func (p *PrefixedFileProvider) Exists(ctx context.Context, path string) (bool, error) {
	return p.provider.Exists(ctx, p.prefixPath(path))
}

func (p *PrefixedFileProvider) Delete(ctx context.Context, path string) error {
	return p.provider.Delete(ctx, p.prefixPath(path))
}

func (p *PrefixedFileProvider) List(ctx context.Context, prefix string) ([]string, error) {
	files, err := p.provider.List(ctx, p.prefixPath(prefix))
	if err != nil {
		return nil, err
	}

	var result []string
	prefixLen := len(p.prefixPath(""))
	for _, file := range files {
		if len(file) >= prefixLen {
			result = append(result, file[prefixLen:])
		}
	}
	return result, nil
}

func (p *PrefixedFileProvider) prefixPath(path string) string {
	if p.prefix == "" {
		return path
	}
	return p.prefix + "/" + path
}
