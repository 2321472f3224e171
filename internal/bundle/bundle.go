// Package bundle builds and extracts skill bundles: ZIP archives carrying a
// SKILL.md plus any auxiliary resource files.
package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store"
)

// SkillFileName is the canonical skill document name inside a bundle.
const SkillFileName = "SKILL.md"

// maxExtractedFileSize caps a single extracted file to keep hostile bundles
// from filling the disk.
const maxExtractedFileSize = 10 << 20

// Build produces a ZIP archive with SKILL.md at the root and each resource
// at its relative path. Resource paths that are absolute or escape the
// bundle root are rejected.
func Build(skillMd string, resources []store.Resource) ([]byte, error) {
	if strings.TrimSpace(skillMd) == "" {
		return nil, apperrors.Validation("bundle requires SKILL.md content")
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	entry, err := w.Create(SkillFileName)
	if err != nil {
		return nil, fmt.Errorf("create %s entry: %w", SkillFileName, err)
	}
	if _, err := entry.Write([]byte(skillMd)); err != nil {
		return nil, fmt.Errorf("write %s: %w", SkillFileName, err)
	}

	seen := map[string]bool{SkillFileName: true}
	for _, res := range resources {
		cleaned, err := cleanBundlePath(res.Path)
		if err != nil {
			return nil, err
		}
		if seen[cleaned] {
			return nil, apperrors.Validation("duplicate resource path %q", res.Path)
		}
		seen[cleaned] = true

		entry, err := w.Create(cleaned)
		if err != nil {
			return nil, fmt.Errorf("create resource entry %s: %w", cleaned, err)
		}
		if _, err := entry.Write([]byte(res.Content)); err != nil {
			return nil, fmt.Errorf("write resource %s: %w", cleaned, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadSkillMd returns the SKILL.md content of a bundle.
func ReadSkillMd(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.Validation("not a valid bundle archive")
	}
	for _, f := range r.File {
		if f.Name != SkillFileName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", SkillFileName, err)
		}
		defer func() { _ = rc.Close() }()

		content, err := io.ReadAll(io.LimitReader(rc, maxExtractedFileSize))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", SkillFileName, err)
		}
		return string(content), nil
	}
	return "", apperrors.Validation("bundle has no %s", SkillFileName)
}

// Extract unpacks a bundle into destDir and returns the written paths,
// relative to destDir. Entries that would land outside destDir are rejected
// before anything is written for them.
func Extract(data []byte, destDir string) ([]string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperrors.Validation("not a valid bundle archive")
	}

	var written []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		cleaned, err := cleanBundlePath(f.Name)
		if err != nil {
			return nil, err
		}

		target := filepath.Join(destDir, filepath.FromSlash(cleaned))
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", cleaned, err)
		}

		if err := extractFile(f, target); err != nil {
			return nil, err
		}
		written = append(written, cleaned)
	}
	return written, nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // G304: target derives from a validated relative path
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, io.LimitReader(rc, maxExtractedFileSize)); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}

// cleanBundlePath normalizes a bundle-relative path and rejects anything that
// is absolute or traverses outside the bundle root.
func cleanBundlePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", apperrors.Validation("resource path is empty")
	}
	slashed := filepath.ToSlash(p)
	if strings.HasPrefix(slashed, "/") || strings.Contains(slashed, "\\") {
		return "", apperrors.Validation("resource path %q must be relative", p)
	}
	cleaned := filepath.ToSlash(filepath.Clean(slashed))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || cleaned == "." {
		return "", apperrors.Validation("resource path %q escapes the bundle root", p)
	}
	return cleaned, nil
}
