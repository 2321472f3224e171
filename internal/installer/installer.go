// Package installer downloads published skill bundles from the marketplace
// API and places them into an agent's skills directory.
package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/bundle"
	"github.com/agentskills/marketplace/internal/converter"
	"github.com/agentskills/marketplace/pkg/logger"
)

const (
	defaultTimeout = 30 * time.Second

	// maxBundleSize caps a downloaded archive.
	maxBundleSize = 50 << 20
)

// Installer fetches skill bundles over the marketplace HTTP API and extracts
// them locally.
type Installer struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// Config configures an Installer. Client is optional.
type Config struct {
	BaseURL string
	Client  *http.Client
	Logger  logger.Logger
}

// New builds an Installer.
func New(cfg Config) (*Installer, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Installer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		logger:  cfg.Logger,
	}, nil
}

// Result describes a completed install.
type Result struct {
	SkillID  string
	SkillDir string
	Files    []string
}

// Install downloads the skill's bundle and extracts it under destDir, in a
// directory named after the skill. Archive entries that would escape the
// skill directory abort the install.
func (i *Installer) Install(ctx context.Context, skillID, destDir string) (*Result, error) {
	if strings.TrimSpace(skillID) == "" {
		return nil, apperrors.Validation("skill id is required")
	}
	if strings.TrimSpace(destDir) == "" {
		return nil, apperrors.Validation("target directory is required")
	}

	data, err := i.download(ctx, skillID)
	if err != nil {
		return nil, err
	}

	skillMd, err := bundle.ReadSkillMd(data)
	if err != nil {
		return nil, apperrors.Validation("bundle has no SKILL.md: %v", err)
	}

	skillDir := filepath.Join(destDir, dirNameFor(skillID, skillMd))
	files, err := bundle.Extract(data, skillDir)
	if err != nil {
		return nil, err
	}

	i.logger.Info("skill installed",
		logger.SkillIDField(skillID),
		logger.StringField("dir", skillDir),
		logger.IntField("files", len(files)),
	)
	return &Result{SkillID: skillID, SkillDir: skillDir, Files: files}, nil
}

// List returns the skill directories under dir, identified by the presence of
// a SKILL.md.
func (i *Installer) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read skills directory: %w", err)
	}

	var skills []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, entry.Name(), bundle.SkillFileName)); err == nil {
			skills = append(skills, entry.Name())
		}
	}
	return skills, nil
}

func (i *Installer) download(ctx context.Context, skillID string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/skills/%s/download", i.baseURL, skillID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, apperrors.Upstream(err, "download skill %s", skillID)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFound("skill %s not found", skillID)
	case resp.StatusCode != http.StatusOK:
		return nil, apperrors.Upstream(fmt.Errorf("status %d", resp.StatusCode), "download skill %s", skillID)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleSize))
	if err != nil {
		return nil, apperrors.Upstream(err, "read bundle for skill %s", skillID)
	}
	return data, nil
}

// dirNameFor prefers the frontmatter name and falls back to the skill id.
func dirNameFor(skillID, skillMd string) string {
	for _, line := range strings.Split(skillMd, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "name:") {
			if name := converter.SanitizeName(strings.TrimSpace(strings.TrimPrefix(line, "name:"))); name != "" {
				return name
			}
		}
	}
	return converter.SanitizeName(skillID)
}
