package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
)

const (
	maxResourceFiles = 10
	maxResourceSize  = 100_000
)

// resourceDirs are the conventional directories bundled alongside a SKILL.md.
var resourceDirs = []string{"scripts/", "references/", "assets/"}

var (
	repoURLRe = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)
	treeRefRe = regexp.MustCompile(`/tree/[^/]+/(.+)$`)
)

// PickRequiredError reports that the repository holds several markdown
// candidates and the caller must choose one.
type PickRequiredError struct {
	Files []string
}

func (e *PickRequiredError) Error() string {
	return fmt.Sprintf("multiple markdown candidates, pick one of %d files", len(e.Files))
}

// RepoCloner fetches a repository worktree. The production implementation
// shallow-clones with go-git into memory.
type RepoCloner interface {
	Clone(ctx context.Context, url string) (billy.Filesystem, error)
}

type gitCloner struct{}

func (gitCloner) Clone(ctx context.Context, url string) (billy.Filesystem, error) {
	fs := memfs.New()
	_, err := git.CloneContext(ctx, memory.NewStorage(), fs, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return nil, apperrors.Upstream(err, "clone %s", url)
	}
	return fs, nil
}

// Importer converts skills hosted on GitHub.
type Importer struct {
	cloner RepoCloner
	logger logger.Logger
}

// NewImporter builds an Importer backed by in-memory go-git clones.
func NewImporter(log logger.Logger) (*Importer, error) {
	return newImporter(gitCloner{}, log)
}

func newImporter(cloner RepoCloner, log logger.Logger) (*Importer, error) {
	if cloner == nil {
		return nil, fmt.Errorf("repo cloner is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Importer{cloner: cloner, logger: log}, nil
}

type repoRef struct {
	Owner   string
	Repo    string
	Subpath string
}

// CloneURL is the https URL the repository is fetched from.
func (r repoRef) CloneURL() string {
	return fmt.Sprintf("https://github.com/%s/%s.git", r.Owner, r.Repo)
}

func (r repoRef) String() string {
	return r.Owner + "/" + r.Repo
}

// parseRepoURL accepts github.com/owner/repo URLs, with or without scheme,
// .git suffix, or a /tree/<ref>/<path> tail naming a subdirectory.
func parseRepoURL(rawURL, subpath string) (repoRef, error) {
	match := repoURLRe.FindStringSubmatch(rawURL)
	if match == nil {
		return repoRef{}, apperrors.Validation("invalid GitHub URL, expected github.com/owner/repo")
	}
	ref := repoRef{
		Owner:   match[1],
		Repo:    strings.TrimSuffix(strings.SplitN(match[2], "?", 2)[0], ".git"),
		Subpath: strings.Trim(subpath, "/"),
	}
	if ref.Subpath == "" {
		if pathMatch := treeRefRe.FindStringSubmatch(rawURL); pathMatch != nil {
			ref.Subpath = strings.Trim(pathMatch[1], "/")
		}
	}
	return ref, nil
}

type repoFile struct {
	path string
	size int64
}

// Import clones the repository and converts the best markdown candidate:
// SKILL.md wins, then README.md, then a lone other .md file. Several equal
// candidates return a PickRequiredError carrying the choices.
func (i *Importer) Import(ctx context.Context, rawURL, subpath string) (*Result, error) {
	ref, err := parseRepoURL(rawURL, subpath)
	if err != nil {
		return nil, err
	}

	fs, err := i.cloner.Clone(ctx, ref.CloneURL())
	if err != nil {
		return nil, err
	}

	files, err := listFiles(fs)
	if err != nil {
		return nil, apperrors.Upstream(err, "read repository tree")
	}
	files = filterSubpath(files, ref.Subpath)

	target, others := pickSkillFile(files)
	if target == "" {
		if len(others) == 0 {
			return nil, apperrors.NotFound("no markdown files found in %s", ref)
		}
		if len(others) > 1 {
			return nil, &PickRequiredError{Files: others}
		}
		target = others[0]
	}

	return i.convertFile(fs, files, ref, target)
}

// Pick converts one specific file out of a repository that needed a choice.
func (i *Importer) Pick(ctx context.Context, rawURL, file string) (*Result, error) {
	if strings.TrimSpace(file) == "" {
		return nil, apperrors.Validation("file is required")
	}
	ref, err := parseRepoURL(rawURL, "")
	if err != nil {
		return nil, err
	}

	fs, err := i.cloner.Clone(ctx, ref.CloneURL())
	if err != nil {
		return nil, err
	}
	files, err := listFiles(fs)
	if err != nil {
		return nil, apperrors.Upstream(err, "read repository tree")
	}
	found := false
	for _, f := range files {
		if f.path == file {
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.NotFound("file %s not found in %s", file, ref)
	}

	return i.convertFile(fs, files, ref, file)
}

func (i *Importer) convertFile(fs billy.Filesystem, files []repoFile, ref repoRef, target string) (*Result, error) {
	content, err := util.ReadFile(fs, target)
	if err != nil {
		return nil, apperrors.Upstream(err, "read %s", target)
	}

	result := Convert(string(content), "github", ref.String())
	result.Resources = i.collectResources(fs, files, target)

	i.logger.Info("github skill imported",
		logger.StringField("repo", ref.String()),
		logger.StringField("file", target),
		logger.IntField("resources", len(result.Resources)),
	)
	return result, nil
}

// collectResources gathers small files from the conventional resource
// directories next to the skill file. Unreadable files are skipped.
func (i *Importer) collectResources(fs billy.Filesystem, files []repoFile, skillPath string) []store.Resource {
	skillDir := ""
	if idx := strings.LastIndex(skillPath, "/"); idx != -1 {
		skillDir = skillPath[:idx]
	}

	resources := make([]store.Resource, 0, maxResourceFiles)
	for _, f := range files {
		if len(resources) == maxResourceFiles {
			break
		}
		relative := f.path
		if skillDir != "" {
			if !strings.HasPrefix(f.path, skillDir+"/") {
				continue
			}
			relative = strings.TrimPrefix(f.path, skillDir+"/")
		}

		inResourceDir := false
		for _, dir := range resourceDirs {
			if strings.HasPrefix(relative, dir) {
				inResourceDir = true
				break
			}
		}
		if !inResourceDir || f.size == 0 || f.size >= maxResourceSize {
			continue
		}

		content, err := util.ReadFile(fs, f.path)
		if err != nil {
			i.logger.Warn("resource file skipped", logger.StringField("path", f.path), logger.ErrorField(err))
			continue
		}
		resources = append(resources, store.Resource{Path: relative, Content: string(content)})
	}
	return resources
}

func listFiles(fs billy.Filesystem) ([]repoFile, error) {
	var files []repoFile
	err := util.Walk(fs, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, repoFile{path: strings.TrimPrefix(path, "/"), size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(a, b int) bool { return files[a].path < files[b].path })
	return files, nil
}

func filterSubpath(files []repoFile, subpath string) []repoFile {
	if subpath == "" {
		return files
	}
	var filtered []repoFile
	for _, f := range files {
		if f.path == subpath || strings.HasPrefix(f.path, subpath+"/") {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// pickSkillFile returns the preferred file (SKILL.md, then README.md) and the
// list of other markdown files.
func pickSkillFile(files []repoFile) (target string, others []string) {
	var readme string
	for _, f := range files {
		base := strings.ToUpper(f.path)
		if idx := strings.LastIndex(base, "/"); idx != -1 {
			base = base[idx+1:]
		}
		switch {
		case base == "SKILL.MD":
			if target == "" {
				target = f.path
			}
		case base == "README.MD":
			if readme == "" {
				readme = f.path
			}
		case strings.HasSuffix(f.path, ".md"):
			others = append(others, f.path)
		}
	}
	if target == "" {
		target = readme
	}
	return target, others
}
