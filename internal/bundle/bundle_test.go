package bundle

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentskills/marketplace/internal/apperrors"
	"github.com/agentskills/marketplace/internal/store"
)

const testSkillMd = "---\nname: test-skill\ndescription: \"A test skill\"\n---\n\n# Test Skill\n"

func TestBuildAndReadSkillMd(t *testing.T) {
	data, err := Build(testSkillMd, []store.Resource{
		{Path: "reference/styleguide.md", Content: "# Style"},
		{Path: "examples/example.py", Content: "print('hi')"},
	})
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"SKILL.md", "reference/styleguide.md", "examples/example.py"}, names)

	content, err := ReadSkillMd(data)
	require.NoError(t, err)
	assert.Equal(t, testSkillMd, content)
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name      string
		skillMd   string
		resources []store.Resource
	}{
		{name: "empty skill md", skillMd: "   "},
		{
			name:      "absolute resource path",
			skillMd:   testSkillMd,
			resources: []store.Resource{{Path: "/etc/passwd", Content: "x"}},
		},
		{
			name:      "traversal resource path",
			skillMd:   testSkillMd,
			resources: []store.Resource{{Path: "../outside.md", Content: "x"}},
		},
		{
			name:      "empty resource path",
			skillMd:   testSkillMd,
			resources: []store.Resource{{Path: "", Content: "x"}},
		},
		{
			name:    "duplicate resource path",
			skillMd: testSkillMd,
			resources: []store.Resource{
				{Path: "a.md", Content: "x"},
				{Path: "./a.md", Content: "y"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.skillMd, tt.resources)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
}

func TestExtract(t *testing.T) {
	data, err := Build(testSkillMd, []store.Resource{
		{Path: "reference/styleguide.md", Content: "# Style"},
	})
	require.NoError(t, err)

	dir := t.TempDir()
	written, err := Extract(data, dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"SKILL.md", "reference/styleguide.md"}, written)

	content, err := os.ReadFile(filepath.Join(dir, "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, testSkillMd, string(content))
}

func TestExtractRejectsTraversal(t *testing.T) {
	// Hand-build an archive with an escaping entry.
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	entry, err := w.Create("../evil.sh")
	require.NoError(t, err)
	_, err = entry.Write([]byte("rm -rf /"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dir := t.TempDir()
	_, err = Extract(buf.Bytes(), dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "evil.sh"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := Extract([]byte("not a zip"), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestReadSkillMdMissing(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	entry, err := w.Create("README.md")
	require.NoError(t, err)
	_, err = entry.Write([]byte("readme"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = ReadSkillMd(buf.Bytes())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
