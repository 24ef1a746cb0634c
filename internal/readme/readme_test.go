package readme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReadme = `# Hi there

![Overview](generated/overview.svg#gh-dark-mode-only)

[![Build](https://img.shields.io/badge/build-passing-green)](https://ci.example.com)

<a href="https://github.com/octocat"><img src="https://raw.githubusercontent.com/octocat/octocat/main/generated/languages.svg?v=2" alt="Languages"></a>
`

func TestExtractImages(t *testing.T) {
	t.Parallel()

	images := ExtractImages([]byte(sampleReadme))
	require.Len(t, images, 3)

	assert.Equal(t, "Overview", images[0].AltText)
	assert.Equal(t, "generated/overview.svg#gh-dark-mode-only", images[0].Destination)
	assert.Equal(t, "Build", images[1].AltText)
	assert.Equal(t, "Languages", images[2].AltText)
}

func TestCheck(t *testing.T) {
	t.Parallel()

	refs := Check([]byte(sampleReadme), []string{
		"generated/overview.svg",
		"generated/languages.svg",
		"generated/streak.svg",
	})
	require.Len(t, refs, 3)

	assert.True(t, refs[0].Found)
	assert.True(t, refs[1].Found)
	assert.False(t, refs[2].Found)
	assert.Empty(t, refs[2].Images)
}

func TestCheck_DifferentDirectoryDoesNotMatch(t *testing.T) {
	t.Parallel()

	refs := Check([]byte("![x](other/overview.svg)"), []string{"generated/overview.svg"})
	require.Len(t, refs, 1)
	assert.False(t, refs[0].Found)
}

func TestCheckFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleReadme), 0o600))

	refs, err := CheckFile(path, []string{"./generated/overview.svg"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Found)

	_, err = CheckFile(filepath.Join(t.TempDir(), "missing.md"), nil)
	require.Error(t, err)
}
