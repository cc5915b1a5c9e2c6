package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// FileAssertions checks file system state below a base directory, such as the
// layout of the repository cache. Paths are slash separated and relative to
// the base directory.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.baseDir, filepath.FromSlash(rel))
}

func (fa *FileAssertions) AssertFileExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.FileExists(fa.t, fa.path(rel))
	return fa
}

func (fa *FileAssertions) AssertDirExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.DirExists(fa.t, fa.path(rel))
	return fa
}

// AssertNotExists fails when anything, file or directory, exists at rel.
func (fa *FileAssertions) AssertNotExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.NoFileExists(fa.t, fa.path(rel))
	assert.NoDirExists(fa.t, fa.path(rel))
	return fa
}
