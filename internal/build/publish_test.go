package build

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func TestPromoteFirstPublish(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "public")
	staging, err := beginStaging(out, "b1")
	require.NoError(t, err)
	writeFile(t, staging, "index.html", "new")

	require.NoError(t, promote(staging, out, false))
	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.NoDirExists(t, staging)
	assert.NoDirExists(t, backupDir(out))
}

func TestPromoteReplacesAndKeepsBackup(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "public")
	writeFile(t, out, "index.html", "old")
	writeFile(t, out, "gone.html", "old")

	staging, err := beginStaging(out, "b2")
	require.NoError(t, err)
	writeFile(t, staging, "index.html", "new")

	require.NoError(t, promote(staging, out, true))
	assert.NoFileExists(t, filepath.Join(out, "gone.html"), "stale files do not survive a publish")
	prev, err := os.ReadFile(filepath.Join(backupDir(out), "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(prev))
}

func TestAbortStagingRemovesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")
	staging, err := beginStaging(out, "b3")
	require.NoError(t, err)
	writeFile(t, staging, "partial.html", "x")

	abortStaging(staging)
	assert.NoDirExists(t, staging)
}

func TestCopyTree(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "static")
	writeFile(t, src, "robots.txt", "User-agent: *")
	writeFile(t, src, "fonts/a.woff2", "font")
	dst := filepath.Join(root, "dst")
	require.NoError(t, os.MkdirAll(dst, 0o755))

	n, err := copyTree(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dst, "fonts", "a.woff2"))

	n, err = copyTree(filepath.Join(root, "missing"), dst)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublishErrorClassification(t *testing.T) {
	err := &PublishError{Op: "promote", Dir: "/x", Err: os.ErrPermission}
	assert.True(t, errors.Is(err, ErrPublish))
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Equal(t, ferrors.CategoryFileSystem, ferrors.GetCategory(err))
}
