package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, body string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	hash := commitFile(t, repo, dir, "site.yaml", "title: x\n")

	sub := filepath.Join(dir, "content")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	p, err := Describe(sub)
	require.NoError(t, err)
	assert.Equal(t, hash, p.Commit)
	assert.Equal(t, hash[:12], p.ShortCommit())
	assert.Equal(t, "master", p.Branch)
	assert.False(t, p.Dirty)
	assert.Equal(t, 2024, p.CommitTime.Year())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.yaml"), []byte("title: y\n"), 0o644))
	p, err = Describe(dir)
	require.NoError(t, err)
	assert.True(t, p.Dirty)
}

func TestDescribeOutsideRepository(t *testing.T) {
	_, err := Describe(t.TempDir())
	require.ErrorIs(t, err, ErrNotRepository)
}

func TestDescribeWithoutCommits(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	_, err = Describe(dir)
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryGit, ferrors.GetCategory(err))
	assert.Equal(t, ferrors.SeverityWarning, ferrors.GetSeverity(err))
	assert.Contains(t, err.Error(), "git head failed")
}
