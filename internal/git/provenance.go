package git

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Provenance describes the source revision a build was produced from.
type Provenance struct {
	Commit     string
	Branch     string
	Dirty      bool
	CommitTime time.Time
}

// ShortCommit returns the abbreviated commit hash.
func (p Provenance) ShortCommit() string {
	if len(p.Commit) > 12 {
		return p.Commit[:12]
	}
	return p.Commit
}

// ErrNotRepository is returned when dir is not inside a git work tree.
var ErrNotRepository = git.ErrRepositoryNotExists

// Describe inspects the repository containing dir. Parent directories are searched
// for the .git directory.
func Describe(dir string) (Provenance, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Provenance{}, ErrNotRepository
		}
		return Provenance{}, classify(err, "open", dir)
	}

	head, err := repo.Head()
	if err != nil {
		return Provenance{}, classify(err, "head", dir)
	}
	p := Provenance{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		p.Branch = head.Name().Short()
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return Provenance{}, classify(err, "commit", dir)
	}
	p.CommitTime = commit.Committer.When.UTC()

	wt, err := repo.Worktree()
	if err != nil {
		return Provenance{}, classify(err, "worktree", dir)
	}
	status, err := wt.Status()
	if err != nil {
		return Provenance{}, classify(err, "status", dir)
	}
	p.Dirty = !status.IsClean()
	return p, nil
}

func classify(err error, op, dir string) error {
	return ferrors.GitError(fmt.Sprintf("git %s failed", op)).
		WithCause(err).
		WithContext("op", op).
		WithContext("dir", dir).
		Build()
}
