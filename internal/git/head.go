package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	// BranchDetached is reported when HEAD points at a commit instead of a branch.
	BranchDetached = "detached"
	// BranchNoGit is reported when the directory is not inside a repository.
	BranchNoGit = "no-git"
)

// CurrentBranch returns the short branch name HEAD points at for the repository
// containing dir. Unborn branches still report their name.
func CurrentBranch(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return BranchNoGit
	}
	ref, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return BranchNoGit
	}
	if ref.Type() != plumbing.SymbolicReference {
		return BranchDetached
	}
	target := ref.Target()
	if !target.IsBranch() {
		return BranchDetached
	}
	return target.Short()
}

// HeadCommit returns the commit hash HEAD resolves to for the repository
// containing dir.
func HeadCommit(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("unborn branch: %w", err)
		}
		return "", err
	}
	return head.Hash().String(), nil
}
