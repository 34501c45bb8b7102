// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// go-git backed version-control client

package gitops

import (
	"errors"
	"fmt"
	"os"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const originRemote = "origin"

// GitClient implements Client on top of go-git.
type GitClient struct {
	opts Options
}

// NewGitClient creates a go-git backed client
func NewGitClient(opts Options) *GitClient {
	return &GitClient{opts: opts}
}

// CloneOrPull clones url into dir, or updates an existing checkout
func (c *GitClient) CloneOrPull(url, dir, sourceBranch string) error {
	if _, err := os.Stat(dir); err == nil {
		return c.pullExisting(dir, sourceBranch)
	}
	return c.cloneNew(url, dir, sourceBranch)
}

func (c *GitClient) cloneNew(url, dir, sourceBranch string) error {
	cloneURL := InjectToken(url, c.opts.Account, c.opts.Token)

	_, err := git.PlainClone(dir, false, &git.CloneOptions{URL: cloneURL})
	if err != nil {
		// Clean up partial clone on failure
		_ = os.RemoveAll(dir)
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}

	if sourceBranch != "" {
		if err := c.checkoutLocalOrTracking(dir, sourceBranch); err != nil {
			return err
		}
	}
	return nil
}

func (c *GitClient) pullExisting(dir, sourceBranch string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository %s: %w", dir, err)
	}

	if err := repo.Fetch(&git.FetchOptions{RemoteName: originRemote}); err != nil &&
		!errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch origin: %w", err)
	}

	if sourceBranch == "" {
		return nil
	}

	if err := c.checkoutLocalOrTracking(dir, sourceBranch); err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	err = worktree.Pull(&git.PullOptions{
		RemoteName:    originRemote,
		ReferenceName: plumbing.NewBranchReferenceName(sourceBranch),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %s: %w", sourceBranch, err)
	}
	return nil
}

// checkoutLocalOrTracking checks out a local branch, creating it from the
// remote-tracking ref when it only exists on origin
func (c *GitClient) checkoutLocalOrTracking(dir, name string) error {
	exists, err := c.LocalBranchExists(dir, name)
	if err != nil {
		return err
	}
	if exists {
		return c.Checkout(dir, name)
	}
	return c.CheckoutTracking(dir, name)
}

// LocalBranchExists reports whether refs/heads/<name> exists
func (c *GitClient) LocalBranchExists(dir, name string) (bool, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}
	return refExists(repo, plumbing.NewBranchReferenceName(name))
}

// RemoteBranchExists reports whether refs/remotes/origin/<name> exists
func (c *GitClient) RemoteBranchExists(dir, name string) (bool, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}
	return refExists(repo, plumbing.NewRemoteReferenceName(originRemote, name))
}

func refExists(repo *git.Repository, ref plumbing.ReferenceName) (bool, error) {
	_, err := repo.Reference(ref, true)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to resolve %s: %w", ref, err)
}

// Checkout switches to an existing local branch
func (c *GitClient) Checkout(dir, name string) error {
	worktree, err := openWorktree(dir)
	if err != nil {
		return err
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	})
	if err != nil {
		return fmt.Errorf("failed to checkout %s: %w", name, err)
	}
	return nil
}

// CheckoutTracking creates a local branch at origin/<name> and checks it out
func (c *GitClient) CheckoutTracking(dir, name string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository %s: %w", dir, err)
	}
	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(originRemote, name), true)
	if err != nil {
		return fmt.Errorf("failed to resolve origin/%s: %w", name, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Hash:   remoteRef.Hash(),
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("failed to checkout origin/%s: %w", name, err)
	}
	return nil
}

// CreateBranch creates a branch at the current HEAD and checks it out
func (c *GitClient) CreateBranch(dir, name string) error {
	worktree, err := openWorktree(dir)
	if err != nil {
		return err
	}
	err = worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	return nil
}

// DeleteBranch removes the local branch ref
func (c *GitClient) DeleteBranch(dir, name string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository %s: %w", dir, err)
	}
	if err := repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	return nil
}

// HardReset resets the current branch to the source branch tip
func (c *GitClient) HardReset(dir, sourceBranch string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository %s: %w", dir, err)
	}

	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(originRemote, sourceBranch), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		ref, err = repo.Reference(plumbing.NewBranchReferenceName(sourceBranch), true)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve source branch %s: %w", sourceBranch, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	err = worktree.Reset(&git.ResetOptions{Mode: git.HardReset, Commit: ref.Hash()})
	if err != nil {
		return fmt.Errorf("failed to hard-reset to %s: %w", sourceBranch, err)
	}
	return nil
}

// HasChanges reports whether the worktree has uncommitted changes
func (c *GitClient) HasChanges(dir string) (bool, error) {
	worktree, err := openWorktree(dir)
	if err != nil {
		return false, err
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to read worktree status: %w", err)
	}
	return !status.IsClean(), nil
}

// CommitAndPush stages everything, commits and pushes the branch
func (c *GitClient) CommitAndPush(dir, branch, message string, force bool) (bool, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to open worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to read worktree status: %w", err)
	}
	if status.IsClean() {
		return false, nil
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("failed to stage changes: %w", err)
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.opts.AuthorName,
			Email: c.opts.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}

	if err := c.ensureAuthRemote(repo); err != nil {
		return true, err
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err = repo.Push(&git.PushOptions{
		RemoteName: originRemote,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Force:      force,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return true, fmt.Errorf("failed to push %s: %w", branch, err)
	}
	return true, nil
}

// ensureAuthRemote rewrites the origin URL to carry the configured token
// before pushing, matching the credential handling used on clone
func (c *GitClient) ensureAuthRemote(repo *git.Repository) error {
	if c.opts.Token == "" {
		return nil
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read repository config: %w", err)
	}
	remote, ok := cfg.Remotes[originRemote]
	if !ok || len(remote.URLs) == 0 {
		return nil
	}

	withToken := InjectToken(remote.URLs[0], c.opts.Account, c.opts.Token)
	if withToken == remote.URLs[0] {
		return nil
	}
	remote.URLs[0] = withToken
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to update origin URL: %w", err)
	}
	return nil
}

func openWorktree(dir string) (*git.Worktree, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	return worktree, nil
}
