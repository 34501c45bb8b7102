// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Version-control client interface

package gitops

// Client is the version-control surface the pipeline drives. The branch
// resolver and the orchestrator depend on this interface so they can be
// tested against a fake.
type Client interface {
	// CloneOrPull clones url into dir, or fetches and pulls sourceBranch
	// when dir already holds a checkout
	CloneOrPull(url, dir, sourceBranch string) error

	// LocalBranchExists reports whether refs/heads/<name> exists
	LocalBranchExists(dir, name string) (bool, error)

	// RemoteBranchExists reports whether origin has <name>, as seen by the
	// remote-tracking refs populated by the last fetch
	RemoteBranchExists(dir, name string) (bool, error)

	// Checkout switches the worktree to an existing local branch
	Checkout(dir, name string) error

	// CheckoutTracking creates a local branch at origin/<name> and checks it out
	CheckoutTracking(dir, name string) error

	// CreateBranch creates a branch at the current HEAD and checks it out
	CreateBranch(dir, name string) error

	// DeleteBranch removes the local branch ref (must not be checked out)
	DeleteBranch(dir, name string) error

	// HardReset resets the current branch to origin/<sourceBranch>,
	// falling back to the local source branch when the remote ref is absent
	HardReset(dir, sourceBranch string) error

	// HasChanges reports whether the worktree has uncommitted changes
	HasChanges(dir string) (bool, error)

	// CommitAndPush stages everything, commits with message and pushes
	// branch to origin. A clean worktree commits nothing and is not an
	// error; the returned bool reports whether a commit was made.
	// force overwrites the remote branch (recreate strategy).
	CommitAndPush(dir, branch, message string, force bool) (bool, error)
}

// Options configures the go-git backed client.
type Options struct {
	Token       string // HTTPS access token, embedded into remote URLs
	Account     string // account for the credential segment (optional)
	AuthorName  string
	AuthorEmail string
}
