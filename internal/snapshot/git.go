package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// GitDestination commits exports to a file of a local clone and pushes them.
type GitDestination struct {
	repo    string // path to the local clone
	file    string // file path within the repo
	branch  string // branch to commit and push to
	message string
	output  io.Writer
}

// NewGitDestination creates a git destination. repo is the path to an
// existing local clone.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{
		repo:    repo,
		file:    file,
		branch:  branch,
		message: "snapshot: update admin export",
		output:  os.Stderr,
	}
}

// Write writes data to the configured file, then commits and pushes when
// the content changed.
func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	if err := d.git(ctx, "checkout", d.branch); err != nil {
		return fmt.Errorf("git checkout: %w", err)
	}

	// The remote might not have the branch yet.
	_ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	if err := NewFileDestination(filepath.Join(d.repo, d.file)).Write(ctx, data); err != nil {
		return err
	}

	if err := d.git(ctx, "add", d.file); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if err := d.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		return nil
	}
	if err := d.git(ctx, "commit", "-m", d.message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	if err := d.git(ctx, "push", "origin", d.branch); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}

func (d *GitDestination) String() string {
	return "git:" + d.repo + "#" + d.branch + ":" + d.file
}

func (d *GitDestination) git(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	cmd.Stdout = d.output
	cmd.Stderr = d.output
	return cmd.Run()
}
