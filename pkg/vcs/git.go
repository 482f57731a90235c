package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// GitDetector implements ChangeDetector by shelling out to the git binary
// already on PATH, the same way the rest of this codebase's ambient
// tooling shells out to external runtimes rather than linking a native
// git library.
type GitDetector struct {
	repoRoot string
	timeout  time.Duration
}

// NewGitDetector returns a detector rooted at repoRoot. timeout bounds
// each git invocation; a zero timeout defaults to 10 seconds.
func NewGitDetector(repoRoot string, timeout time.Duration) *GitDetector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GitDetector{repoRoot: repoRoot, timeout: timeout}
}

// IsRepo reports whether repoRoot is inside a git working tree, without
// returning an error for the common "not a repo" case.
func (g *GitDetector) IsRepo() bool {
	_, err := g.run("rev-parse", "--is-inside-work-tree")
	return err == nil
}

func (g *GitDetector) run(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CurrentRef returns the current HEAD commit hash.
func (g *GitDetector) CurrentRef() (string, error) {
	return g.run("rev-parse", "HEAD")
}

// Changes returns the files that differ between fromRef and the working
// tree (including uncommitted changes), classified by git's own status
// letters. An empty fromRef compares against HEAD; in a repository with
// no commits yet, only untracked files are reported.
func (g *GitDetector) Changes(fromRef string) ([]Change, error) {
	ref := fromRef
	if ref == "" {
		ref = "HEAD"
	}

	// A repository with no commits has no HEAD to diff against; all of
	// its files are untracked and reported by ls-files below.
	var out string
	_, headErr := g.run("rev-parse", "--verify", "HEAD")
	if fromRef != "" || headErr == nil {
		var err error
		out, err = g.run("diff", "--name-status", "--find-renames", ref)
		if err != nil {
			return nil, err
		}
	}

	untracked, err := g.run("ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}

	var changes []Change
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		switch {
		case fields[0] == "A":
			changes = append(changes, Change{Path: fields[1], Status: StatusAdded})
		case fields[0] == "M":
			changes = append(changes, Change{Path: fields[1], Status: StatusModified})
		case fields[0] == "D":
			changes = append(changes, Change{Path: fields[1], Status: StatusDeleted})
		case strings.HasPrefix(fields[0], "R") && len(fields) >= 3:
			changes = append(changes, Change{Path: fields[2], OldPath: fields[1], Status: StatusRenamed})
		}
	}
	for _, line := range strings.Split(untracked, "\n") {
		if line == "" {
			continue
		}
		changes = append(changes, Change{Path: line, Status: StatusUntracked})
	}
	return changes, nil
}
