package gitver

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Querier is the read-only query surface the pipeline needs from a
// version-control working tree. Implementations report query failures
// as errors and leave it to the calling step to decide whether a
// failure is fatal.
type Querier interface {
	// CurrentHash resolves the full commit id of HEAD.
	CurrentHash() (string, error)

	// NearestTag returns the most recent tag matching the glob
	// pattern that is reachable from beforeRef.
	NearestTag(pattern, beforeRef string) (string, error)

	// CommitOf resolves the commit id a ref points to.
	CommitOf(ref string) (string, error)

	// CommitCount counts commits on the ancestry path strictly
	// between from and to.
	CommitCount(from, to string) (int, error)

	// BranchesContaining lists local branches containing the commit.
	BranchesContaining(hash string) ([]string, error)

	// CurrentBranch returns the abbreviated name of the current ref,
	// "HEAD" when detached.
	CurrentBranch() (string, error)
}

// GitCLI answers repository queries by running the git binary against
// a working tree.
type GitCLI struct {
	// WorkTree is the repository path queried. Empty means the
	// process working directory.
	WorkTree string
}

var _ Querier = (*GitCLI)(nil)

func (g *GitCLI) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if g.WorkTree != "" {
		cmd.Dir = g.WorkTree
	}

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return strings.TrimSpace(string(out)), nil
}

func (g *GitCLI) CurrentHash() (string, error) {
	return g.run("rev-parse", "HEAD")
}

func (g *GitCLI) NearestTag(pattern, beforeRef string) (string, error) {
	args := []string{"describe", "--tags", "--abbrev=0"}
	if pattern != "" {
		args = append(args, "--match="+pattern)
	}
	args = append(args, beforeRef)
	return g.run(args...)
}

func (g *GitCLI) CommitOf(ref string) (string, error) {
	return g.run("rev-list", "-n", "1", ref)
}

func (g *GitCLI) CommitCount(from, to string) (int, error) {
	out, err := g.run("rev-list", "--ancestry-path", from+".."+to, "--count")
	if err != nil {
		return 0, err
	}

	count, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parsing commit count %q: %w", out, err)
	}
	return count, nil
}

func (g *GitCLI) BranchesContaining(hash string) ([]string, error) {
	out, err := g.run("branch", "--contains", hash)
	if err != nil {
		return nil, err
	}

	var branches []string
	for _, line := range strings.Split(out, "\n") {
		// "git branch" marks the current position with "*".
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if name != "" {
			branches = append(branches, name)
		}
	}
	return branches, nil
}

func (g *GitCLI) CurrentBranch() (string, error) {
	return g.run("rev-parse", "--abbrev-ref", "HEAD")
}
