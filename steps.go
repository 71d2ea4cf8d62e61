package gitver

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/blang/semver"
)

// Step transforms the version record. Steps run in a fixed order and
// each depends on fields set by earlier steps; the first error aborts
// the pipeline.
type Step func(ctx *Context, ver Version) (Version, error)

// githubHeadRef is set by GitHub Actions on pull request builds and
// takes precedence over local branch detection.
const githubHeadRef = "GITHUB_HEAD_REF"

// nugetMaxLength is the NuGet limit on prerelease version strings.
// https://github.com/NuGet/Home/issues/1459
const nugetMaxLength = 20

var branchSanitizeRx = regexp.MustCompile(`[^a-zA-Z0-9]`)

var (
	errNoHash    = errors.New("No hash found.")
	errNoLastTag = errors.New("No last_tag found.")
	errNoBranch  = errors.New("No branch found.")
	errNoCommits = errors.New("No commits found.")
)

// ValidateContext fails the run when the increment is not one of
// MAJOR, MINOR or PATCH.
func ValidateContext(ctx *Context, ver Version) (Version, error) {
	switch ctx.Increment {
	case Major, Minor, Patch:
		return ver, nil
	}
	return ver, errors.New("Invalid increment value. Must be major, minor, or patch")
}

// GetTimestamp records the current UTC time.
func GetTimestamp(ctx *Context, ver Version) (Version, error) {
	ver.Timestamp = time.Now().UTC().Format("20060102T150405Z")
	return ver, nil
}

// GetHash records the current commit hash. A failed query is not
// fatal here; steps that need the hash fail on the missing field.
func GetHash(ctx *Context, ver Version) (Version, error) {
	if hash, err := ctx.Git.CurrentHash(); err == nil {
		ver.Hash = hash
	}
	return ver, nil
}

// GetLastTag finds the nearest ancestor tag strictly before the
// current commit, restricted to the configured tag prefix, and
// resolves the commit that tag points to. Without a prefix only tags
// beginning with a digit are considered so unrelated tags are skipped.
func GetLastTag(ctx *Context, ver Version) (Version, error) {
	if strings.TrimSpace(ver.Hash) == "" {
		return ver, errNoHash
	}

	pattern := "[0-9]*"
	if ctx.TagPrefix != "" {
		pattern = ctx.TagPrefix + "*"
	}

	if tag, err := ctx.Git.NearestTag(pattern, ver.Hash+"^"); err == nil {
		ver.LastTag = tag
	}

	if ver.LastTag != "" {
		if hash, err := ctx.Git.CommitOf(ver.LastTag); err == nil {
			ver.LastHash = hash
		}
	}

	return ver, nil
}

// GetCommitCount counts commits on the ancestry path between the last
// tag and HEAD.
func GetCommitCount(ctx *Context, ver Version) (Version, error) {
	if strings.TrimSpace(ver.LastTag) == "" {
		return ver, errNoLastTag
	}

	if count, err := ctx.Git.CommitCount(ver.LastTag, "HEAD"); err == nil {
		ver.Commits = intPtr(count)
	}

	return ver, nil
}

// ApplyTagPrefix records the configured tag prefix on the version,
// but only when the discovered tag actually carries it. The prefix is
// not stripped from last_tag; component extraction strips it locally.
func ApplyTagPrefix(ctx *Context, ver Version) (Version, error) {
	if strings.TrimSpace(ver.LastTag) == "" {
		return ver, errNoLastTag
	}

	if ctx.TagPrefix != "" && strings.HasPrefix(ver.LastTag, ctx.TagPrefix) {
		ver.TagPrefix = ctx.TagPrefix
	}

	return ver, nil
}

// GetGithubBranch uses the GitHub Actions head ref when present,
// since pull request builds check out a detached merge commit.
func GetGithubBranch(ctx *Context, ver Version) (Version, error) {
	if ref := strings.TrimSpace(os.Getenv(githubHeadRef)); ref != "" {
		ver.Branch = ref
	}
	return ver, nil
}

// GetBranch queries the current branch name if not already set.
func GetBranch(ctx *Context, ver Version) (Version, error) {
	if strings.TrimSpace(ver.Branch) != "" {
		return ver, nil
	}

	branch, err := ctx.Git.CurrentBranch()
	if err != nil {
		return ver, errors.New("No git branch found.")
	}
	ver.Branch = branch

	return ver, nil
}

// GetDetachedBranch resolves the real branch name when the checkout
// is detached (branch reported as "HEAD") by finding the single local
// branch containing the current commit.
func GetDetachedBranch(ctx *Context, ver Version) (Version, error) {
	if strings.TrimSpace(ver.Branch) == "" {
		return ver, errNoBranch
	}
	if strings.TrimSpace(ver.Hash) == "" {
		return ver, errNoHash
	}

	if !strings.EqualFold(strings.TrimSpace(ver.Branch), "HEAD") {
		return ver, nil
	}

	branches, err := ctx.Git.BranchesContaining(ver.Hash)
	if err != nil {
		return ver, fmt.Errorf("listing branches containing %s: %w", ver.Hash, err)
	}

	var candidates []string
	for _, branch := range branches {
		if !strings.Contains(branch, "HEAD") {
			candidates = append(candidates, branch)
		}
	}

	if len(candidates) > 1 {
		return ver, fmt.Errorf("Multiple branches found for %s. Could not determine branch name", ver.Hash)
	}
	if len(candidates) == 0 {
		return ver, fmt.Errorf("No branches found for %s. Could not determine branch name", ver.Hash)
	}

	ver.Branch = candidates[0]
	return ver, nil
}

// StripBranchComponents removes the configured number of leading
// "/"-separated segments from the branch name, so "dev/name/feature"
// with two stripped becomes "feature".
func StripBranchComponents(ctx *Context, ver Version) (Version, error) {
	if ctx.StripBranchComponents <= 0 {
		return ver, nil
	}
	if strings.TrimSpace(ver.Branch) == "" {
		return ver, errNoBranch
	}

	parts := strings.Split(ver.Branch, "/")
	if ctx.StripBranchComponents >= len(parts) {
		return ver, fmt.Errorf("cannot strip %d components from branch %q", ctx.StripBranchComponents, ver.Branch)
	}

	ver.Branch = strings.Join(parts[ctx.StripBranchComponents:], "/")
	return ver, nil
}

// SanitizeBranchName replaces every character outside [a-zA-Z0-9]
// with "-" so the branch can appear in a version string.
func SanitizeBranchName(ctx *Context, ver Version) (Version, error) {
	if strings.TrimSpace(ver.Branch) == "" {
		return ver, errNoBranch
	}

	ver.Branch = branchSanitizeRx.ReplaceAllString(ver.Branch, "-")
	return ver, nil
}

// BuildVersionComponents parses major, minor and patch out of the
// last tag and applies the configured increment.
func BuildVersionComponents(ctx *Context, ver Version) (Version, error) {
	if strings.TrimSpace(ver.LastTag) == "" {
		return ver, errNoLastTag
	}

	lastVer := ver.LastTag
	if ver.TagPrefix != "" {
		lastVer = strings.TrimSpace(strings.TrimPrefix(lastVer, ver.TagPrefix))
	}

	parts := strings.Split(lastVer, ".")
	if len(parts) != 3 {
		return ver, errors.New("Invalid tag format. Expected 1.2.3")
	}

	nums := make([]int, 3)
	for i, part := range parts {
		// ParseUint rejects signs, so each part must be digits only.
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return ver, errors.New("Invalid tag format. Expected 1.2.3")
		}
		nums[i] = int(n)
	}

	major, minor, patch := nums[0], nums[1], nums[2]
	switch ctx.Increment {
	case Major:
		major++
		minor = 0
		patch = 0
	case Minor:
		minor++
		patch = 0
	case Patch:
		patch++
	}

	ver.Major = intPtr(major)
	ver.Minor = intPtr(minor)
	ver.Patch = intPtr(patch)
	return ver, nil
}

// BuildTag composes the next release tag from the version components
// and the recorded tag prefix.
func BuildTag(ctx *Context, ver Version) (Version, error) {
	if err := validateComponents(ver); err != nil {
		return ver, err
	}

	ver.Tag = fmt.Sprintf("%s%d.%d.%d", ver.TagPrefix, *ver.Major, *ver.Minor, *ver.Patch)
	return ver, nil
}

// BuildSemver renders the plain semver and the full form carrying the
// branch prerelease suffix, e.g. "1.2.3-feature.4".
func BuildSemver(ctx *Context, ver Version) (Version, error) {
	if err := validateSemver(ver); err != nil {
		return ver, err
	}

	v := newSemver(ver)
	ver.Semver = fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if !isMainline(ver.Branch) {
		v.Pre = []semver.PRVersion{
			{VersionStr: ver.Branch},
			{VersionNum: uint64(*ver.Commits), IsNum: true},
		}
	}
	ver.SemverFull = v.String()

	return ver, nil
}

// BuildPep440 renders the PEP 440 style form, which carries the
// branch suffix as local version metadata, e.g. "1.2.3+feature.4".
func BuildPep440(ctx *Context, ver Version) (Version, error) {
	if err := validateSemver(ver); err != nil {
		return ver, err
	}

	v := newSemver(ver)
	if !isMainline(ver.Branch) {
		v.Build = []string{ver.Branch, strconv.Itoa(*ver.Commits)}
	}
	ver.Pep440 = v.String()

	return ver, nil
}

// BuildNuget renders the NuGet style form: the semver suffix form
// truncated to the NuGet prerelease length limit by keeping the first
// and last ten characters.
func BuildNuget(ctx *Context, ver Version) (Version, error) {
	if err := validateSemver(ver); err != nil {
		return ver, err
	}

	v := newSemver(ver)
	if !isMainline(ver.Branch) {
		v.Pre = []semver.PRVersion{
			{VersionStr: ver.Branch},
			{VersionNum: uint64(*ver.Commits), IsNum: true},
		}
	}

	nuget := v.String()
	if len(nuget) > nugetMaxLength {
		nuget = nuget[:10] + nuget[len(nuget)-10:]
	}
	ver.Nuget = nuget

	return ver, nil
}

// isMainline reports whether the branch gets no version suffix.
func isMainline(branch string) bool {
	return branch == "main" || branch == "master"
}

func newSemver(ver Version) semver.Version {
	return semver.Version{
		Major: uint64(*ver.Major),
		Minor: uint64(*ver.Minor),
		Patch: uint64(*ver.Patch),
	}
}

func validateComponents(ver Version) error {
	if ver.Major == nil || ver.Minor == nil || ver.Patch == nil {
		return fmt.Errorf("major (%s), minor (%s) or patch (%s) values not set correctly",
			fmtComponent(ver.Major), fmtComponent(ver.Minor), fmtComponent(ver.Patch))
	}
	return nil
}

// validateSemver gates the semver family builders on the fields they
// all need.
func validateSemver(ver Version) error {
	if err := validateComponents(ver); err != nil {
		return err
	}
	if strings.TrimSpace(ver.Branch) == "" {
		return errNoBranch
	}
	if ver.Commits == nil {
		return errNoCommits
	}
	return nil
}

func fmtComponent(p *int) string {
	if p == nil {
		return "unset"
	}
	return strconv.Itoa(*p)
}
