// Package gitver derives semantic version strings from Git repository
// state. One Version record is threaded through an ordered list of
// pipeline steps, each reading repository facts (nearest tag, commit
// distance, branch name) or deriving output formats from fields set by
// earlier steps.
package gitver

import (
	"github.com/elliotchance/orderedmap/v3"
)

// Increment selects which version component the pipeline bumps.
type Increment string

const (
	Major Increment = "MAJOR"
	Minor Increment = "MINOR"
	Patch Increment = "PATCH"
)

// Context is the immutable configuration for one pipeline run.
type Context struct {
	// Increment is the version component to bump.
	Increment Increment

	// TagPrefix restricts tag discovery to tags starting with this
	// prefix (e.g. "v" or "sdk-").
	TagPrefix string

	// WorkTree is the repository path to query. Empty means the
	// process working directory.
	WorkTree string

	// StripBranchComponents removes this many leading "/"-separated
	// segments from the branch name before sanitation.
	StripBranchComponents int

	// Git answers the repository queries the steps issue.
	Git Querier
}

// ContextOption configures optional Context fields.
type ContextOption func(*Context)

// WithTagPrefix restricts tag discovery to tags starting with prefix.
func WithTagPrefix(prefix string) ContextOption {
	return func(c *Context) { c.TagPrefix = prefix }
}

// WithWorkTree sets the repository path to query.
func WithWorkTree(path string) ContextOption {
	return func(c *Context) { c.WorkTree = path }
}

// WithStripBranchComponents removes n leading branch name segments.
func WithStripBranchComponents(n int) ContextOption {
	return func(c *Context) { c.StripBranchComponents = n }
}

// WithQuerier substitutes the repository query implementation.
func WithQuerier(q Querier) ContextOption {
	return func(c *Context) { c.Git = q }
}

// NewContext builds a Context for the given increment. Unless a
// Querier is supplied, queries go to the git binary via GitCLI.
func NewContext(increment Increment, opts ...ContextOption) *Context {
	ctx := &Context{Increment: increment}
	for _, opt := range opts {
		opt(ctx)
	}
	if ctx.Git == nil {
		ctx.Git = &GitCLI{WorkTree: ctx.WorkTree}
	}
	return ctx
}

// Version is the record built incrementally by the pipeline. Fields
// are unset (nil pointer or empty string) until the step that owns
// them has run.
type Version struct {
	Major   *int   `json:"major"`
	Minor   *int   `json:"minor"`
	Patch   *int   `json:"patch"`
	Commits *int   `json:"commits"`
	Hash    string `json:"hash"`
	Branch  string `json:"branch"`

	LastTag   string `json:"last_tag"`
	LastHash  string `json:"last_hash"`
	Tag       string `json:"tag"`
	TagPrefix string `json:"tag_prefix"`

	Semver     string `json:"semver"`
	SemverFull string `json:"semver_full"`
	Pep440     string `json:"pep440"`
	Nuget      string `json:"nuget"`
	Timestamp  string `json:"timestamp"`
}

// FieldNames lists the record's fields in display order.
var FieldNames = []string{
	"major", "minor", "patch", "commits", "hash", "branch",
	"last_tag", "last_hash", "tag", "tag_prefix",
	"semver", "semver_full", "pep440", "nuget", "timestamp",
}

// Fields returns the record as an ordered map in display order. Unset
// fields carry a nil value.
func (v Version) Fields() *orderedmap.OrderedMap[string, any] {
	om := orderedmap.NewOrderedMap[string, any]()
	om.Set("major", intField(v.Major))
	om.Set("minor", intField(v.Minor))
	om.Set("patch", intField(v.Patch))
	om.Set("commits", intField(v.Commits))
	om.Set("hash", stringField(v.Hash))
	om.Set("branch", stringField(v.Branch))
	om.Set("last_tag", stringField(v.LastTag))
	om.Set("last_hash", stringField(v.LastHash))
	om.Set("tag", stringField(v.Tag))
	om.Set("tag_prefix", stringField(v.TagPrefix))
	om.Set("semver", stringField(v.Semver))
	om.Set("semver_full", stringField(v.SemverFull))
	om.Set("pep440", stringField(v.Pep440))
	om.Set("nuget", stringField(v.Nuget))
	om.Set("timestamp", stringField(v.Timestamp))
	return om
}

// Field returns the named field's value and whether the name exists.
func (v Version) Field(name string) (any, bool) {
	return v.Fields().Get(name)
}

func intField(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringField(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func intPtr(n int) *int {
	return &n
}
