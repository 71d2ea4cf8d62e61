package gitver

// DefaultSteps is the full pipeline in execution order. Each step
// depends on fields set by earlier ones, so reordering is generally
// unsafe, but callers and tests may run subsets via GetSteps.
var DefaultSteps = []Step{
	ValidateContext,
	GetTimestamp,
	GetHash,
	GetLastTag,
	GetCommitCount,
	ApplyTagPrefix,
	GetGithubBranch,
	GetBranch,
	GetDetachedBranch,
	StripBranchComponents,
	SanitizeBranchName,
	BuildVersionComponents,
	BuildTag,
	BuildSemver,
	BuildPep440,
	BuildNuget,
}

// Get runs the default pipeline and returns the completed record.
func Get(ctx *Context) (Version, error) {
	return GetSteps(ctx, DefaultSteps)
}

// GetSteps threads one record through the given steps, stopping at
// the first error. No partial record is returned on failure.
func GetSteps(ctx *Context, steps []Step) (Version, error) {
	var ver Version
	for _, step := range steps {
		var err error
		ver, err = step(ctx, ver)
		if err != nil {
			return Version{}, err
		}
	}
	return ver, nil
}
