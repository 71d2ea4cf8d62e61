package main

import (
	"testing"

	"github.com/chris-garrett/gitver"
	"github.com/stretchr/testify/require"
)

func TestContextOptions(t *testing.T) {
	t.Run("Flags map onto context options", func(t *testing.T) {
		cli := &CLI{TagPrefix: "v", WorkTree: "/repo", StripBranchComponents: 2}

		ctx := gitver.NewContext(gitver.Minor, cli.contextOptions()...)
		require.Equal(t, "v", ctx.TagPrefix)
		require.Equal(t, "/repo", ctx.WorkTree)
		require.Equal(t, 2, ctx.StripBranchComponents)
	})

	t.Run("Unset flags add no options", func(t *testing.T) {
		cli := &CLI{}
		require.Empty(t, cli.contextOptions())

		ctx := gitver.NewContext(gitver.Patch)
		require.Empty(t, ctx.TagPrefix)
		require.Empty(t, ctx.WorkTree)
		require.Zero(t, ctx.StripBranchComponents)
	})
}
