package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/chris-garrett/gitver"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Component             string `arg:"" enum:"major,minor,patch" help:"The version component to increment"`
	TagPrefix             string `help:"Optional prefix for git tags"`
	WorkTree              string `short:"C" help:"Repository path (default: current directory)"`
	StripBranchComponents int    `help:"Number of leading branch name components to remove"`
	Show                  string `default:"all" help:"Comma separated fields to show (default: all)"`
	Format                string `default:"csv" enum:"csv,json,env,table" help:"Output format"`
	JSONPretty            bool   `help:"Pretty formatting for json output"`
	CSVHeader             bool   `help:"Header line for csv output"`
	EnvPrefix             string `default:"VERSION_" help:"Prefix for env output keys"`
	NoQuotes              bool   `help:"Render env string values without quotes"`
	ShowVersion           bool   `help:"Show version information" name:"version"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("gitver"),
		kong.Description("Increment a semantic version component of a git tag."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.ShowVersion {
		fmt.Printf("gitver version %s\n", Version)
		return nil
	}

	ctx := gitver.NewContext(gitver.Increment(strings.ToUpper(c.Component)), c.contextOptions()...)
	ver, err := gitver.Get(ctx)
	if err != nil {
		return err
	}

	out, err := gitver.Render(ver, gitver.RenderOptions{
		Show:       c.Show,
		Format:     c.Format,
		JSONPretty: c.JSONPretty,
		CSVHeader:  c.CSVHeader,
		EnvPrefix:  c.EnvPrefix,
		NoQuotes:   c.NoQuotes,
	})
	if err != nil {
		return err
	}

	fmt.Println(out)
	return nil
}

func (c *CLI) contextOptions() []gitver.ContextOption {
	var opts []gitver.ContextOption
	if c.TagPrefix != "" {
		opts = append(opts, gitver.WithTagPrefix(c.TagPrefix))
	}
	if c.WorkTree != "" {
		opts = append(opts, gitver.WithWorkTree(c.WorkTree))
	}
	if c.StripBranchComponents > 0 {
		opts = append(opts, gitver.WithStripBranchComponents(c.StripBranchComponents))
	}
	return opts
}
