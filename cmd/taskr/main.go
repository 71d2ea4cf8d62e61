package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/chris-garrett/gitver/task"
)

type CLI struct {
	Tasks   []string `arg:"" optional:"" help:"Tasks to run"`
	List    bool     `short:"l" help:"List available tasks"`
	Verbose bool     `short:"v" help:"Enable debug logging"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("taskr"),
		kong.Description("Run tasks defined in tasks.yml files, dependencies first."),
		kong.UsageOnError(),
	)

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	log := task.NewLogger()
	if c.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	runner := task.NewRunner(root, log)
	if err := runner.Load(); err != nil {
		return err
	}

	if c.List || len(c.Tasks) == 0 {
		for _, name := range runner.TaskNames() {
			fmt.Println(name)
		}
		return nil
	}

	return runner.Run(c.Tasks)
}
