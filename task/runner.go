package task

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/sirupsen/logrus"
	"mvdan.cc/sh/v3/shell"
)

// Runner discovers tasks under a root directory and executes them in
// dependency order.
type Runner struct {
	RootDir string
	Log     *logrus.Logger

	tasks map[string]*Task
}

// NewRunner builds a runner for the given root. A nil logger gets the
// default LOG_LEVEL-driven one.
func NewRunner(root string, log *logrus.Logger) *Runner {
	if log == nil {
		log = NewLogger()
	}
	return &Runner{RootDir: root, Log: log}
}

// NewLogger builds a logger with its level taken from the LOG_LEVEL
// environment variable, defaulting to info.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
	return log
}

// Load reads the env file chain and every tasks.yml under the root,
// then resolves dependency names to their qualified form.
func (r *Runner) Load() error {
	if err := LoadEnv(r.RootDir); err != nil {
		return err
	}

	files, err := r.findTaskFiles()
	if err != nil {
		return err
	}

	r.tasks = make(map[string]*Task)
	for _, file := range files {
		r.Log.Debugf("loading taskfile %s", file)
		if err := loadTaskfile(r.RootDir, file, r.tasks); err != nil {
			return err
		}
	}

	return r.qualifyDeps()
}

func (r *Runner) findTaskFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != r.RootDir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == taskFileName {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// qualifyDeps rewrites dependency names to qualified form, preferring
// a sibling in the same namespace over a root task.
func (r *Runner) qualifyDeps() error {
	for name, task := range r.tasks {
		for i, dep := range task.Deps {
			if _, ok := r.tasks[dep]; ok {
				continue
			}
			if ns := namespaceOf(name); ns != "" {
				if qualified := ns + ":" + dep; r.tasks[qualified] != nil {
					task.Deps[i] = qualified
					continue
				}
			}
			return fmt.Errorf("task %q depends on unknown task %q", name, dep)
		}
	}
	return nil
}

// TaskNames lists loaded tasks, unnamespaced tasks first, each group
// alphabetical.
func (r *Runner) TaskNames() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := names[i], names[j]
		aNested := strings.Contains(a, ":")
		bNested := strings.Contains(b, ":")
		if aNested != bNested {
			return bNested
		}
		return a < b
	})
	return names
}

// Resolve expands the requested tasks to their dependency closure and
// returns an execution order with dependencies first.
func (r *Runner) Resolve(names []string) ([]string, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	seen := make(map[string]bool)
	queue := append([]string(nil), names...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}

		task, ok := r.tasks[name]
		if !ok {
			return nil, fmt.Errorf("unknown task: %s", name)
		}
		seen[name] = true

		if err := g.AddVertex(name); err != nil {
			return nil, fmt.Errorf("adding task %q: %w", name, err)
		}
		queue = append(queue, task.Deps...)
	}

	// Edges point dependency -> dependent so dependencies sort first.
	for name := range seen {
		for _, dep := range r.tasks[name].Deps {
			err := g.AddEdge(dep, name)
			if errors.Is(err, graph.ErrEdgeCreatesCycle) {
				return nil, fmt.Errorf("dependency cycle between %q and %q", dep, name)
			}
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("adding dependency %q -> %q: %w", dep, name, err)
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("ordering tasks: %w", err)
	}
	return order, nil
}

// Run executes the requested tasks and their dependencies in order,
// stopping at the first failure.
func (r *Runner) Run(names []string) error {
	order, err := r.Resolve(names)
	if err != nil {
		return err
	}

	for _, name := range order {
		if err := r.runTask(r.tasks[name]); err != nil {
			return fmt.Errorf("task %s: %w", name, err)
		}
	}
	return nil
}

func (r *Runner) runTask(task *Task) error {
	r.Log.Infof("running %s", task.Name)

	for _, line := range task.Cmds {
		args, err := shell.Fields(line, os.Getenv)
		if err != nil {
			return fmt.Errorf("splitting command %q: %w", line, err)
		}
		if len(args) == 0 {
			continue
		}

		r.Log.Debugf("executing: [%s] cwd: [%s]", strings.Join(args, " "), task.Dir)

		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = task.Dir
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Env = os.Environ()
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("running %q: %w", line, err)
		}
	}
	return nil
}
