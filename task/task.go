// Package task is a small generic task runner. Directories under a
// root declare named tasks in tasks.yml files; requested tasks run in
// dependency order with env files loaded first.
package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// taskFileName is the per-directory task definition file.
const taskFileName = "tasks.yml"

// Task is one named unit of work.
type Task struct {
	// Name is the fully qualified task name, namespaced by the
	// directory the taskfile lives in ("web:build").
	Name string `yaml:"-"`

	// Cmds are the commands run in order.
	Cmds []string `yaml:"cmds"`

	// Deps name tasks that must run first. Unqualified names resolve
	// within the same taskfile's namespace before the root.
	Deps []string `yaml:"deps"`

	// Dir overrides the working directory, relative to the taskfile.
	// After loading it holds the absolute directory commands run in.
	Dir string `yaml:"dir"`
}

// Taskfile is the on-disk shape of one tasks.yml.
type Taskfile struct {
	Tasks map[string]*Task `yaml:"tasks"`
}

// loadTaskfile parses one tasks.yml and registers its tasks under the
// namespace derived from its directory.
func loadTaskfile(root, path string, tasks map[string]*Task) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var tf Taskfile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	ns, err := namespaceFor(root, dir)
	if err != nil {
		return err
	}

	for name, task := range tf.Tasks {
		if task == nil {
			task = &Task{}
		}

		full := name
		if ns != "" {
			full = ns + ":" + name
		}
		if _, exists := tasks[full]; exists {
			return fmt.Errorf("duplicate task %q in %s", full, path)
		}

		task.Name = full
		if task.Dir != "" {
			task.Dir = filepath.Join(dir, task.Dir)
		} else {
			task.Dir = dir
		}

		tasks[full] = task
	}

	return nil
}

// namespaceFor maps a taskfile directory onto a task name prefix:
// the root itself has none, a nested dir "a/b" becomes "a:b".
func namespaceFor(root, dir string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", fmt.Errorf("relativizing %s: %w", dir, err)
	}
	if rel == "." {
		return "", nil
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", ":"), nil
}

// namespaceOf returns the namespace part of a qualified task name.
func namespaceOf(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[:i]
	}
	return ""
}
