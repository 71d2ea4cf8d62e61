package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func writeTaskfile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, taskFileName), []byte(content), 0o644))
}

func testRunner(t *testing.T, root string) *Runner {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	r := NewRunner(root, log)
	require.NoError(t, r.Load())
	return r
}

func TestLoad(t *testing.T) {
	t.Run("Namespaces tasks by directory", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  build:
    cmds: ["true"]
`)
		writeTaskfile(t, filepath.Join(root, "web"), `
tasks:
  build:
    cmds: ["true"]
`)

		r := testRunner(t, root)
		require.ElementsMatch(t, []string{"build", "web:build"}, r.TaskNames())
	})

	t.Run("Unqualified deps resolve within the namespace first", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  generate:
    cmds: ["true"]
`)
		writeTaskfile(t, filepath.Join(root, "web"), `
tasks:
  generate:
    cmds: ["true"]
  build:
    cmds: ["true"]
    deps: [generate]
`)

		r := testRunner(t, root)
		order, err := r.Resolve([]string{"web:build"})
		require.NoError(t, err)
		require.Equal(t, []string{"web:generate", "web:build"}, order)
	})

	t.Run("Unknown dependency fails at load", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  build:
    cmds: ["true"]
    deps: [missing]
`)

		r := NewRunner(root, logrus.New())
		err := r.Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), `unknown task "missing"`)
	})

	t.Run("Hidden and underscore directories are skipped", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  build:
    cmds: ["true"]
`)
		writeTaskfile(t, filepath.Join(root, ".cache"), `
tasks:
  hidden:
    cmds: ["true"]
`)
		writeTaskfile(t, filepath.Join(root, "_vendor"), `
tasks:
  vendored:
    cmds: ["true"]
`)

		r := testRunner(t, root)
		require.Equal(t, []string{"build"}, r.TaskNames())
	})
}

func TestTaskNames(t *testing.T) {
	root := t.TempDir()
	writeTaskfile(t, root, `
tasks:
  zeta:
    cmds: ["true"]
  alpha:
    cmds: ["true"]
`)
	writeTaskfile(t, filepath.Join(root, "api"), `
tasks:
  build:
    cmds: ["true"]
`)

	r := testRunner(t, root)
	require.Equal(t, []string{"alpha", "zeta", "api:build"}, r.TaskNames())
}

func TestResolve(t *testing.T) {
	t.Run("Dependencies order first", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  deploy:
    cmds: ["true"]
    deps: [build]
  build:
    cmds: ["true"]
    deps: [generate]
  generate:
    cmds: ["true"]
`)

		r := testRunner(t, root)
		order, err := r.Resolve([]string{"deploy"})
		require.NoError(t, err)
		require.Equal(t, []string{"generate", "build", "deploy"}, order)
	})

	t.Run("Only the requested closure runs", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  build:
    cmds: ["true"]
  unrelated:
    cmds: ["true"]
`)

		r := testRunner(t, root)
		order, err := r.Resolve([]string{"build"})
		require.NoError(t, err)
		require.Equal(t, []string{"build"}, order)
	})

	t.Run("Unknown task", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  build:
    cmds: ["true"]
`)

		r := testRunner(t, root)
		_, err := r.Resolve([]string{"nope"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown task: nope")
	})

	t.Run("Cycle detection", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  a:
    cmds: ["true"]
    deps: [b]
  b:
    cmds: ["true"]
    deps: [a]
`)

		r := testRunner(t, root)
		_, err := r.Resolve([]string{"a"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "dependency cycle")
	})
}

func TestRun(t *testing.T) {
	t.Run("Commands run in the task directory", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, filepath.Join(root, "sub"), `
tasks:
  touch:
    cmds: ["touch ran.txt"]
`)

		r := testRunner(t, root)
		require.NoError(t, r.Run([]string{"sub:touch"}))
		require.FileExists(t, filepath.Join(root, "sub", "ran.txt"))
	})

	t.Run("Failing command aborts", func(t *testing.T) {
		root := t.TempDir()
		writeTaskfile(t, root, `
tasks:
  bad:
    cmds: ["false"]
  after:
    cmds: ["true"]
    deps: [bad]
`)

		r := testRunner(t, root)
		err := r.Run([]string{"after"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "task bad")
	})
}
