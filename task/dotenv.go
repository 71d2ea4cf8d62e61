package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// envFiles is the chain loaded before tasks run. Defaults and secrets
// never override existing variables; user level files do.
var envFiles = []struct {
	name     string
	override bool
}{
	{".env.defaults", false},
	{".env.secrets", false},
	{".env.user", true},
	{".env.local", true},
	{".env", true},
}

// LoadEnv loads the env file chain from dir into the process
// environment, then expands values that reference other variables.
func LoadEnv(dir string) error {
	for _, f := range envFiles {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		var err error
		if f.override {
			err = godotenv.Overload(path)
		} else {
			err = godotenv.Load(path)
		}
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}

	expandEnv()
	return nil
}

// expandEnv resolves $VAR references in environment values.
func expandEnv() {
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(v, "$") {
			os.Setenv(k, os.ExpandEnv(v))
		}
	}
}
