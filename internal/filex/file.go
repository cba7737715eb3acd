// Package filex holds small filesystem helpers for export targets.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (relative paths are resolved against the working
// directory) and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// ResolveIn places name inside dir unless name is already absolute or
// carries a directory of its own. The parent directory is created.
func ResolveIn(dir, name string) (string, error) {
	target := name
	if !filepath.IsAbs(name) && filepath.Dir(name) == "." {
		target = filepath.Join(dir, name)
	}
	parent, err := EnsureDir(filepath.Dir(target))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, filepath.Base(target)), nil
}
