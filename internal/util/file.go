package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideRoot = errors.New("path escapes root directory")

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// SafeJoin resolves name inside root, rejecting paths that would leave it.
func SafeJoin(root, name string) (string, error) {
	if root == "" {
		return "", ErrOutsideRoot
	}
	full := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}
