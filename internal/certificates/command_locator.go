package certificates

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
)

// ErrExecutableNotFound reports that an executable is absent from the search path.
var ErrExecutableNotFound = errors.New("executable not found")

// CommandLocator resolves executable names to absolute paths.
type CommandLocator interface {
	Locate(name string) (string, error)
}

// PathLocator searches the process PATH.
type PathLocator struct{}

// NewPathLocator constructs a PathLocator.
func NewPathLocator() PathLocator {
	return PathLocator{}
}

// Locate returns the absolute path of name. Matches relative to the working directory are rejected.
func (pathLocator PathLocator) Locate(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty executable name", ErrExecutableNotFound)
	}
	resolvedPath, lookErr := exec.LookPath(name)
	if lookErr != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExecutableNotFound, name, lookErr)
	}
	if filepath.IsAbs(resolvedPath) {
		return filepath.Clean(resolvedPath), nil
	}
	absolutePath, absoluteErr := filepath.Abs(resolvedPath)
	if absoluteErr != nil {
		return "", fmt.Errorf("resolve executable %s: %w", name, absoluteErr)
	}
	return absolutePath, nil
}
