package truststore

import (
	"fmt"
	"strings"
)

// RefreshCommand is an absolute executable path plus its argument list.
type RefreshCommand struct {
	executable string
	arguments  []string
}

// Executable returns the absolute path of the refresh tool.
func (command RefreshCommand) Executable() string {
	return command.executable
}

// Arguments returns a copy of the argument list.
func (command RefreshCommand) Arguments() []string {
	return append([]string{}, command.arguments...)
}

func (command RefreshCommand) String() string {
	if len(command.arguments) == 0 {
		return command.executable
	}
	return command.executable + " " + strings.Join(command.arguments, " ")
}

// Descriptor tells an adapter where a certificate lives and how to refresh the consolidated bundle.
// It is built per call and never mutated.
type Descriptor struct {
	mechanism      Mechanism
	createPath     string
	removePaths    []string
	refreshCommand RefreshCommand
}

// Mechanism returns the selected trust mechanism.
func (descriptor Descriptor) Mechanism() Mechanism {
	return descriptor.mechanism
}

// CreatePath returns the path the certificate is written to.
func (descriptor Descriptor) CreatePath() string {
	return descriptor.createPath
}

// RemovePaths returns the companion paths deleted after CreatePath on uninstall.
func (descriptor Descriptor) RemovePaths() []string {
	return append([]string{}, descriptor.removePaths...)
}

// RefreshCommand returns the command that rebuilds the trust bundle.
func (descriptor Descriptor) RefreshCommand() RefreshCommand {
	return descriptor.refreshCommand
}

// ValidateFilename rejects names that are not a single path element.
func ValidateFilename(certificateName string) error {
	switch {
	case certificateName == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidFilename)
	case certificateName == "." || strings.HasPrefix(certificateName, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidFilename, certificateName)
	case strings.ContainsAny(certificateName, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilename, certificateName)
	}
	return nil
}
