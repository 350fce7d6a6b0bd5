package truststore

import (
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
)

type storeWriter struct {
	fileSystem  afero.Fs
	permissions fs.FileMode
}

// write creates or truncates the descriptor's create path.
func (writer storeWriter) write(descriptor Descriptor, certificate []byte) error {
	createPath := descriptor.CreatePath()
	if err := afero.WriteFile(writer.fileSystem, createPath, certificate, writer.permissions); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrFilesystem, createPath, err)
	}
	return nil
}

// remove deletes the create path and then every companion path, stopping at the first failure.
// A missing file is a failure.
func (writer storeWriter) remove(descriptor Descriptor) error {
	targets := append([]string{descriptor.CreatePath()}, descriptor.RemovePaths()...)
	for _, target := range targets {
		if err := writer.fileSystem.Remove(target); err != nil {
			return fmt.Errorf("%w: remove %s: %w", ErrFilesystem, target, err)
		}
	}
	return nil
}
