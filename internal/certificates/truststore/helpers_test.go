package truststore

import (
	"context"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/truststore/internal/certificates"
)

type executedCommand struct {
	executable string
	arguments  []string
}

type recordingCommandRunner struct {
	executed []executedCommand
	errors   []error
	onRun    func(executable string, arguments []string)
}

func newRecordingCommandRunner(errors ...error) *recordingCommandRunner {
	return &recordingCommandRunner{executed: []executedCommand{}, errors: errors}
}

func (runner *recordingCommandRunner) Run(ctx context.Context, executable string, arguments []string) error {
	runner.executed = append(runner.executed, executedCommand{executable: executable, arguments: append([]string{}, arguments...)})
	if runner.onRun != nil {
		runner.onRun(executable, arguments)
	}
	if len(runner.errors) == 0 {
		return nil
	}
	nextError := runner.errors[0]
	runner.errors = runner.errors[1:]
	return nextError
}

type stubCommandLocator struct {
	paths map[string]string
}

func newStubCommandLocator(names ...string) stubCommandLocator {
	paths := map[string]string{}
	for _, name := range names {
		paths[name] = "/usr/bin/" + name
	}
	return stubCommandLocator{paths: paths}
}

func allToolsLocator() stubCommandLocator {
	return newStubCommandLocator(commandNameUpdateCATrust, commandNameUpdateCACertificates, commandNameTrust, commandNameCertutil)
}

func (locator stubCommandLocator) Locate(name string) (string, error) {
	path, found := locator.paths[name]
	if !found {
		return "", fmt.Errorf("%w: %s", certificates.ErrExecutableNotFound, name)
	}
	return path, nil
}

func newFileSystemWithDirectories(t *testing.T, directories ...string) afero.Fs {
	t.Helper()
	fileSystem := afero.NewMemMapFs()
	for _, directory := range directories {
		require.NoError(t, fileSystem.MkdirAll(directory, 0o755))
	}
	return fileSystem
}

func writeTestFile(fileSystem afero.Fs, path string, content []byte) error {
	return afero.WriteFile(fileSystem, path, content, 0o644)
}

func readTestFile(t *testing.T, fileSystem afero.Fs, path string) []byte {
	t.Helper()
	content, err := afero.ReadFile(fileSystem, path)
	require.NoError(t, err)
	return content
}

func requireMissing(t *testing.T, fileSystem afero.Fs, path string) {
	t.Helper()
	exists, err := afero.Exists(fileSystem, path)
	require.NoError(t, err)
	require.False(t, exists, "expected %s to be absent", path)
}
