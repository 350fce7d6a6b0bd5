package truststore

import (
	"context"

	"github.com/spf13/afero"

	"github.com/tyemirov/truststore/internal/certificates"
)

// SystemAdapter manages certificates in the operating system anchor directories.
type SystemAdapter struct {
	resolver      Resolver
	writer        storeWriter
	commandRunner certificates.CommandRunner
}

// NewSystemAdapter constructs a SystemAdapter.
func NewSystemAdapter(commandRunner certificates.CommandRunner, commandLocator certificates.CommandLocator, fileSystem afero.Fs, configuration Configuration) SystemAdapter {
	configuration = configuration.withDefaults()
	return SystemAdapter{
		resolver:      NewResolver(fileSystem, commandLocator),
		writer:        storeWriter{fileSystem: fileSystem, permissions: configuration.CertificateFilePermissions},
		commandRunner: commandRunner,
	}
}

// Describe resolves the descriptor for certificateName without touching the store.
func (adapter SystemAdapter) Describe(certificateName string) (Descriptor, error) {
	return adapter.resolver.Resolve(certificateName)
}

// Install writes the certificate into the anchor directory and refreshes the bundle.
// A refresh failure leaves the written file in place.
func (adapter SystemAdapter) Install(ctx context.Context, certificateName string, certificate []byte) error {
	descriptor, resolveErr := adapter.resolver.Resolve(certificateName)
	if resolveErr != nil {
		return resolveErr
	}
	if err := adapter.writer.write(descriptor, certificate); err != nil {
		return err
	}
	return runRefresh(ctx, adapter.commandRunner, descriptor.RefreshCommand())
}

// Uninstall removes the certificate and its companion files, then refreshes the bundle.
// A refresh failure leaves the files removed.
func (adapter SystemAdapter) Uninstall(ctx context.Context, certificateName string) error {
	descriptor, resolveErr := adapter.resolver.Resolve(certificateName)
	if resolveErr != nil {
		return resolveErr
	}
	if err := adapter.writer.remove(descriptor); err != nil {
		return err
	}
	return runRefresh(ctx, adapter.commandRunner, descriptor.RefreshCommand())
}

// Refresh reruns only the refresh command of the detected mechanism.
func (adapter SystemAdapter) Refresh(ctx context.Context) error {
	mechanism, detectErr := adapter.resolver.Detect()
	if detectErr != nil {
		return detectErr
	}
	refreshCommand, refreshErr := adapter.resolver.RefreshCommand(mechanism)
	if refreshErr != nil {
		return refreshErr
	}
	return runRefresh(ctx, adapter.commandRunner, refreshCommand)
}
