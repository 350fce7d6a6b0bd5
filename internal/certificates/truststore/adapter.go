package truststore

import (
	"context"
	"io/fs"
)

const defaultCertificateFilePermissions fs.FileMode = 0o644

// Adapter installs and removes certificates in one trust store flavor.
// certificateName is a bare file name without extension; the certificate bytes are not inspected.
type Adapter interface {
	Install(ctx context.Context, certificateName string, certificate []byte) error
	Uninstall(ctx context.Context, certificateName string) error
}

// Configuration controls adapter behavior.
type Configuration struct {
	CertificateFilePermissions fs.FileMode
	NSSProfileDirectories      []string
	NSSTrustAttributes         string
}

func (configuration Configuration) withDefaults() Configuration {
	if configuration.CertificateFilePermissions == 0 {
		configuration.CertificateFilePermissions = defaultCertificateFilePermissions
	}
	if configuration.NSSTrustAttributes == "" {
		configuration.NSSTrustAttributes = defaultNSSTrustAttributes
	}
	if len(configuration.NSSProfileDirectories) == 0 {
		configuration.NSSProfileDirectories = defaultFirefoxProfileDirectories()
	}
	return configuration
}
