package truststore

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tyemirov/truststore/internal/certificates"
)

// Mechanism identifies one CA-trust convention. The set is closed; adding an OS family means adding a
// constant, a layout case and a slot in mechanismPriority.
type Mechanism int

const (
	MechanismUnknown Mechanism = iota
	// MechanismCATrust is the RedHat-family update-ca-trust layout.
	MechanismCATrust
	// MechanismCACertificates is the Debian-family update-ca-certificates layout.
	MechanismCACertificates
	// MechanismP11Kit is the Arch-family p11-kit trust layout.
	MechanismP11Kit
	// MechanismPKITrust is the SUSE-family layout.
	MechanismPKITrust
)

const (
	certificateExtensionPEM = ".pem"
	certificateExtensionCRT = ".crt"

	markerDirectoryCATrust         = "/etc/pki/ca-trust/source/anchors"
	markerDirectoryCACertificates  = "/usr/local/share/ca-certificates"
	markerDirectoryP11Kit          = "/etc/ca-certificates/trust-source/anchors"
	markerDirectoryPKITrust        = "/usr/share/pki/trust/anchors"
	companionDirectoryOpenSSLCerts = "/etc/ssl/certs"

	commandNameUpdateCATrust        = "update-ca-trust"
	commandNameUpdateCACertificates = "update-ca-certificates"
	commandNameTrust                = "trust"
)

// mechanismPriority is the probe order. The first mechanism whose marker directory exists wins.
var mechanismPriority = []Mechanism{
	MechanismCATrust,
	MechanismCACertificates,
	MechanismP11Kit,
	MechanismPKITrust,
}

type companionLocation struct {
	directory string
	extension string
}

type mechanismLayout struct {
	markerDirectory      string
	certificateExtension string
	companions           []companionLocation
	refreshExecutable    string
	refreshArguments     []string
}

func (mechanism Mechanism) layout() (mechanismLayout, bool) {
	switch mechanism {
	case MechanismCATrust:
		return mechanismLayout{
			markerDirectory:      markerDirectoryCATrust,
			certificateExtension: certificateExtensionPEM,
			refreshExecutable:    commandNameUpdateCATrust,
			refreshArguments:     []string{"extract"},
		}, true
	case MechanismCACertificates:
		return mechanismLayout{
			markerDirectory:      markerDirectoryCACertificates,
			certificateExtension: certificateExtensionCRT,
			companions:           []companionLocation{{directory: companionDirectoryOpenSSLCerts, extension: certificateExtensionPEM}},
			refreshExecutable:    commandNameUpdateCACertificates,
		}, true
	case MechanismP11Kit:
		return mechanismLayout{
			markerDirectory:      markerDirectoryP11Kit,
			certificateExtension: certificateExtensionCRT,
			refreshExecutable:    commandNameTrust,
			refreshArguments:     []string{"extract-compat"},
		}, true
	case MechanismPKITrust:
		return mechanismLayout{
			markerDirectory:      markerDirectoryPKITrust,
			certificateExtension: certificateExtensionPEM,
			refreshExecutable:    commandNameUpdateCACertificates,
		}, true
	default:
		return mechanismLayout{}, false
	}
}

// String returns the name of the trust tooling the mechanism belongs to.
func (mechanism Mechanism) String() string {
	switch mechanism {
	case MechanismCATrust:
		return "ca-trust"
	case MechanismCACertificates:
		return "ca-certificates"
	case MechanismP11Kit:
		return "p11-kit"
	case MechanismPKITrust:
		return "pki-trust"
	default:
		return "unknown"
	}
}

// MarkerDirectory returns the anchor directory whose presence selects the mechanism.
func (mechanism Mechanism) MarkerDirectory() string {
	layout, _ := mechanism.layout()
	return layout.markerDirectory
}

// Resolver selects the active trust mechanism and builds descriptors for it.
type Resolver struct {
	fileSystem     afero.Fs
	commandLocator certificates.CommandLocator
}

// NewResolver constructs a Resolver probing fileSystem and locating tools with commandLocator.
func NewResolver(fileSystem afero.Fs, commandLocator certificates.CommandLocator) Resolver {
	return Resolver{
		fileSystem:     fileSystem,
		commandLocator: commandLocator,
	}
}

// Detect returns the highest-priority mechanism whose marker directory exists.
func (resolver Resolver) Detect() (Mechanism, error) {
	for _, mechanism := range mechanismPriority {
		markerDirectory := mechanism.MarkerDirectory()
		exists, existsErr := afero.DirExists(resolver.fileSystem, markerDirectory)
		if existsErr != nil {
			return MechanismUnknown, fmt.Errorf("%w: probe %s: %w", ErrFilesystem, markerDirectory, existsErr)
		}
		if exists {
			return mechanism, nil
		}
	}
	return MechanismUnknown, ErrStoreNotFound
}

// Resolve builds the descriptor for certificateName. The refresh tool is located here so a missing
// tool fails before any file is touched.
func (resolver Resolver) Resolve(certificateName string) (Descriptor, error) {
	if err := ValidateFilename(certificateName); err != nil {
		return Descriptor{}, err
	}
	mechanism, detectErr := resolver.Detect()
	if detectErr != nil {
		return Descriptor{}, detectErr
	}
	refreshCommand, refreshErr := resolver.RefreshCommand(mechanism)
	if refreshErr != nil {
		return Descriptor{}, refreshErr
	}
	layout, _ := mechanism.layout()
	removePaths := make([]string, 0, len(layout.companions))
	for _, companion := range layout.companions {
		removePaths = append(removePaths, filepath.Join(companion.directory, certificateName+companion.extension))
	}
	return Descriptor{
		mechanism:      mechanism,
		createPath:     filepath.Join(layout.markerDirectory, certificateName+layout.certificateExtension),
		removePaths:    removePaths,
		refreshCommand: refreshCommand,
	}, nil
}

// RefreshCommand returns the located refresh command for mechanism.
func (resolver Resolver) RefreshCommand(mechanism Mechanism) (RefreshCommand, error) {
	layout, known := mechanism.layout()
	if !known {
		return RefreshCommand{}, ErrStoreNotFound
	}
	executablePath, locateErr := resolver.commandLocator.Locate(layout.refreshExecutable)
	if locateErr != nil {
		return RefreshCommand{}, fmt.Errorf("%w: %s: %w", ErrToolNotFound, layout.refreshExecutable, locateErr)
	}
	return RefreshCommand{
		executable: executablePath,
		arguments:  append([]string{}, layout.refreshArguments...),
	}, nil
}
