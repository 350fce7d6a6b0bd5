package truststore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/tyemirov/truststore/internal/certificates"
)

const (
	commandNameCertutil       = "certutil"
	defaultNSSTrustAttributes = "C,,"
	nssDatabasePrefix         = "sql:"
	nssDatabaseFileModern     = "cert9.db"
	nssDatabaseFileLegacy     = "cert8.db"
	stagedCertificatePattern  = "truststore-*.pem"
)

// NSSAdapter manages certificates in Firefox NSS databases through certutil.
type NSSAdapter struct {
	commandRunner  certificates.CommandRunner
	commandLocator certificates.CommandLocator
	fileSystem     afero.Fs
	configuration  Configuration
}

// NewNSSAdapter constructs an NSSAdapter. Profiles are discovered under
// configuration.NSSProfileDirectories, or the platform Firefox directory when none are set.
func NewNSSAdapter(commandRunner certificates.CommandRunner, commandLocator certificates.CommandLocator, fileSystem afero.Fs, configuration Configuration) NSSAdapter {
	return NSSAdapter{
		commandRunner:  commandRunner,
		commandLocator: commandLocator,
		fileSystem:     fileSystem,
		configuration:  configuration.withDefaults(),
	}
}

// Install imports the certificate into every discovered profile under the nickname certificateName.
func (adapter NSSAdapter) Install(ctx context.Context, certificateName string, certificate []byte) error {
	certutilPath, profiles, prepareErr := adapter.prepare(certificateName)
	if prepareErr != nil {
		return prepareErr
	}

	stagedFile, stageErr := afero.TempFile(adapter.fileSystem, "", stagedCertificatePattern)
	if stageErr != nil {
		return fmt.Errorf("%w: stage certificate: %w", ErrFilesystem, stageErr)
	}
	stagedPath := stagedFile.Name()
	defer func() {
		_ = adapter.fileSystem.Remove(stagedPath)
	}()
	_, writeErr := stagedFile.Write(certificate)
	closeErr := stagedFile.Close()
	if err := multierr.Append(writeErr, closeErr); err != nil {
		return fmt.Errorf("%w: stage certificate %s: %w", ErrFilesystem, stagedPath, err)
	}

	var integrationErr error
	for _, profile := range profiles {
		arguments := []string{"-A", "-d", nssDatabasePrefix + profile, "-t", adapter.configuration.NSSTrustAttributes, "-n", certificateName, "-i", stagedPath}
		if err := adapter.commandRunner.Run(ctx, certutilPath, arguments); err != nil {
			integrationErr = multierr.Append(integrationErr, fmt.Errorf("import certificate into nss profile %s: %w", profile, err))
		}
	}
	if integrationErr != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, integrationErr)
	}
	return nil
}

// Uninstall deletes the nickname certificateName from every discovered profile.
func (adapter NSSAdapter) Uninstall(ctx context.Context, certificateName string) error {
	certutilPath, profiles, prepareErr := adapter.prepare(certificateName)
	if prepareErr != nil {
		return prepareErr
	}

	var removalErr error
	for _, profile := range profiles {
		arguments := []string{"-D", "-d", nssDatabasePrefix + profile, "-n", certificateName}
		if err := adapter.commandRunner.Run(ctx, certutilPath, arguments); err != nil {
			removalErr = multierr.Append(removalErr, fmt.Errorf("remove certificate from nss profile %s: %w", profile, err))
		}
	}
	if removalErr != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, removalErr)
	}
	return nil
}

// Profiles returns the profile directories that hold an NSS database.
func (adapter NSSAdapter) Profiles() []string {
	var profiles []string
	for _, directory := range adapter.configuration.NSSProfileDirectories {
		entries, readErr := afero.ReadDir(adapter.fileSystem, directory)
		if readErr != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			profilePath := filepath.Join(directory, entry.Name())
			if adapter.profileContainsNSSDatabase(profilePath) {
				profiles = append(profiles, profilePath)
			}
		}
	}
	return profiles
}

func (adapter NSSAdapter) prepare(certificateName string) (string, []string, error) {
	if err := ValidateFilename(certificateName); err != nil {
		return "", nil, err
	}
	certutilPath, locateErr := adapter.commandLocator.Locate(commandNameCertutil)
	if locateErr != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrToolNotFound, commandNameCertutil, locateErr)
	}
	profiles := adapter.Profiles()
	if len(profiles) == 0 {
		return "", nil, fmt.Errorf("%w: no nss databases under %v", ErrStoreNotFound, adapter.configuration.NSSProfileDirectories)
	}
	return certutilPath, profiles, nil
}

func (adapter NSSAdapter) profileContainsNSSDatabase(profilePath string) bool {
	for _, databaseFile := range []string{nssDatabaseFileModern, nssDatabaseFileLegacy} {
		exists, err := afero.Exists(adapter.fileSystem, filepath.Join(profilePath, databaseFile))
		if err == nil && exists {
			return true
		}
	}
	return false
}
