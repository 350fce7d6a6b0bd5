package app

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tyemirov/truststore/internal/certificates/truststore"
	"github.com/tyemirov/truststore/pkg/logging"
)

const (
	logFieldCertificate    = "certificate"
	logFieldFlavor         = "flavor"
	logFieldMechanism      = "mechanism"
	logFieldNSSEnabled     = "nss_enabled"
	logFieldProfileRoots   = "nss_profile_directories"
	logFieldCompanionCount = "companion_paths"
)

type storeSettings struct {
	flavor               truststore.Flavor
	nssEnabled           bool
	adapterConfiguration truststore.Configuration
}

func newInstallCommand(resources *applicationResources) *cobra.Command {
	return &cobra.Command{
		Use:   "install <name> <certificate-file>",
		Short: "Install a certificate into the trust store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, args[0], args[1])
		},
	}
}

func newUninstallCommand(resources *applicationResources) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove a previously installed certificate from the trust store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUninstall(cmd, args[0])
		},
	}
}

func newRefreshCommand(resources *applicationResources) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the system trust bundle without changing certificate files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(cmd)
		},
	}
}

func newDetectCommand(resources *applicationResources) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [name]",
		Short: "Show the system trust mechanism and the paths used for a certificate name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certificateName := ""
			if len(args) == 1 {
				certificateName = args[0]
			}
			return runDetect(cmd, certificateName)
		},
	}
}

func runInstall(cmd *cobra.Command, certificateName string, certificatePath string) error {
	resources, err := getApplicationResources(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveStoreSettings(resources.configurationManager)
	if err != nil {
		return err
	}
	certificate, readErr := afero.ReadFile(resources.fileSystem, certificatePath)
	if readErr != nil {
		return fmt.Errorf("read certificate %s: %w", certificatePath, readErr)
	}
	warnDisabledNSS(resources, settings)

	dispatcher := buildDispatcher(resources, settings)
	if installErr := dispatcher.Install(cmd.Context(), settings.flavor, certificateName, certificate); installErr != nil {
		return fmt.Errorf("install certificate %s: %w", certificateName, installErr)
	}
	logTrustMessage(resources, "certificate installed", certificateName, settings)
	return nil
}

func runUninstall(cmd *cobra.Command, certificateName string) error {
	resources, err := getApplicationResources(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveStoreSettings(resources.configurationManager)
	if err != nil {
		return err
	}
	warnDisabledNSS(resources, settings)

	dispatcher := buildDispatcher(resources, settings)
	if uninstallErr := dispatcher.Uninstall(cmd.Context(), settings.flavor, certificateName); uninstallErr != nil {
		return fmt.Errorf("uninstall certificate %s: %w", certificateName, uninstallErr)
	}
	logTrustMessage(resources, "certificate uninstalled", certificateName, settings)
	return nil
}

func runRefresh(cmd *cobra.Command) error {
	resources, err := getApplicationResources(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveStoreSettings(resources.configurationManager)
	if err != nil {
		return err
	}
	systemAdapter := truststore.NewSystemAdapter(resources.commandRunner, resources.commandLocator, resources.fileSystem, settings.adapterConfiguration)
	if refreshErr := systemAdapter.Refresh(cmd.Context()); refreshErr != nil {
		return fmt.Errorf("refresh trust store: %w", refreshErr)
	}
	resources.loggingService.Info("trust store refreshed")
	return nil
}

func runDetect(cmd *cobra.Command, certificateName string) error {
	resources, err := getApplicationResources(cmd)
	if err != nil {
		return err
	}
	resolver := truststore.NewResolver(resources.fileSystem, resources.commandLocator)
	mechanism, detectErr := resolver.Detect()
	if detectErr != nil {
		return fmt.Errorf("detect trust store: %w", detectErr)
	}
	output := cmd.OutOrStdout()
	fmt.Fprintf(output, "mechanism: %s\n", mechanism)
	fmt.Fprintf(output, "marker: %s\n", mechanism.MarkerDirectory())

	if certificateName == "" {
		refreshCommand, refreshErr := resolver.RefreshCommand(mechanism)
		if refreshErr != nil {
			return fmt.Errorf("detect trust store: %w", refreshErr)
		}
		fmt.Fprintf(output, "refresh: %s\n", refreshCommand)
		return nil
	}

	descriptor, resolveErr := resolver.Resolve(certificateName)
	if resolveErr != nil {
		return fmt.Errorf("detect trust store: %w", resolveErr)
	}
	fmt.Fprintf(output, "refresh: %s\n", descriptor.RefreshCommand())
	fmt.Fprintf(output, "create: %s\n", descriptor.CreatePath())
	for _, removePath := range descriptor.RemovePaths() {
		fmt.Fprintf(output, "remove: %s\n", removePath)
	}
	if resources.loggingType() == logging.TypeJSON {
		resources.loggingService.Info(
			"trust store detected",
			logging.String(logFieldMechanism, mechanism.String()),
			logging.String(logFieldCertificate, certificateName),
			logging.Int(logFieldCompanionCount, len(descriptor.RemovePaths())),
		)
	}
	return nil
}

func resolveStoreSettings(configurationManager *viper.Viper) (storeSettings, error) {
	flavor, flavorErr := truststore.ParseFlavor(configurationManager.GetString(configKeyFlavor))
	if flavorErr != nil {
		return storeSettings{}, flavorErr
	}
	permissions, permissionsErr := parseFilePermissions(configurationManager.GetString(configKeyCertificatePermissions))
	if permissionsErr != nil {
		return storeSettings{}, permissionsErr
	}
	return storeSettings{
		flavor:     flavor,
		nssEnabled: configurationManager.GetBool(configKeyNSSEnabled),
		adapterConfiguration: truststore.Configuration{
			CertificateFilePermissions: permissions,
			NSSProfileDirectories:      sanitizeDirectories(configurationManager.GetStringSlice(configKeyNSSProfileDirectories)),
			NSSTrustAttributes:         strings.TrimSpace(configurationManager.GetString(configKeyNSSTrustAttributes)),
		},
	}, nil
}

func parseFilePermissions(rawValue string) (fs.FileMode, error) {
	sanitized := strings.TrimSpace(rawValue)
	if sanitized == "" {
		sanitized = defaultCertificatePermissions
	}
	parsed, parseErr := strconv.ParseUint(sanitized, 8, 32)
	if parseErr != nil || parsed == 0 || parsed > 0o777 {
		return 0, fmt.Errorf("invalid certificate permissions %s", rawValue)
	}
	return fs.FileMode(parsed), nil
}

func buildDispatcher(resources *applicationResources, settings storeSettings) truststore.Dispatcher {
	options := []truststore.DispatcherOption{
		truststore.WithSystemAdapter(truststore.NewSystemAdapter(resources.commandRunner, resources.commandLocator, resources.fileSystem, settings.adapterConfiguration)),
	}
	if settings.nssEnabled {
		options = append(options, truststore.WithNSSAdapter(truststore.NewNSSAdapter(resources.commandRunner, resources.commandLocator, resources.fileSystem, settings.adapterConfiguration)))
	}
	return truststore.NewDispatcher(options...)
}

func warnDisabledNSS(resources *applicationResources, settings storeSettings) {
	if settings.flavor != truststore.FlavorNSS || settings.nssEnabled {
		return
	}
	resources.loggingService.Warn(fmt.Sprintf("the nss flavor is disabled; pass --%s to enable it", flagNameNSS))
}

func sanitizeDirectories(directories []string) []string {
	seen := map[string]struct{}{}
	result := make([]string, 0, len(directories))
	for _, directory := range directories {
		normalizedDirectory := strings.TrimSpace(directory)
		if normalizedDirectory == "" {
			continue
		}
		if _, exists := seen[normalizedDirectory]; exists {
			continue
		}
		seen[normalizedDirectory] = struct{}{}
		result = append(result, normalizedDirectory)
	}
	return result
}

func logTrustMessage(resources *applicationResources, message string, certificateName string, settings storeSettings) {
	if resources.loggingService == nil {
		return
	}
	if resources.loggingType() == logging.TypeConsole {
		resources.loggingService.Info(fmt.Sprintf("%s (%s, %s)", message, certificateName, settings.flavor))
		return
	}
	fields := []logging.Field{
		logging.String(logFieldCertificate, certificateName),
		logging.String(logFieldFlavor, string(settings.flavor)),
		logging.Bool(logFieldNSSEnabled, settings.nssEnabled),
	}
	if settings.flavor == truststore.FlavorNSS {
		fields = append(fields, logging.Strings(logFieldProfileRoots, settings.adapterConfiguration.NSSProfileDirectories))
	}
	resources.loggingService.Info(message, fields...)
}
