package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newRootCommand(resources *applicationResources) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           defaultApplicationName,
		Short:         "Install and remove certificates in the host trust store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigurationFile(cmd)
		},
	}

	rootCommand.PersistentFlags().String(flagNameConfigFile, "", "Path to configuration file")

	storeFlags := pflag.NewFlagSet("store", pflag.ContinueOnError)
	configureStoreFlags(storeFlags, resources.configurationManager)
	rootCommand.PersistentFlags().AddFlagSet(storeFlags)

	rootCommand.AddCommand(newInstallCommand(resources))
	rootCommand.AddCommand(newUninstallCommand(resources))
	rootCommand.AddCommand(newRefreshCommand(resources))
	rootCommand.AddCommand(newDetectCommand(resources))

	return rootCommand
}

func configureStoreFlags(flagSet *pflag.FlagSet, configurationManager *viper.Viper) {
	flagSet.String(flagNameLoggingType, configurationManager.GetString(configKeyLoggingType), "Logging type (CONSOLE or JSON)")
	flagSet.String(flagNameFlavor, configurationManager.GetString(configKeyFlavor), "Trust store flavor (system, nss or java)")
	flagSet.Bool(flagNameNSS, configurationManager.GetBool(configKeyNSSEnabled), "Enable the NSS (Firefox) trust store flavor")
	flagSet.StringSlice(flagNameNSSProfileDirs, configurationManager.GetStringSlice(configKeyNSSProfileDirectories), "Directories searched for NSS profiles (defaults to the Firefox profile directory)")
	_ = configurationManager.BindPFlag(configKeyLoggingType, flagSet.Lookup(flagNameLoggingType))
	_ = configurationManager.BindPFlag(configKeyFlavor, flagSet.Lookup(flagNameFlavor))
	_ = configurationManager.BindPFlag(configKeyNSSEnabled, flagSet.Lookup(flagNameNSS))
	_ = configurationManager.BindPFlag(configKeyNSSProfileDirectories, flagSet.Lookup(flagNameNSSProfileDirs))
}
