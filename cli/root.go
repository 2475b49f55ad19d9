package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "autotune",
		Short:         "Validate autotuned resource overrides",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}

	addGlobalFlags(root)
	root.AddCommand(
		ValidateCmd(),
		SchemaCmd(),
		ConfigCmd(),
		VersionCmd(),
	)

	return root
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("env-file", "", "Path to a .env file loaded before configuration")
	flags.String("config", "", "Path to configuration file (default: ./"+DefaultConfigFile+" when present)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Emit logs as JSON")
	flags.Bool("log-source", false, "Include source location in logs")
}
