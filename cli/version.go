package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compozy/autotune/pkg/version"
)

// VersionCmd returns the version command
func VersionCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			w := cmd.OutOrStdout()
			switch output {
			case "text":
				_, err := fmt.Fprintln(w, info.String())
				return err
			case "json":
				return writeJSON(w, info)
			case "yaml":
				return writeYAML(w, info)
			default:
				return fmt.Errorf("unsupported output format: %s", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	return cmd
}
