package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/compozy/autotune/engine/autotune"
)

// SchemaCmd returns the schema command
func SchemaCmd() *cobra.Command {
	var (
		compact bool
		field   string
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the autotuned defaults JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := schemaDocument(field)
			if err != nil {
				return err
			}
			var out []byte
			if compact {
				out = pretty.Ugly(raw)
				out = append(out, '\n')
			} else {
				out = pretty.Pretty(raw)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "Print the schema on a single line")
	cmd.Flags().StringVar(&field, "field", "", "Print only the sub-schema of one override field")
	return cmd
}

// schemaDocument returns the whole schema, or the sub-schema of field.
func schemaDocument(field string) ([]byte, error) {
	raw := autotune.Schema()
	if field == "" {
		return raw, nil
	}
	if !slices.Contains(autotune.Fields, field) {
		return nil, fmt.Errorf("unknown override field %q, expected one of %v", field, autotune.Fields)
	}
	result := gjson.GetBytes(raw, "patternProperties.*.properties."+field)
	if !result.Exists() {
		return nil, fmt.Errorf("field %q is missing from the schema", field)
	}
	return []byte(result.Raw), nil
}
