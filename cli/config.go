package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/compozy/autotune/pkg/config"
	"github.com/compozy/autotune/pkg/logger"
)

// DefaultConfigFile is read from the working directory when --config is not set.
const DefaultConfigFile = "autotune.yaml"

// SetupGlobalConfig loads configuration from defaults, the YAML file, the
// environment and explicitly set flags, then injects config and logger into
// the command context.
func SetupGlobalConfig(cmd *cobra.Command) error {
	if err := loadEnvFile(cmd); err != nil {
		return err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to read config flag: %w", err)
	}
	sources := make([]config.Source, 0, 2)
	if configPath != "" {
		sources = append(sources, config.NewRequiredYAMLProvider(configPath))
	} else {
		sources = append(sources, config.NewYAMLProvider(DefaultConfigFile))
	}
	sources = append(sources, config.NewCLIProvider(changedFlags(cmd.Flags())))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	service := config.NewService()
	cfg, err := service.Load(ctx, sources...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.SetupLogger(cfg.Log.Level, cfg.Log.JSON, cfg.Log.Source, cmd.ErrOrStderr())
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg, service)
	cmd.SetContext(ctx)
	log.Debug("configuration loaded", "config_file", configPath)
	return nil
}

// loadEnvFile loads variables from --env-file into the process environment.
// A missing file is ignored.
func loadEnvFile(cmd *cobra.Command) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil || envFile == "" {
		return nil
	}
	info, err := os.Stat(envFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("env file path '%s' is not a regular file", envFile)
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}

// changedFlags collects the values of flags set on the command line.
func changedFlags(flags *pflag.FlagSet) map[string]any {
	values := make(map[string]any)
	flags.Visit(func(f *pflag.Flag) {
		var (
			value any
			err   error
		)
		switch f.Value.Type() {
		case "bool":
			value, err = flags.GetBool(f.Name)
		case "int":
			value, err = flags.GetInt(f.Name)
		case "stringSlice":
			value, err = flags.GetStringSlice(f.Name)
		case "stringArray":
			value, err = flags.GetStringArray(f.Name)
		default:
			value = f.Value.String()
		}
		if err == nil {
			values[f.Name] = value
		}
	})
	return values
}

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration diagnostics",
	}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration values and their sources",
		Long: `Display the effective configuration. Each value is listed with the
source (cli, env, yaml or default) that provided it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return writeConfig(cmd.OutOrStdout(), config.FromContext(ctx), config.ServiceFromContext(ctx), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

type configEntry struct {
	Key    string            `json:"key"    yaml:"key"`
	Value  any               `json:"value"  yaml:"value"`
	Source config.SourceType `json:"source" yaml:"source"`
}

func configEntries(cfg *config.Config, service config.Service) ([]configEntry, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	flat := make(map[string]any)
	flatten("", tree, flat)
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	entries := make([]configEntry, 0, len(keys))
	for _, key := range keys {
		source := config.SourceDefault
		if service != nil {
			source = service.GetSource(key)
		}
		entries = append(entries, configEntry{Key: key, Value: flat[key], Source: source})
	}
	return entries, nil
}

func flatten(prefix string, tree map[string]any, out map[string]any) {
	for key, value := range tree {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(path, nested, out)
			continue
		}
		out[path] = value
	}
}

func writeConfig(w io.Writer, cfg *config.Config, service config.Service, output string) error {
	entries, err := configEntries(cfg, service)
	if err != nil {
		return err
	}
	switch output {
	case "json":
		return writeJSON(w, entries)
	case "yaml":
		return writeYAML(w, entries)
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
		for _, entry := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Key, formatValue(entry.Value), entry.Source)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}

func formatValue(value any) string {
	if items, ok := value.([]any); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(value)
}

func writeYAML(w io.Writer, value any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
