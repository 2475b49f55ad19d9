package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/romdo/go-debounce"
	"github.com/spf13/cobra"

	"github.com/compozy/autotune/engine/autotune"
	"github.com/compozy/autotune/engine/document"
	"github.com/compozy/autotune/pkg/config"
	"github.com/compozy/autotune/pkg/logger"
)

// Bursts of file events within watchDebounceWait trigger one validation.
const (
	watchDebounceWait = 100 * time.Millisecond
	watchMaxWait      = time.Second
)

var (
	// ErrValidationFailed is returned when at least one document is invalid.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNoInput is returned when there is nothing to validate.
	ErrNoInput = errors.New("no documents to validate")
)

// ValidateCmd returns the validate command
func ValidateCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "validate [path|dir|-]...",
		Short: "Validate autotuned override documents",
		Long: `Validate override documents against the autotuned defaults schema.

Files are validated as given. Directories are searched with the configured
patterns. Use "-" or pipe a document to read from standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, watch)
		},
	}
	flags := cmd.Flags()
	flags.StringP("format", "f", OutputFormatText, "Output format (text, json, yaml)")
	flags.StringSlice("pattern", nil, "Discovery pattern for directories (repeatable)")
	flags.Int("concurrency", 4, "Number of documents validated in parallel")
	flags.Bool("warnings", true, "Report advisory warnings")
	flags.BoolVar(&watch, "watch", false, "Re-validate files when they change")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string, watch bool) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	log := logger.FromContext(ctx)

	in := cmd.InOrStdin()
	if len(args) == 0 {
		if !stdinProvided(in) {
			return ErrNoInput
		}
		args = []string{document.StdinName}
	}
	loader := document.NewLoader(nil).WithStdin(in)
	paths, err := loader.Expand(ctx, args, cfg.Validate.Patterns)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return ErrNoInput
	}
	validator, err := autotune.NewValidator(autotune.WithWarnings(cfg.Validate.Warnings))
	if err != nil {
		return err
	}
	log.Debug("validating documents", "count", len(paths), "concurrency", cfg.Validate.Concurrency)
	reports, err := validator.ValidateFiles(ctx, loader, paths, cfg.Validate.Concurrency)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := writeReports(out, cfg.Validate.Format, reports); err != nil {
		return err
	}
	if watch {
		return watchDocuments(ctx, out, cfg, loader, validator, paths)
	}
	if !autotune.AllValid(reports) {
		return fmt.Errorf("%w: %d of %d document(s) invalid", ErrValidationFailed, newReportSet(reports).Invalid, len(reports))
	}
	return nil
}

// stdinProvided reports whether in carries piped data rather than a terminal.
func stdinProvided(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return in != nil
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

func watchDocuments(
	ctx context.Context,
	out io.Writer,
	cfg *config.Config,
	loader *document.Loader,
	validator *autotune.Validator,
	paths []string,
) error {
	log := logger.FromContext(ctx)
	watcher, err := document.NewWatcher(ctx)
	if err != nil {
		return err
	}
	defer watcher.Close()
	changes := make(chan string, len(paths))
	debounced := make(map[string]func(), len(paths))
	for _, path := range paths {
		if path == document.StdinName {
			continue
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		notify, cancel := debounce.NewWithMaxWait(watchDebounceWait, watchMaxWait, func() {
			select {
			case changes <- absPath:
			default:
			}
		})
		defer cancel()
		debounced[absPath] = notify
		if err := watcher.Watch(ctx, absPath); err != nil {
			return err
		}
	}
	watcher.OnChange(func(path string) {
		if notify, ok := debounced[path]; ok {
			notify()
		}
	})
	log.Info("watching documents for changes", "count", len(paths))
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changes:
			reports, err := validator.ValidateFiles(ctx, loader, []string{path}, 1)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			if err := writeReports(out, cfg.Validate.Format, reports); err != nil {
				return err
			}
		}
	}
}
