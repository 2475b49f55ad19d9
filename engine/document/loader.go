package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/compozy/autotune/pkg/logger"
)

// Loader reads documents from a filesystem.
type Loader struct {
	fs    afero.Fs
	stdin io.Reader
}

// NewLoader creates a loader on fs. A nil fs means the OS filesystem.
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs, stdin: os.Stdin}
}

// WithStdin replaces the reader used for the "-" path.
func (l *Loader) WithStdin(r io.Reader) *Loader {
	l.stdin = r
	return l
}

// Load reads and parses the document at path. "-" reads standard input.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		data []byte
		err  error
	)
	if path == StdinName {
		data, err = io.ReadAll(l.stdin)
	} else {
		data, err = afero.ReadFile(l.fs, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	logger.FromContext(ctx).Debug("loaded document", "path", path, "bytes", len(data))
	return Parse(path, data, DetectFormat(path))
}

// Discover walks root and returns the files whose slash-separated path
// relative to root matches any of patterns, sorted and de-duplicated.
func (l *Loader) Discover(ctx context.Context, root string, patterns []string) ([]string, error) {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid discovery pattern %q", pattern)
		}
	}
	seen := make(map[string]struct{})
	var found []string
	err := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range patterns {
			if doublestar.MatchUnvalidated(pattern, rel) {
				if _, dup := seen[path]; !dup {
					seen[path] = struct{}{}
					found = append(found, path)
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents under %s: %w", root, err)
	}
	sort.Strings(found)
	return found, nil
}

// Expand turns command line arguments into document paths: directories are
// discovered with patterns, everything else is kept as given.
func (l *Loader) Expand(ctx context.Context, args []string, patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	for _, arg := range args {
		if arg == StdinName {
			add(arg)
			continue
		}
		info, err := l.fs.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		found, err := l.Discover(ctx, arg, patterns)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return paths, nil
}
