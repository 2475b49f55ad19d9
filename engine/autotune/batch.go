package autotune

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/compozy/autotune/engine/document"
	"github.com/compozy/autotune/pkg/logger"
)

// ValidateFiles loads and validates every path with at most concurrency
// documents in flight. Reports come back in the order of paths. Read and
// parse failures become invalid reports; only context cancellation is
// returned as an error.
func (v *Validator) ValidateFiles(
	ctx context.Context,
	loader *document.Loader,
	paths []string,
	concurrency int,
) ([]*Report, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	log := logger.FromContext(ctx)
	reports := make([]*Report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := loader.Load(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Debug("failed to load document", "path", path, "error", err)
				reports[i] = invalidDocumentReport(path, err)
				return nil
			}
			reports[i] = v.ValidateDocument(gctx, doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// AllValid reports whether every report is valid.
func AllValid(reports []*Report) bool {
	for _, r := range reports {
		if r == nil || !r.Valid {
			return false
		}
	}
	return true
}
