package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome for one input of Batch.
type BatchItem struct {
	Path   string
	Result *Result
	Err    error
}

// Batch runs ExecuteFile for every path with at most limit layouts in
// flight (DefaultConcurrency when limit <= 0). Items keep the order of
// paths. A failing input does not stop the others; only cancellation of
// ctx does, in which case the context error is returned.
func (r *Runner) Batch(ctx context.Context, paths []string, opts Options, limit int) ([]BatchItem, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	items := make([]BatchItem, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, path := range paths {
		items[i].Path = path
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			res, err := r.ExecuteFile(ctx, path, opts)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			items[i].Result, items[i].Err = res, err
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return items, err
	}
	return items, nil
}
