package service

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize   = 500
	DefaultConcurrency = 16
)

// BulkOptions bounds a chunked write.
type BulkOptions struct {
	ChunkSize   int
	Concurrency int
}

func (o BulkOptions) withDefaults() BulkOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// BulkResult counts the calls that succeeded and failed. Items in chunks
// after a failure are never attempted and are counted in neither.
type BulkResult struct {
	Succeeded int
	Failed    int
	Err       error
}

// BulkOutcome is the caller-facing summary of a bulk operation.
type BulkOutcome struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func outcome(requested int, r BulkResult) *BulkOutcome {
	return &BulkOutcome{Requested: requested, Succeeded: r.Succeeded, Failed: requested - r.Succeeded}
}

// RunChunked calls fn for item indexes 0..n-1 in chunks of opts.ChunkSize,
// running at most opts.Concurrency calls of a chunk at once. Each chunk is
// finished before the next starts. The first error cancels the rest of its
// chunk and stops the run; there is no retry and no rollback.
func RunChunked(ctx context.Context, n int, opts BulkOptions, fn func(ctx context.Context, i int) error) BulkResult {
	opts = opts.withDefaults()
	var succeeded, failed atomic.Int64

	for start := 0; start < n; start += opts.ChunkSize {
		if err := ctx.Err(); err != nil {
			return BulkResult{Succeeded: int(succeeded.Load()), Failed: int(failed.Load()), Err: err}
		}
		end := min(start+opts.ChunkSize, n)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for i := start; i < end; i++ {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				// queued behind a failure
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(gctx, i); err != nil {
					failed.Add(1)
					return err
				}
				succeeded.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return BulkResult{Succeeded: int(succeeded.Load()), Failed: int(failed.Load()), Err: err}
		}
	}
	return BulkResult{Succeeded: int(succeeded.Load()), Failed: int(failed.Load())}
}
