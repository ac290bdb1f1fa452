package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Job produces one Result. Jobs passed to RunParallel must not share
// mutable state.
type Job func() (*Result, error)

// RunParallel runs jobs concurrently, at most GOMAXPROCS at a time, and
// returns their results in input order. The first error cancels the jobs
// that have not started yet.
func RunParallel(ctx context.Context, jobs ...Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for i, job := range jobs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := job()
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
