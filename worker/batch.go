// Package worker runs independent per-item work across a bounded number of
// goroutines and hands results back in input order.
//
// Example usage:
//
//	results := worker.Map(ctx, 4, refs, func(ctx context.Context, ref reference.Reference) (Entry, error) {
//	    return resolveEntry(ctx, ref)
//	})
//	for _, r := range results {
//	    if r.Err != nil {
//	        // Handle error
//	    }
//	    // Use r.Value
//	}
package worker

import (
	"context"
	"sync"
)

// Func processes one item.
type Func[I, O any] func(ctx context.Context, item I) (O, error)

// Result is the outcome of one item. Index is the item's input position.
type Result[O any] struct {
	Index int
	Value O
	Err   error
}

// Map applies fn to every item using at most workers goroutines and returns
// one result per item, in input order. workers <= 1 runs sequentially.
// Items not started before ctx is cancelled carry ctx.Err().
func Map[I, O any](ctx context.Context, workers int, items []I, fn Func[I, O]) []Result[O] {
	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results
	}

	if workers <= 1 || len(items) <= 2 {
		mapSequential(ctx, items, fn, results)
		return results
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int, len(items))
	resultsChan := make(chan Result[O], len(items))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					resultsChan <- Result[O]{Index: i, Err: err}
					continue
				}
				v, err := fn(ctx, items[i])
				resultsChan <- Result[O]{Index: i, Value: v, Err: err}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for r := range resultsChan {
		results[r.Index] = r
	}
	return results
}

func mapSequential[I, O any](ctx context.Context, items []I, fn Func[I, O], results []Result[O]) {
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			results[i] = Result[O]{Index: i, Err: err}
			continue
		}
		v, err := fn(ctx, item)
		results[i] = Result[O]{Index: i, Value: v, Err: err}
	}
}
