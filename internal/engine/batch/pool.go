// internal/engine/batch/pool.go
package batch

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// runPool calls fn for every index in [0, n) using the given number of
// workers. Every index is handed out even after ctx is cancelled so that
// each record still gets an outcome; fn is expected to return quickly on a
// done context.
func runPool(ctx context.Context, workers, n int, fn func(ctx context.Context, i int)) {
	if n == 0 {
		return
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go worker(ctx, w, jobs, fn, &wg)
	}
	wg.Wait()
}

// worker processes record indexes from the jobs channel
func worker(ctx context.Context, id int, jobs <-chan int, fn func(ctx context.Context, i int), wg *sync.WaitGroup) {
	defer wg.Done()

	log.Debug().Int("worker_id", id).Msg("Worker started")

	for i := range jobs {
		log.Debug().
			Int("worker_id", id).
			Int("record", i).
			Msg("Worker processing record")

		fn(ctx, i)
	}

	log.Debug().Int("worker_id", id).Msg("Worker finished")
}
