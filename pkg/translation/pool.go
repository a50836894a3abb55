package translation

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

// runConcurrent runs each task with at most concurrency tasks in flight,
// via an ants worker pool, and returns the first error encountered (if
// any) after all tasks have finished. Grounded on the LLM/OCR pipelines'
// asyncio.Semaphore-bounded asyncio.gather pattern in original_source.
func runConcurrent(concurrency int, tasks []func() error) error {
	if len(tasks) == 0 {
		return nil
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, task := range tasks {
		wg.Add(1)
		t := task
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := t(); err != nil {
				recordErr(err)
			}
		})
		if submitErr != nil {
			wg.Done()
			recordErr(submitErr)
		}
	}

	wg.Wait()
	return firstErr
}
