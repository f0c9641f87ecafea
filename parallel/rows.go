package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Rows calls fn for every y in [0, height), fanning out over at most
// numWorkers goroutines (GOMAXPROCS when numWorkers < 1). fn must only touch
// state owned by row y. The first error is returned once all calls finish.
func Rows(height, numWorkers int, fn func(y int) error) error {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	if numWorkers == 1 || height < 2 {
		for y := range height {
			if err := fn(y); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(numWorkers)
	for y := range height {
		g.Go(func() error {
			return fn(y)
		})
	}
	return g.Wait()
}
