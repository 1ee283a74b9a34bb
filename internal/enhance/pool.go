package enhance

import (
	"context"
	"sync"
)

// Pool is a long-lived fixed-size worker pool. One pool is shared across all
// frame batches of a playback session rather than being created and torn
// down every second.
type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
	size int
}

// NewPool starts size workers.
func NewPool(size int) *Pool {
	p := &Pool{
		jobs: make(chan func()),
		size: size,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
	}
}

// Size returns the worker count.
func (p *Pool) Size() int { return p.size }

// Close stops the workers after in-flight jobs finish. The pool must not be
// used afterwards.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// MapOrdered runs fn over every item on the pool and returns the results in
// input order regardless of completion order. The first error cancels the
// remaining work and fails the whole map.
func MapOrdered[I, O any](ctx context.Context, p *Pool, items []I, fn func(context.Context, int, I) (O, error)) ([]O, error) {
	out := make([]O, len(items))
	mctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i := range items {
		i := i
		wg.Add(1)
		job := func() {
			defer wg.Done()
			if mctx.Err() != nil {
				return
			}
			v, err := fn(mctx, i, items[i])
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			out[i] = v
		}
		select {
		case p.jobs <- job:
		case <-mctx.Done():
			wg.Done()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
