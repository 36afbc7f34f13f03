package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/kermarrec/hgtpipe/internal/domain"
	"github.com/kermarrec/hgtpipe/internal/infra/logger"
)

// Progress is the counter snapshot handed to a handler together with
// the item it is about to process.
type Progress struct {
	Current int
	Max     int
}

func (p Progress) String() string {
	return fmt.Sprintf("%d/%d", p.Current, p.Max)
}

// Handler processes a single work item of a pipeline stage. An error
// return stops the whole pool. The context is cancelled when the pool's
// stop signal fires, so long-running handlers can bail out mid-item.
type Handler[T any] interface {
	Process(ctx context.Context, item T, prog Progress) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc[T any] func(ctx context.Context, item T, prog Progress) error

func (f HandlerFunc[T]) Process(ctx context.Context, item T, prog Progress) error {
	return f(ctx, item, prog)
}

// Pool runs a fixed number of workers over a queue of stage items.
// The queue is filled exactly once before Run; workers drain it until
// it is empty or the shared stop signal is set. The first worker error
// trips the signal and Run reports a single aggregate failure.
type Pool[T any] struct {
	name    string
	size    int
	handler Handler[T]
	log     *logger.Logger

	queue   chan T
	counter *Counter
	signal  *Signal
	filled  bool
}

// New creates a pool of size workers for one pipeline stage. The name
// tags log lines and the aggregate error.
func New[T any](name string, handler Handler[T], size int, log *logger.Logger) (*Pool[T], error) {
	if size < 1 {
		return nil, fmt.Errorf("pool %s: size must be >= 1, got %d", name, size)
	}
	return &Pool[T]{
		name:    name,
		size:    size,
		handler: handler,
		log:     log,
		counter: &Counter{},
		signal:  NewSignal(),
	}, nil
}

// Counter exposes the pool's progress counter.
func (p *Pool[T]) Counter() *Counter {
	return p.counter
}

// Signal exposes the pool's stop signal.
func (p *Pool[T]) Signal() *Signal {
	return p.signal
}

// Fill seeds the queue with every item. Must be called exactly once,
// before Run; there is no replenishment while workers run, so an empty
// queue is a genuine completion signal rather than a wait condition.
func (p *Pool[T]) Fill(items []T) {
	if p.filled {
		panic("pipeline: Fill called twice")
	}
	p.filled = true

	p.queue = make(chan T, len(items))
	for _, item := range items {
		p.queue <- item
	}
	close(p.queue)
	p.counter.SetMax(len(items))
	p.log.Debug("%s pool: queue filled with %d items", p.name, len(items))
}

// Run starts the workers and blocks until the queue is drained or the
// stop signal is set. On cancellation of ctx it sets the signal, still
// waits for every worker to finish its current item, and returns the
// context error so callers can tell an interruption from a failure.
// If any worker failed, Run returns domain.ErrPipelineFailed exactly
// once, wrapped with the stage name.
func (p *Pool[T]) Run(ctx context.Context) error {
	if !p.filled {
		return fmt.Errorf("pool %s: Run called before Fill", p.name)
	}

	// Handlers observe the stop signal through their context.
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.signal.Done():
			cancel()
		case <-workCtx.Done():
		}
	}()

	var wg sync.WaitGroup
	for i := 1; i <= p.size; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.worker(workCtx, id)
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// User abort: stop the pool, then wait for every worker to
		// observe the signal and exit cleanly. Workers are never
		// abandoned mid-item.
		p.signal.Set()
		<-done
		return ctx.Err()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if p.signal.IsSet() {
		return fmt.Errorf("%s: %w", p.name, domain.ErrPipelineFailed)
	}
	return nil
}

// worker drains the queue until it is empty or the stop signal is set.
// A handler error is logged here, converted into the shared signal and
// never allowed to crash the process.
func (p *Pool[T]) worker(ctx context.Context, id int) {
	p.log.Debug("%s worker %d started", p.name, id)
	defer p.log.Debug("%s worker %d stopped", p.name, id)

	for {
		if p.signal.IsSet() {
			return
		}

		var item T
		var ok bool
		select {
		case item, ok = <-p.queue:
			if !ok {
				return
			}
		case <-p.signal.Done():
			return
		}

		cur, max := p.counter.Increment()
		if err := p.handler.Process(ctx, item, Progress{Current: cur, Max: max}); err != nil {
			p.log.Error("%s worker %d: %v", p.name, id, err)
			p.signal.Set()
			return
		}
	}
}
