package ocr

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// clientPool hands out warm engine clients, one prediction at a time each.
//
// A client released after close is closed on the spot, so a prediction that
// outlives its caller's deadline still frees its client when it finishes.
type clientPool[C io.Closer] struct {
	mu     sync.Mutex
	closed bool
	done   chan struct{}
	idle   chan C
}

func newClientPool[C io.Closer](size int) *clientPool[C] {
	return &clientPool[C]{
		done: make(chan struct{}),
		idle: make(chan C, size),
	}
}

// add puts a new client in the pool. It must not be called more times than
// the pool's size.
func (p *clientPool[C]) add(c C) {
	p.idle <- c
}

// acquire waits for an idle client.
func (p *clientPool[C]) acquire(ctx context.Context) (C, error) {
	var zero C
	select {
	case <-p.done:
		return zero, ErrEngineClosed
	default:
	}

	select {
	case c := <-p.idle:
		return c, nil
	case <-p.done:
		return zero, ErrEngineClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// release returns c to the pool, or closes it when the pool is closed.
func (p *clientPool[C]) release(c C) {
	p.mu.Lock()
	if !p.closed {
		p.idle <- c
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	c.Close()
}

// close closes every idle client. Clients still in use are closed when they
// are released.
func (p *clientPool[C]) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	var firstErr error
	for {
		select {
		case c := <-p.idle:
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to close client: %w", err)
			}
		default:
			return firstErr
		}
	}
}
