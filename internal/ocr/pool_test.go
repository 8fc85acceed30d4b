package ocr

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClient struct {
	closed atomic.Int32
}

func (c *fakeClient) Close() error {
	c.closed.Add(1)
	return nil
}

func TestClientPool_AcquireRelease(t *testing.T) {
	p := newClientPool[*fakeClient](1)
	c := &fakeClient{}
	p.add(c)

	got, err := p.acquire(context.Background())
	if err != nil || got != c {
		t.Fatalf("acquire = %v, %v", got, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("acquire on an empty pool = %v, want deadline exceeded", err)
	}

	p.release(c)
	if got, err := p.acquire(context.Background()); err != nil || got != c {
		t.Errorf("acquire after release = %v, %v", got, err)
	}
	if n := c.closed.Load(); n != 0 {
		t.Errorf("client closed %d times while the pool is open", n)
	}
}

func TestClientPool_ReleaseAfterClose(t *testing.T) {
	p := newClientPool[*fakeClient](2)
	idle, busy := &fakeClient{}, &fakeClient{}
	p.add(idle)
	p.add(busy)

	held, err := p.acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	other := idle
	if held == idle {
		other = busy
	}

	if err := p.close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if n := other.closed.Load(); n != 1 {
		t.Errorf("idle client closed %d times, want 1", n)
	}
	if n := held.closed.Load(); n != 0 {
		t.Errorf("held client closed %d times before release", n)
	}

	p.release(held)
	if n := held.closed.Load(); n != 1 {
		t.Errorf("held client closed %d times after release, want 1", n)
	}
	if err := p.close(); err != nil {
		t.Errorf("second close = %v", err)
	}
}

func TestClientPool_CloseWakesWaiters(t *testing.T) {
	p := newClientPool[*fakeClient](1)

	errc := make(chan error, 1)
	go func() {
		_, err := p.acquire(context.Background())
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	p.close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrEngineClosed) {
			t.Errorf("acquire = %v, want ErrEngineClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("acquire did not return after close")
	}

	if _, err := p.acquire(context.Background()); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("acquire after close = %v, want ErrEngineClosed", err)
	}
}
