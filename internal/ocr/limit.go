package ocr

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// limited bounds the number of concurrent predictions on an engine.
type limited struct {
	Engine
	sem     *semaphore.Weighted
	workers int
}

// Limit wraps e so that at most n predictions run at once. Callers waiting
// for a slot give up when their context ends. n below 1 is treated as 1.
func Limit(e Engine, n int) Engine {
	n = max(n, 1)
	return &limited{Engine: e, sem: semaphore.NewWeighted(int64(n)), workers: n}
}

func (l *limited) Predict(ctx context.Context, in Input) (any, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.Engine.Predict(ctx, in)
}

func (l *limited) Info() Info {
	info := l.Engine.Info()
	info.Workers = l.workers
	return info
}
