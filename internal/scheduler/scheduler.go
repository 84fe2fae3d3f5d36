// Package scheduler runs a task on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"
)

type Task func(ctx context.Context)

// Scheduler runs one loop at a time. Ticks never overlap: a slow task delays the
// next tick and missed ticks are dropped.
type Scheduler struct {
	interval time.Duration
	task     Task

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, task Task) *Scheduler {
	return &Scheduler{interval: interval, task: task}
}

// Start stops the running loop, if any, and starts a new one bound to ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go s.loop(ctx, done)
}

// Stop cancels the loop and waits for a running task to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}

func (s *Scheduler) stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.task(ctx)
		}
	}
}
