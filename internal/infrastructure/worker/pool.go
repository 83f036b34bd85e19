package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
)

// OverflowPolicy decides what Submit does when every worker is busy.
type OverflowPolicy string

const (
	// OverflowDrop rejects the task immediately.
	OverflowDrop OverflowPolicy = "drop"
	// OverflowBlock waits for a free worker.
	OverflowBlock OverflowPolicy = "block"
)

// Pool is a bounded background task runner. Tasks receive the pool context,
// which is cancelled when the pool shuts down, never the submitter's request
// context.
type Pool struct {
	name   string
	policy OverflowPolicy
	logger *logrus.Logger

	g      errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

var _ ports.TaskRunner = (*Pool)(nil)

func NewPool(name string, workers int, policy OverflowPolicy, logger *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if policy == "" {
		policy = OverflowDrop
	}
	if logger == nil {
		logger = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{name: name, policy: policy, logger: logger, ctx: ctx, cancel: cancel}
	p.g.SetLimit(workers)
	return p
}

// Submit implements TaskRunner.Submit. It returns false when the task was not
// scheduled, either because the pool is closed or because it is saturated
// under the drop policy.
func (p *Pool) Submit(name string, task func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	run := func() error {
		p.run(name, task)
		return nil
	}
	if p.policy == OverflowBlock {
		p.g.Go(run)
		return true
	}
	if !p.g.TryGo(run) {
		p.logger.WithFields(logrus.Fields{"pool": p.name, "task": name}).Warn("worker pool saturated, task dropped")
		return false
	}
	return true
}

func (p *Pool) run(name string, task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"pool":  p.name,
				"task":  name,
				"panic": fmt.Sprint(r),
			}).Error("background task panicked")
		}
	}()
	task(p.ctx)
}

// Close cancels the pool context, stops accepting work and waits for running
// tasks until ctx is done.
func (p *Pool) Close(ctx context.Context) error {
	p.cancel()
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = p.g.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool %s: %w", p.name, ctx.Err())
	}
}
