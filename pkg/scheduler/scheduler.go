package scheduler

import (
	"context"
	"sync"
	"time"

	"AprSight/pkg/logger"
)

// TaskFunc is a unit of periodic work. Errors are logged, not fatal.
type TaskFunc func(ctx context.Context) error

// Periodic runs a named task on a fixed interval until stopped.
// The first run fires after one full interval unless Immediate is set.
type Periodic struct {
	name      string
	interval  time.Duration
	immediate bool
	task      TaskFunc
	logger    *logger.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures Periodic.
type Option func(*Periodic)

// WithImmediate makes the task run once right after Start.
func WithImmediate() Option {
	return func(p *Periodic) {
		p.immediate = true
	}
}

// NewPeriodic creates a periodic task runner.
func NewPeriodic(name string, interval time.Duration, task TaskFunc, lgr *logger.Logger, opts ...Option) *Periodic {
	p := &Periodic{
		name:     name,
		interval: interval,
		task:     task,
		logger:   lgr,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the task name.
func (p *Periodic) Name() string {
	return p.name
}

// Start launches the run loop in a goroutine.
func (p *Periodic) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop signals the loop to exit and waits for the in-flight run to finish.
func (p *Periodic) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}

func (p *Periodic) run() {
	defer p.wg.Done()

	if p.immediate {
		p.runOnce()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.runOnce()
		}
	}
}

// runOnce executes the task with panic recovery so one bad cycle
// cannot kill the loop.
func (p *Periodic) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Error("periodic task panicked",
					logger.String("task", p.name),
					logger.Any("panic", r))
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the task context as soon as a stop is requested so
	// long-running cycles shut down promptly.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-done:
		}
	}()

	start := time.Now()
	if err := p.task(ctx); err != nil {
		if p.logger != nil {
			p.logger.Error("periodic task failed",
				logger.String("task", p.name),
				logger.Duration("elapsed", time.Since(start)),
				logger.Error(err))
		}
		return
	}

	if p.logger != nil {
		p.logger.Debug("periodic task completed",
			logger.String("task", p.name),
			logger.Duration("elapsed", time.Since(start)))
	}
}

// Group manages a set of periodic tasks with a shared lifecycle.
type Group struct {
	tasks []*Periodic
}

// NewGroup creates an empty task group.
func NewGroup() *Group {
	return &Group{}
}

// Add registers a task with the group.
func (g *Group) Add(p *Periodic) {
	g.tasks = append(g.tasks, p)
}

// Start starts all tasks.
func (g *Group) Start() {
	for _, t := range g.tasks {
		t.Start()
	}
}

// Stop stops all tasks and waits for them to finish.
func (g *Group) Stop() {
	for _, t := range g.tasks {
		t.Stop()
	}
}
