package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// hook pairs a start callback with the stop callback that undoes it. Either
// may be nil.
type hook struct {
	name  string
	start func(context.Context) error
	stop  func(context.Context) error
}

// Lifecycle manages the startup and shutdown of platform components.
type Lifecycle struct {
	mu      sync.Mutex
	hooks   []hook
	started int // number of hooks whose start has run
	logger  *slog.Logger
}

// NewLifecycle creates a new lifecycle manager.
func NewLifecycle(logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{logger: logger}
}

// Append registers a named component. Start callbacks run in registration
// order; stop callbacks run in reverse.
func (l *Lifecycle) Append(name string, start, stop func(context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook{name: name, start: start, stop: stop})
}

// Closer is something that can be closed.
type Closer interface {
	Close() error
}

// AppendCloser registers c to be closed on shutdown.
func (l *Lifecycle) AppendCloser(name string, c Closer) {
	l.Append(name, nil, func(context.Context) error { return c.Close() })
}

// Start runs start callbacks not yet run. When one fails, the components
// already started are stopped in reverse order.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.started < len(l.hooks) {
		h := l.hooks[l.started]
		if h.start != nil {
			if err := h.start(ctx); err != nil {
				_ = l.stopLocked(ctx)
				return fmt.Errorf("starting %s: %w", h.name, err)
			}
		}
		l.started++
	}
	return nil
}

// Stop runs stop callbacks in reverse order. Components with a start
// callback are only stopped once started; closers always run.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopLocked(ctx)
}

func (l *Lifecycle) stopLocked(ctx context.Context) error {
	var errs []error
	for i := len(l.hooks) - 1; i >= 0; i-- {
		h := l.hooks[i]
		if h.stop == nil || (i >= l.started && h.start != nil) {
			continue
		}
		if err := h.stop(ctx); err != nil {
			l.logger.Warn("lifecycle stop failed", "component", h.name, "error", err)
			errs = append(errs, fmt.Errorf("stopping %s: %w", h.name, err))
		}
	}
	l.started = 0
	l.hooks = l.hooks[:0]
	return errors.Join(errs...)
}

// Started reports how many components are running.
func (l *Lifecycle) Started() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}
