package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// SessionReader is the part of the session store the router needs.
type SessionReader interface {
	Complete(ctx context.Context) (bool, error)
}

// Observer is called after every completed navigation.
type Observer func(from, to string)

// Router tracks the current route and applies the Guard to every navigation.
type Router struct {
	guard    Guard
	sessions SessionReader
	logger   *slog.Logger

	mu        sync.Mutex
	current   string
	observers []Observer
}

// New creates a Router positioned at the guard's landing route.
func New(guard Guard, sessions SessionReader, logger *slog.Logger) *Router {
	return &Router{
		guard:    guard,
		sessions: sessions,
		logger:   logger.With("component", "router"),
		current:  guard.Landing,
	}
}

// Landing returns the unauthenticated landing route.
func (r *Router) Landing() string { return r.guard.Landing }

// Current returns the current route.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Observe registers fn to run after each navigation.
func (r *Router) Observe(fn Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Navigate evaluates target against the session and moves to the resulting
// route. Redirects are silent; they are logged at debug level only.
func (r *Router) Navigate(ctx context.Context, target string) (Decision, error) {
	complete, err := r.sessions.Complete(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("navigate %s: %w", target, err)
	}
	d := r.guard.Evaluate(target, complete)
	if !d.Allowed {
		r.logger.Debug("navigation redirected", "requested", target, "target", d.Target)
	}

	r.mu.Lock()
	from := r.current
	r.current = d.Target
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(from, d.Target)
	}
	return d, nil
}
