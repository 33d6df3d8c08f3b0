// Package pool hands out backend connections to concurrent invocations.
//
// A Manager is initialized once per process. Each Checkout waits at most the
// configured time for a free slot and returns a Lease that must be released
// on every exit path.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
	"github.com/AlexYaroshenko/scryfallbot/internal/search"
)

// DefaultCheckoutTimeout bounds Checkout when Manager.CheckoutTimeout is 0.
const DefaultCheckoutTimeout = 5 * time.Second

// Source produces backends. Acquire blocks until one is free or ctx is done.
type Source interface {
	Acquire(ctx context.Context) (b search.Backend, release func(), err error)
	Close() error
}

// Opener builds the Source during Initialize.
type Opener func(ctx context.Context) (Source, error)

// Manager is the process-wide pool. The zero value is ready for Initialize.
type Manager struct {
	CheckoutTimeout time.Duration

	mu          sync.RWMutex
	initialized bool
	source      Source
}

// Initialize runs open exactly once. Later calls fail with
// errs.ErrAlreadyInitialized and do not run their opener, even when the
// first attempt failed.
func (m *Manager) Initialize(ctx context.Context, open Opener) error {
	const op = "pool.Initialize"
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return errs.Pool(errs.ReasonAlreadyInitialized, op, nil)
	}
	m.initialized = true

	src, err := open(ctx)
	if err != nil {
		var e *errs.Error
		if errors.As(err, &e) {
			return err
		}
		return errs.Pool(errs.ReasonNone, op, err)
	}
	m.source = src
	return nil
}

// Checkout takes one backend from the pool.
func (m *Manager) Checkout(ctx context.Context) (*Lease, error) {
	const op = "pool.Checkout"
	m.mu.RLock()
	src := m.source
	m.mu.RUnlock()
	if src == nil {
		return nil, errs.Pool(errs.ReasonPoolNotInitialized, op, nil)
	}

	timeout := m.CheckoutTimeout
	if timeout <= 0 {
		timeout = DefaultCheckoutTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	b, release, err := src.Acquire(waitCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, errs.Pool(errs.ReasonPoolTimeout, op, fmt.Errorf("no backend free after %v", timeout))
		}
		if ctx.Err() != nil {
			return nil, errs.Pool(errs.ReasonNone, op, ctx.Err())
		}
		return nil, errs.Pool(errs.ReasonNone, op, err)
	}
	slog.DebugContext(ctx, "pool.Checkout", "waited", time.Since(start))
	return &Lease{Backend: b, release: release}, nil
}

// With checks out a backend for the duration of fn.
func (m *Manager) With(ctx context.Context, fn func(search.Backend) error) error {
	lease, err := m.Checkout(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()
	return fn(lease)
}

// Close tears down the source. Checkouts after Close fail as if the manager
// was never initialized.
func (m *Manager) Close() error {
	m.mu.Lock()
	src := m.source
	m.source = nil
	m.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.Close()
}

// Lease is a checked-out backend.
type Lease struct {
	search.Backend

	once    sync.Once
	release func()
}

// Release returns the backend. Calls after the first do nothing.
func (l *Lease) Release() {
	l.once.Do(func() {
		if l.release != nil {
			l.release()
		}
	})
}
