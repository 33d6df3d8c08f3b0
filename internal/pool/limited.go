package pool

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/AlexYaroshenko/scryfallbot/internal/search"
)

// Limited shares one backend among at most n concurrent holders. It serves
// backends that are safe for concurrent use but should not be hammered, such
// as an HTTP client or a single-file database.
type Limited struct {
	backend search.Backend
	sem     *semaphore.Weighted
	close   func() error
}

var _ Source = (*Limited)(nil)

// NewLimited wraps b. closeFn, if not nil, runs on Close. n below 1 means 1.
func NewLimited(b search.Backend, n int, closeFn func() error) *Limited {
	if n < 1 {
		n = 1
	}
	return &Limited{
		backend: b,
		sem:     semaphore.NewWeighted(int64(n)),
		close:   closeFn,
	}
}

// Acquire waits for a free slot.
func (l *Limited) Acquire(ctx context.Context) (search.Backend, func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	return l.backend, func() { l.sem.Release(1) }, nil
}

func (l *Limited) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}
