// Package lockpkg provides a registry of per-account locks with bounded,
// cancellable acquisition.
package lockpkg

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrTimeout indicates that the locks were not acquired within the registry bound.
var ErrTimeout = errors.New("lock acquisition timed out")

// Registry hands out one lock per account id so that callers can serialize
// mutations on individual accounts and account pairs.
//
// Locks are channel based: acquisition blocks in a select and therefore
// honors both caller cancellation and the registry timeout instead of
// spinning or blocking indefinitely.
type Registry struct {
	timeout time.Duration

	mu    sync.Mutex
	locks map[int32]chan struct{}
}

// NewRegistry returns a Registry whose Acquire calls give up after timeout.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		timeout: timeout,
		locks:   make(map[int32]chan struct{}),
	}
}

func (r *Registry) lock(id int32) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		r.locks[id] = l
	}

	return l
}

// Acquire locks every given account id and returns a release function.
//
// Ids are always locked in ascending order so that two callers locking the
// same pair in opposite directions cannot deadlock. Duplicate ids are locked
// once. On ctx cancellation or timeout all partially acquired locks are
// released and no lock is held.
func (r *Registry) Acquire(ctx context.Context, ids ...int32) (func(), error) {
	sorted := make([]int32, 0, len(ids))

	for _, id := range ids {
		var seen bool

		for _, s := range sorted {
			if s == id {
				seen = true
				break
			}
		}

		if !seen {
			sorted = append(sorted, id)
		}
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	acquired := make([]chan struct{}, 0, len(sorted))

	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i]
		}
	}

	for _, id := range sorted {
		l := r.lock(id)

		select {
		case l <- struct{}{}:
			acquired = append(acquired, l)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		case <-timer.C:
			release()
			return nil, ErrTimeout
		}
	}

	return release, nil
}
