package service

import (
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when the per-train critical section cannot be entered
// within the configured wait.  The condition is transient; callers should
// retry.
var ErrBusy = errors.New("train is busy, try again")

// trainLocks is a table of per-train critical sections.  Every mutating
// operation on a train (booking, cancellation, promotion) runs inside that
// train's lock; operations on different trains proceed in parallel.  Each
// lock is a one-slot channel so acquisition can carry a deadline.
type trainLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newTrainLocks() *trainLocks {
	return &trainLocks{locks: make(map[string]chan struct{})}
}

func (l *trainLocks) lockFor(trainID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[trainID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[trainID] = ch
	}
	return ch
}

// acquire enters the critical section for trainID, waiting at most wait.
// On success it returns the release function; on timeout it returns ErrBusy
// so the caller surfaces a retryable condition instead of hanging.
func (l *trainLocks) acquire(trainID string, wait time.Duration) (func(), error) {
	ch := l.lockFor(trainID)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	default:
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, ErrBusy
	}
}
