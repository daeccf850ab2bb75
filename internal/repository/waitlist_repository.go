package repository

import (
	"log"
	"sync"

	"github.com/iliyamo/railway-reservation/internal/model"
)

// WaitlistRepo holds the ordered backlog of booking requests that found no
// free seats.  Entries are partitioned by train ID and served strictly
// first-in-first-out per train; file order is the enqueue order.  Nothing
// reorders or drops entries except DequeueFirst.
type WaitlistRepo struct {
	mu      sync.RWMutex
	path    string
	entries []model.WaitlistEntry
}

// NewWaitlistRepo loads the waitlist record file at path.  Corrupted lines
// are skipped with a warning.
func NewWaitlistRepo(path string) (*WaitlistRepo, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	r := &WaitlistRepo{path: path}
	for _, line := range lines {
		e, err := model.ParseWaitlistEntry(line)
		if err != nil {
			log.Printf("waitlist-store: skipping corrupted entry %q: %v", line, err)
			continue
		}
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Enqueue appends an entry to the tail of its train's backlog.
func (r *WaitlistRepo) Enqueue(e model.WaitlistEntry) error {
	e.TrainID = model.NormalizeTrainID(e.TrainID)
	r.mu.Lock()
	defer r.mu.Unlock()
	next := append(append([]model.WaitlistEntry{}, r.entries...), e)
	if err := r.persist(next); err != nil {
		return err
	}
	r.entries = next
	return nil
}

// DequeueFirst removes and returns the oldest entry for the given train.
// Entries for other trains keep their positions and relative order.  When
// the train has no backlog, ErrWaitlistEmpty is returned.
func (r *WaitlistRepo) DequeueFirst(trainID string) (model.WaitlistEntry, error) {
	trainID = model.NormalizeTrainID(trainID)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.TrainID != trainID {
			continue
		}
		next := append(append([]model.WaitlistEntry{}, r.entries[:i]...), r.entries[i+1:]...)
		if err := r.persist(next); err != nil {
			return model.WaitlistEntry{}, err
		}
		r.entries = next
		return e, nil
	}
	return model.WaitlistEntry{}, ErrWaitlistEmpty
}

// RequeueFront reinserts an entry at the head of the backlog.  Used when a
// promotion fails after the entry was already dequeued, so the entry keeps
// its turn instead of being lost or demoted.
func (r *WaitlistRepo) RequeueFront(e model.WaitlistEntry) error {
	e.TrainID = model.NormalizeTrainID(e.TrainID)
	r.mu.Lock()
	defer r.mu.Unlock()
	next := append([]model.WaitlistEntry{e}, r.entries...)
	if err := r.persist(next); err != nil {
		return err
	}
	r.entries = next
	return nil
}

// All returns a snapshot of every entry in enqueue order.
func (r *WaitlistRepo) All() []model.WaitlistEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.WaitlistEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// CountByTrain returns the backlog length for the given train.
func (r *WaitlistRepo) CountByTrain(trainID string) int {
	trainID = model.NormalizeTrainID(trainID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.TrainID == trainID {
			n++
		}
	}
	return n
}

func (r *WaitlistRepo) persist(entries []model.WaitlistEntry) error {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.CSV()
	}
	return writeLines(r.path, lines)
}
