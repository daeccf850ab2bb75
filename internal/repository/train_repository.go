package repository

import (
	"log"
	"sync"

	"github.com/iliyamo/railway-reservation/internal/model"
)

// TrainRepo is the seat inventory store.  It is the single source of truth
// for train schedules and remaining seat counts.  All seat mutations go
// through AdjustSeats; callers never receive references into the internal
// slice, only copies.
type TrainRepo struct {
	mu     sync.RWMutex
	path   string
	trains []model.Train
}

// NewTrainRepo loads the train record file at path.  Corrupted lines are
// skipped with a warning so one damaged record never blocks the rest.
func NewTrainRepo(path string) (*TrainRepo, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	r := &TrainRepo{path: path}
	for _, line := range lines {
		t, err := model.ParseTrain(line)
		if err != nil {
			log.Printf("train-store: skipping corrupted entry %q: %v", line, err)
			continue
		}
		r.trains = append(r.trains, t)
	}
	return r, nil
}

// GetByID returns a copy of the train with the given ID.
func (r *TrainRepo) GetByID(id string) (model.Train, error) {
	id = model.NormalizeTrainID(id)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.trains {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Train{}, ErrTrainNotFound
}

// List returns a snapshot of all trains in file order.
func (r *TrainRepo) List() []model.Train {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Train, len(r.trains))
	copy(out, r.trains)
	return out
}

// AdjustSeats atomically applies delta to a train's available-seat count and
// persists the result before returning the updated train.  A delta that
// would drive the count negative fails with ErrInvalidAdjustment and leaves
// the store untouched.
func (r *TrainRepo) AdjustSeats(id string, delta int) (model.Train, error) {
	id = model.NormalizeTrainID(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.trains {
		if t.ID != id {
			continue
		}
		next := t.Seats + delta
		if next < 0 {
			return model.Train{}, ErrInvalidAdjustment
		}
		updated := t
		updated.Seats = next
		if err := r.persistWith(i, updated); err != nil {
			return model.Train{}, err
		}
		r.trains[i] = updated
		return updated, nil
	}
	return model.Train{}, ErrTrainNotFound
}

// Create adds a new train record.
func (r *TrainRepo) Create(t model.Train) error {
	t.ID = model.NormalizeTrainID(t.ID)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.trains {
		if existing.ID == t.ID {
			return ErrTrainExists
		}
	}
	next := append(append([]model.Train{}, r.trains...), t)
	if err := r.persist(next); err != nil {
		return err
	}
	r.trains = next
	return nil
}

// Update replaces the record with the same ID.
func (r *TrainRepo) Update(t model.Train) error {
	t.ID = model.NormalizeTrainID(t.ID)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.trains {
		if existing.ID == t.ID {
			if err := r.persistWith(i, t); err != nil {
				return err
			}
			r.trains[i] = t
			return nil
		}
	}
	return ErrTrainNotFound
}

// Delete removes the record with the given ID.
func (r *TrainRepo) Delete(id string) error {
	id = model.NormalizeTrainID(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.trains {
		if existing.ID == id {
			next := append(append([]model.Train{}, r.trains[:i]...), r.trains[i+1:]...)
			if err := r.persist(next); err != nil {
				return err
			}
			r.trains = next
			return nil
		}
	}
	return ErrTrainNotFound
}

// persistWith writes the current records with index i replaced by t, without
// mutating memory until the file write has succeeded.
func (r *TrainRepo) persistWith(i int, t model.Train) error {
	lines := make([]string, len(r.trains))
	for j, existing := range r.trains {
		if j == i {
			lines[j] = t.CSV()
		} else {
			lines[j] = existing.CSV()
		}
	}
	return writeLines(r.path, lines)
}

func (r *TrainRepo) persist(trains []model.Train) error {
	lines := make([]string, len(trains))
	for i, t := range trains {
		lines[i] = t.CSV()
	}
	return writeLines(r.path, lines)
}
