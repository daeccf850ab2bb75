package repository

import (
	"log"
	"strings"
	"sync"

	"github.com/iliyamo/railway-reservation/internal/model"
)

// TicketRepo is the reservation ledger.  It holds every live confirmed
// ticket keyed by PNR.  PNRs and owner emails are compared
// case-insensitively, matching how they are entered by users.
type TicketRepo struct {
	mu      sync.RWMutex
	path    string
	tickets []model.Ticket
}

// NewTicketRepo loads the ticket record file at path.  Corrupted lines are
// skipped with a warning; a single damaged record never blocks access to
// the rest of the ledger.
func NewTicketRepo(path string) (*TicketRepo, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	r := &TicketRepo{path: path}
	for _, line := range lines {
		t, err := model.ParseTicket(line)
		if err != nil {
			log.Printf("ticket-store: skipping corrupted entry %q: %v", line, err)
			continue
		}
		r.tickets = append(r.tickets, t)
	}
	return r, nil
}

// Create appends a new ticket, rejecting a PNR already held by a live
// ticket.  The duplicate check runs under the same lock as the insert, so
// it holds even when the PNR was allocated against a stale snapshot.
func (r *TicketRepo) Create(t model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tickets {
		if strings.EqualFold(existing.PNR, t.PNR) {
			return ErrDuplicatePNR
		}
	}
	next := append(append([]model.Ticket{}, r.tickets...), t)
	if err := r.persist(next); err != nil {
		return err
	}
	r.tickets = next
	return nil
}

// Remove deletes and returns the ticket with the given PNR, but only when
// ownerEmail matches the stored owner (case-insensitively).  Unknown PNR and
// ownership mismatch are both reported as ErrTicketNotFound so the outcome
// does not disclose whether someone else's ticket exists.
func (r *TicketRepo) Remove(pnr, ownerEmail string) (model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tickets {
		if strings.EqualFold(t.PNR, pnr) && strings.EqualFold(t.UserEmail, ownerEmail) {
			next := append(append([]model.Ticket{}, r.tickets[:i]...), r.tickets[i+1:]...)
			if err := r.persist(next); err != nil {
				return model.Ticket{}, err
			}
			r.tickets = next
			return t, nil
		}
	}
	return model.Ticket{}, ErrTicketNotFound
}

// FindByPNR returns the ticket with the given PNR.
func (r *TicketRepo) FindByPNR(pnr string) (model.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tickets {
		if strings.EqualFold(t.PNR, pnr) {
			return t, nil
		}
	}
	return model.Ticket{}, ErrTicketNotFound
}

// FindByOwner returns every ticket booked by the given email.
func (r *TicketRepo) FindByOwner(ownerEmail string) []model.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Ticket
	for _, t := range r.tickets {
		if strings.EqualFold(t.UserEmail, ownerEmail) {
			out = append(out, t)
		}
	}
	return out
}

// All returns a snapshot of every live ticket.
func (r *TicketRepo) All() []model.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Ticket, len(r.tickets))
	copy(out, r.tickets)
	return out
}

// CountByTrain returns the number of live tickets per train ID.  Used by
// the admin occupancy report.
func (r *TicketRepo) CountByTrain() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, t := range r.tickets {
		counts[t.TrainID]++
	}
	return counts
}

func (r *TicketRepo) persist(tickets []model.Ticket) error {
	lines := make([]string, len(tickets))
	for i, t := range tickets {
		lines[i] = t.CSV()
	}
	return writeLines(r.path, lines)
}
