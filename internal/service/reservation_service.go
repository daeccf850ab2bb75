// Package service holds the reservation coordinator: the one place that
// mutates more than one store per operation and therefore owns the
// invariants spanning inventory, ledger and waitlist.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/railway-reservation/internal/model"
	q "github.com/iliyamo/railway-reservation/internal/queue"
	"github.com/iliyamo/railway-reservation/internal/repository"
)

// Booking outcomes.
const (
	StatusConfirmed  = "CONFIRMED"
	StatusWaitlisted = "WAITLISTED"
)

// ReservationService orchestrates booking, cancellation and waitlist
// promotion across the three stores.  It keeps no state of its own beyond
// the per-train lock table; every mutating sequence for a train — check
// availability, mutate inventory, mutate ledger/waitlist, decide promotion —
// runs inside that train's critical section so partial interleavings (two
// bookers both seeing one free seat) cannot happen.  Operations on
// different trains proceed fully in parallel.
type ReservationService struct {
	trains    *repository.TrainRepo
	tickets   *repository.TicketRepo
	waitlist  *repository.WaitlistRepo
	pnr       *PNRAllocator
	publisher EventPublisher
	locks     *trainLocks
	lockWait  time.Duration
}

// NewReservationService wires the coordinator to its stores and the
// notification sink.  lockWait bounds how long an operation waits for a
// train's critical section before failing with ErrBusy.
func NewReservationService(trains *repository.TrainRepo, tickets *repository.TicketRepo, waitlist *repository.WaitlistRepo, publisher EventPublisher, lockWait time.Duration) *ReservationService {
	if trains == nil || tickets == nil || waitlist == nil || publisher == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{
		trains:    trains,
		tickets:   tickets,
		waitlist:  waitlist,
		pnr:       NewPNRAllocator(),
		publisher: publisher,
		locks:     newTrainLocks(),
		lockWait:  lockWait,
	}
}

// BookRequest carries one booking attempt for a single passenger.
type BookRequest struct {
	TrainID       string
	PassengerName string
	PassengerAge  int
	TravelClass   string
	OwnerEmail    string
}

// BookResult reports the outcome of a booking.  Ticket is set only when
// Status is CONFIRMED; Train reflects the inventory state after the
// operation.
type BookResult struct {
	Status string
	Ticket *model.Ticket
	Train  model.Train
}

// CancelResult reports a successful cancellation.  Promoted is set when the
// freed seat went to the oldest waitlisted request for the train.
type CancelResult struct {
	Ticket   model.Ticket
	Promoted *model.Ticket
}

// Book reserves a seat on the requested train, or enqueues the request on
// the train's waitlist when no seats remain.  Ticket creation and the seat
// decrement are one logical unit: if the decrement fails the ticket is
// rolled back rather than left orphaned.  One ticket.booked event is
// emitted after a confirmed booking commits.
func (s *ReservationService) Book(ctx context.Context, req BookRequest) (BookResult, error) {
	trainID := model.NormalizeTrainID(req.TrainID)
	req.PassengerName = strings.TrimSpace(req.PassengerName)
	if err := model.ValidatePassenger(req.PassengerName, req.PassengerAge, req.TravelClass); err != nil {
		return BookResult{}, err
	}
	travelClass, _ := model.NormalizeTravelClass(req.TravelClass)

	release, err := s.locks.acquire(trainID, s.lockWait)
	if err != nil {
		return BookResult{}, err
	}
	defer release()

	train, err := s.trains.GetByID(trainID)
	if err != nil {
		return BookResult{}, err
	}

	if train.Seats == 0 {
		entry := model.WaitlistEntry{
			UserEmail:     req.OwnerEmail,
			TrainID:       trainID,
			PassengerName: req.PassengerName,
			PassengerAge:  req.PassengerAge,
			TravelClass:   travelClass,
		}
		if err := s.waitlist.Enqueue(entry); err != nil {
			return BookResult{}, err
		}
		return BookResult{Status: StatusWaitlisted, Train: train}, nil
	}

	ticket, err := s.issueTicket(trainID, req.OwnerEmail, req.PassengerName, req.PassengerAge, travelClass)
	if err != nil {
		return BookResult{}, err
	}
	updated, err := s.trains.AdjustSeats(trainID, -1)
	if err != nil {
		// The seat vanished (or persistence failed) between the check and
		// the decrement; undo the ticket so the ledger stays consistent.
		if _, rbErr := s.tickets.Remove(ticket.PNR, ticket.UserEmail); rbErr != nil {
			log.Printf("reservation: rollback of ticket %s failed: %v", ticket.PNR, rbErr)
		}
		if errors.Is(err, repository.ErrInvalidAdjustment) {
			return BookResult{}, ErrBusy
		}
		return BookResult{}, err
	}

	s.emit(ctx, q.Event{
		Type:       q.EventTicketBooked,
		OccurredAt: eventTime(),
		Ticket:     ticketPayload(ticket),
		Train:      trainPayload(updated),
	})
	return BookResult{Status: StatusConfirmed, Ticket: &ticket, Train: updated}, nil
}

// Cancel removes the caller's ticket, returns the seat to inventory, and
// promotes the oldest waitlisted request for the train when the freed seat
// is still available.  An unknown PNR and a PNR owned by someone else both
// fail with repository.ErrTicketNotFound.  Cancelling the same PNR twice
// succeeds once; the second attempt finds nothing.
func (s *ReservationService) Cancel(ctx context.Context, pnr, ownerEmail string) (CancelResult, error) {
	pnr = strings.ToUpper(strings.TrimSpace(pnr))
	if !model.ValidPNR(pnr) {
		return CancelResult{}, &model.ValidationError{Field: "pnr", Reason: "must be PNR followed by 5 digits (e.g. PNR12345)"}
	}

	// Resolve the train before entering its critical section.  Ownership is
	// deliberately not checked here; Remove re-checks both existence and
	// ownership under the lock and reports a single NotFound for either.
	existing, err := s.tickets.FindByPNR(pnr)
	if err != nil {
		return CancelResult{}, err
	}

	release, err := s.locks.acquire(existing.TrainID, s.lockWait)
	if err != nil {
		return CancelResult{}, err
	}
	defer release()

	removed, err := s.tickets.Remove(pnr, ownerEmail)
	if err != nil {
		return CancelResult{}, err
	}

	train, err := s.trains.AdjustSeats(removed.TrainID, +1)
	freedSeat := err == nil
	if err != nil && !errors.Is(err, repository.ErrTrainNotFound) {
		// The cancellation itself committed; a failed seat return is logged
		// rather than reported as a failed cancel.
		log.Printf("reservation: returning seat for %s on %s failed: %v", removed.PNR, removed.TrainID, err)
	}

	s.emit(ctx, q.Event{
		Type:       q.EventTicketCancelled,
		OccurredAt: eventTime(),
		Ticket:     ticketPayload(removed),
		OwnerEmail: ownerEmail,
	})

	result := CancelResult{Ticket: removed}
	if freedSeat && train.Seats > 0 {
		result.Promoted = s.promoteNext(ctx, removed.TrainID)
	}
	return result, nil
}

// promoteNext converts the head of the train's backlog into a confirmed
// ticket.  At most one promotion happens per cancellation.  Any failure
// after the entry was dequeued requeues it at the head so the request keeps
// its turn.  Runs inside the train's critical section.
func (s *ReservationService) promoteNext(ctx context.Context, trainID string) *model.Ticket {
	entry, err := s.waitlist.DequeueFirst(trainID)
	if err != nil {
		if !errors.Is(err, repository.ErrWaitlistEmpty) {
			log.Printf("reservation: waitlist dequeue for %s failed: %v", trainID, err)
		}
		return nil
	}

	ticket, err := s.issueTicket(trainID, entry.UserEmail, entry.PassengerName, entry.PassengerAge, entry.TravelClass)
	if err != nil {
		log.Printf("reservation: promoting waitlist entry on %s failed: %v", trainID, err)
		if rqErr := s.waitlist.RequeueFront(entry); rqErr != nil {
			log.Printf("reservation: requeue of waitlist entry on %s failed: %v", trainID, rqErr)
		}
		return nil
	}
	if _, err := s.trains.AdjustSeats(trainID, -1); err != nil {
		log.Printf("reservation: seat decrement for promotion on %s failed: %v", trainID, err)
		if _, rbErr := s.tickets.Remove(ticket.PNR, ticket.UserEmail); rbErr != nil {
			log.Printf("reservation: rollback of promoted ticket %s failed: %v", ticket.PNR, rbErr)
		}
		if rqErr := s.waitlist.RequeueFront(entry); rqErr != nil {
			log.Printf("reservation: requeue of waitlist entry on %s failed: %v", trainID, rqErr)
		}
		return nil
	}

	s.emit(ctx, q.Event{
		Type:       q.EventWaitlistPromoted,
		OccurredAt: eventTime(),
		Ticket:     ticketPayload(ticket),
		Waitlist: &q.WaitlistPayload{
			UserEmail:     entry.UserEmail,
			TrainID:       entry.TrainID,
			PassengerName: entry.PassengerName,
			PassengerAge:  entry.PassengerAge,
			TravelClass:   entry.TravelClass,
		},
	})
	return &ticket
}

// issueTicket allocates a fresh PNR against a snapshot of the ledger and
// creates the ticket.  Create re-validates uniqueness under the ledger's
// own lock, so a collision against a concurrent allocation shows up as
// ErrDuplicatePNR and triggers a bounded re-draw.
func (s *ReservationService) issueTicket(trainID, ownerEmail, passengerName string, passengerAge int, travelClass string) (model.Ticket, error) {
	for attempt := 0; attempt < 3; attempt++ {
		existing := make(map[string]struct{})
		for _, t := range s.tickets.All() {
			existing[strings.ToUpper(t.PNR)] = struct{}{}
		}
		pnr, err := s.pnr.Allocate(existing)
		if err != nil {
			return model.Ticket{}, err
		}
		ticket := model.Ticket{
			PNR:           pnr,
			TrainID:       trainID,
			UserEmail:     ownerEmail,
			PassengerName: passengerName,
			PassengerAge:  passengerAge,
			TravelClass:   travelClass,
		}
		err = s.tickets.Create(ticket)
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, repository.ErrDuplicatePNR) {
			return model.Ticket{}, err
		}
	}
	return model.Ticket{}, repository.ErrDuplicatePNR
}

// emit publishes an event after the operation has committed.  Publishing is
// best-effort: a sink failure never rolls back or retries the reservation.
func (s *ReservationService) emit(ctx context.Context, ev q.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Printf("reservation: publish %s event failed: %v", ev.Type, err)
	}
}

func eventTime() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

func ticketPayload(t model.Ticket) *q.TicketPayload {
	return &q.TicketPayload{
		PNR:           t.PNR,
		TrainID:       t.TrainID,
		UserEmail:     t.UserEmail,
		PassengerName: t.PassengerName,
		PassengerAge:  t.PassengerAge,
		TravelClass:   t.TravelClass,
	}
}

func trainPayload(t model.Train) *q.TrainPayload {
	return &q.TrainPayload{
		ID:          t.ID,
		Name:        t.Name,
		Source:      t.Source,
		Destination: t.Destination,
		Date:        t.Date,
		Departure:   t.Departure,
		Seats:       t.Seats,
		Fare:        t.Fare,
	}
}
