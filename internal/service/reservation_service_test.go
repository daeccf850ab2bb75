package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/railway-reservation/internal/model"
	q "github.com/iliyamo/railway-reservation/internal/queue"
	"github.com/iliyamo/railway-reservation/internal/repository"
)

// capturePublisher records published events instead of talking to a broker.
type capturePublisher struct {
	mu     sync.Mutex
	events []q.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev q.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	svc      *ReservationService
	trains   *repository.TrainRepo
	tickets  *repository.TicketRepo
	waitlist *repository.WaitlistRepo
	events   *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	trains, err := repository.NewTrainRepo(filepath.Join(dir, "trains.txt"))
	require.NoError(t, err)
	tickets, err := repository.NewTicketRepo(filepath.Join(dir, "tickets.txt"))
	require.NoError(t, err)
	waitlist, err := repository.NewWaitlistRepo(filepath.Join(dir, "waitlist.txt"))
	require.NoError(t, err)
	events := &capturePublisher{}
	svc := NewReservationService(trains, tickets, waitlist, events, 2*time.Second)
	return &fixture{svc: svc, trains: trains, tickets: tickets, waitlist: waitlist, events: events}
}

func (f *fixture) addTrain(t *testing.T, id string, seats int) {
	t.Helper()
	require.NoError(t, f.trains.Create(model.Train{
		ID:          id,
		Name:        "Shatabdi Express",
		Source:      "Delhi",
		Destination: "Bhopal",
		Date:        "2026-10-05",
		Departure:   "06:00",
		Seats:       seats,
		Fare:        1200,
	}))
}

func (f *fixture) book(t *testing.T, trainID, email string) BookResult {
	t.Helper()
	res, err := f.svc.Book(context.Background(), BookRequest{
		TrainID:       trainID,
		PassengerName: "Asha Rao",
		PassengerAge:  34,
		TravelClass:   "sleeper",
		OwnerEmail:    email,
	})
	require.NoError(t, err)
	return res
}

func TestBookConfirmsWhileSeatsRemain(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 2)

	res := f.book(t, "train001", "asha@example.com")
	assert.Equal(t, StatusConfirmed, res.Status)
	require.NotNil(t, res.Ticket)
	assert.True(t, model.ValidPNR(res.Ticket.PNR))
	assert.Equal(t, "TRAIN001", res.Ticket.TrainID)
	assert.Equal(t, model.ClassSleeper, res.Ticket.TravelClass)
	assert.Equal(t, 1, res.Train.Seats)

	assert.Equal(t, []string{q.EventTicketBooked}, f.events.types())
}

func TestBookWaitlistsWhenSoldOut(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 1)

	first := f.book(t, "TRAIN001", "asha@example.com")
	assert.Equal(t, StatusConfirmed, first.Status)

	second := f.book(t, "TRAIN001", "ravi@example.com")
	assert.Equal(t, StatusWaitlisted, second.Status)
	assert.Nil(t, second.Ticket)
	assert.Equal(t, 1, f.waitlist.CountByTrain("TRAIN001"))

	// Only the confirmed booking produced an event.
	assert.Equal(t, []string{q.EventTicketBooked}, f.events.types())
}

func TestBookRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 5)

	_, err := f.svc.Book(context.Background(), BookRequest{
		TrainID: "TRAIN001", PassengerName: "Asha123", PassengerAge: 34,
		TravelClass: "AC", OwnerEmail: "a@example.com",
	})
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.svc.Book(context.Background(), BookRequest{
		TrainID: "TRAIN999", PassengerName: "Asha", PassengerAge: 34,
		TravelClass: "AC", OwnerEmail: "a@example.com",
	})
	assert.ErrorIs(t, err, repository.ErrTrainNotFound)

	// Rejected requests leave no trace anywhere.
	assert.Empty(t, f.tickets.All())
	assert.Empty(t, f.waitlist.All())
}

func TestCancelReturnsSeatWhenNobodyWaits(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 1)
	booked := f.book(t, "TRAIN001", "asha@example.com")

	res, err := f.svc.Cancel(context.Background(), booked.Ticket.PNR, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, booked.Ticket.PNR, res.Ticket.PNR)
	assert.Nil(t, res.Promoted)

	train, err := f.trains.GetByID("TRAIN001")
	require.NoError(t, err)
	assert.Equal(t, 1, train.Seats)
	assert.Empty(t, f.tickets.All())
}

func TestCancelPromotesOldestWaitlisted(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 1)

	booked := f.book(t, "TRAIN001", "asha@example.com")
	f.book(t, "TRAIN001", "first@example.com")
	f.book(t, "TRAIN001", "second@example.com")
	require.Equal(t, 2, f.waitlist.CountByTrain("TRAIN001"))

	res, err := f.svc.Cancel(context.Background(), booked.Ticket.PNR, "asha@example.com")
	require.NoError(t, err)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, "first@example.com", res.Promoted.UserEmail)
	assert.True(t, model.ValidPNR(res.Promoted.PNR))

	// The freed seat went straight to the promotion, so the train is sold
	// out again and one entry still waits.
	train, err := f.trains.GetByID("TRAIN001")
	require.NoError(t, err)
	assert.Equal(t, 0, train.Seats)
	assert.Equal(t, 1, f.waitlist.CountByTrain("TRAIN001"))
	require.Len(t, f.tickets.All(), 1)
	assert.Equal(t, "first@example.com", f.tickets.All()[0].UserEmail)

	assert.Equal(t, []string{q.EventTicketBooked, q.EventTicketCancelled, q.EventWaitlistPromoted}, f.events.types())
}

func TestCancelPromotionsFollowArrivalOrder(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 2)

	a := f.book(t, "TRAIN001", "a@example.com")
	b := f.book(t, "TRAIN001", "b@example.com")
	f.book(t, "TRAIN001", "w1@example.com")
	f.book(t, "TRAIN001", "w2@example.com")
	f.book(t, "TRAIN001", "w3@example.com")

	res, err := f.svc.Cancel(context.Background(), a.Ticket.PNR, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, "w1@example.com", res.Promoted.UserEmail)

	res, err = f.svc.Cancel(context.Background(), b.Ticket.PNR, "b@example.com")
	require.NoError(t, err)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, "w2@example.com", res.Promoted.UserEmail)

	assert.Equal(t, 1, f.waitlist.CountByTrain("TRAIN001"))
}

func TestCancelRejectsWrongOwnerAndUnknownPNR(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 1)
	booked := f.book(t, "TRAIN001", "asha@example.com")

	_, err := f.svc.Cancel(context.Background(), booked.Ticket.PNR, "intruder@example.com")
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
	// The ticket survived the attempt.
	_, err = f.tickets.FindByPNR(booked.Ticket.PNR)
	assert.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), "PNR99999", "asha@example.com")
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)

	var ve *model.ValidationError
	_, err = f.svc.Cancel(context.Background(), "not-a-pnr", "asha@example.com")
	assert.ErrorAs(t, err, &ve)
}

func TestCancelTwiceSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 1)
	booked := f.book(t, "TRAIN001", "asha@example.com")

	_, err := f.svc.Cancel(context.Background(), booked.Ticket.PNR, "asha@example.com")
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), booked.Ticket.PNR, "asha@example.com")
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)

	// The second attempt must not mint a phantom seat.
	train, err := f.trains.GetByID("TRAIN001")
	require.NoError(t, err)
	assert.Equal(t, 1, train.Seats)
}

func TestConcurrentBookingNeverOversells(t *testing.T) {
	f := newFixture(t)
	const seats = 5
	f.addTrain(t, "TRAIN001", seats)

	var wg sync.WaitGroup
	results := make([]BookResult, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Book(context.Background(), BookRequest{
				TrainID:       "TRAIN001",
				PassengerName: "Asha Rao",
				PassengerAge:  30,
				TravelClass:   "General",
				OwnerEmail:    "user@example.com",
			})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	confirmed, waitlisted := 0, 0
	for _, res := range results {
		switch res.Status {
		case StatusConfirmed:
			confirmed++
		case StatusWaitlisted:
			waitlisted++
		}
	}
	assert.Equal(t, seats, confirmed)
	assert.Equal(t, 10-seats, waitlisted)

	train, err := f.trains.GetByID("TRAIN001")
	require.NoError(t, err)
	assert.Equal(t, 0, train.Seats)
	assert.Len(t, f.tickets.All(), seats)
	assert.Equal(t, 10-seats, f.waitlist.CountByTrain("TRAIN001"))
}

func TestSeatCountIsConserved(t *testing.T) {
	f := newFixture(t)
	const capacity = 3
	f.addTrain(t, "TRAIN001", capacity)

	// Book out the train, then churn cancellations and promotions; the sum
	// of free seats and live tickets must always equal the capacity.
	var pnrs []string
	for i := 0; i < capacity; i++ {
		res := f.book(t, "TRAIN001", "owner@example.com")
		pnrs = append(pnrs, res.Ticket.PNR)
	}
	f.book(t, "TRAIN001", "waiting@example.com")

	check := func() {
		train, err := f.trains.GetByID("TRAIN001")
		require.NoError(t, err)
		assert.Equal(t, capacity, train.Seats+len(f.tickets.All()))
	}
	check()

	for _, pnr := range pnrs {
		_, err := f.svc.Cancel(context.Background(), pnr, "owner@example.com")
		require.NoError(t, err)
		check()
	}

	// One promotion consumed the backlog; further cancels freed seats.
	train, err := f.trains.GetByID("TRAIN001")
	require.NoError(t, err)
	assert.Equal(t, capacity-1, train.Seats)
	assert.Equal(t, 0, f.waitlist.CountByTrain("TRAIN001"))
}

func TestConcurrentCancelAndBookGrantFreedSeatsOnce(t *testing.T) {
	f := newFixture(t)
	const capacity = 3
	f.addTrain(t, "TRAIN001", capacity)

	// Sell the train out and build a backlog behind it.
	var pnrs []string
	for i := 0; i < capacity; i++ {
		res := f.book(t, "TRAIN001", "holder@example.com")
		pnrs = append(pnrs, res.Ticket.PNR)
	}
	waiters := []string{"w0@example.com", "w1@example.com", "w2@example.com", "w3@example.com"}
	for _, email := range waiters {
		res := f.book(t, "TRAIN001", email)
		require.Equal(t, StatusWaitlisted, res.Status)
	}

	// Cancel every held ticket while fresh bookings race for the train.
	// Each freed seat must be granted exactly once: to the backlog head,
	// inside the same critical section that freed it.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		promoted []model.Ticket
		results  = make([]BookResult, capacity)
	)
	for _, pnr := range pnrs {
		wg.Add(1)
		go func(pnr string) {
			defer wg.Done()
			res, err := f.svc.Cancel(context.Background(), pnr, "holder@example.com")
			assert.NoError(t, err)
			if res.Promoted != nil {
				mu.Lock()
				promoted = append(promoted, *res.Promoted)
				mu.Unlock()
			}
		}(pnr)
	}
	for i := 0; i < capacity; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Book(context.Background(), BookRequest{
				TrainID:       "TRAIN001",
				PassengerName: "Asha Rao",
				PassengerAge:  30,
				TravelClass:   "General",
				OwnerEmail:    fmt.Sprintf("late%d@example.com", i),
			})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	// Every freed seat went to exactly one requester, with no seat granted
	// twice and no seat left behind.
	require.Len(t, promoted, capacity)
	seen := make(map[string]struct{})
	for _, tk := range promoted {
		_, dup := seen[tk.PNR]
		assert.False(t, dup, "seat granted twice under PNR %s", tk.PNR)
		seen[tk.PNR] = struct{}{}
		assert.Contains(t, waiters, tk.UserEmail)
	}

	// Freed seats are consumed by the promotion before the train lock is
	// released, so the racing bookers never observe a free seat.
	for _, res := range results {
		assert.Equal(t, StatusWaitlisted, res.Status)
	}

	train, err := f.trains.GetByID("TRAIN001")
	require.NoError(t, err)
	tickets := f.tickets.All()
	assert.Equal(t, capacity, train.Seats+len(tickets))
	assert.Equal(t, 0, train.Seats)

	unique := make(map[string]struct{})
	for _, tk := range tickets {
		unique[tk.PNR] = struct{}{}
	}
	assert.Len(t, unique, len(tickets))

	// Backlog accounting: four original waiters minus three promotions plus
	// three fresh waitlisted bookings.
	assert.Equal(t, len(waiters), f.waitlist.CountByTrain("TRAIN001"))
}

func TestBookAcceptsLowercasePNRInputOnCancel(t *testing.T) {
	f := newFixture(t)
	f.addTrain(t, "TRAIN001", 1)
	booked := f.book(t, "TRAIN001", "asha@example.com")

	lower := "pnr" + booked.Ticket.PNR[3:]
	res, err := f.svc.Cancel(context.Background(), lower, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, booked.Ticket.PNR, res.Ticket.PNR)
}
