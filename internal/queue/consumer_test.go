package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTicketPayload() *TicketPayload {
	return &TicketPayload{
		PNR:           "PNR00421",
		TrainID:       "TRAIN007",
		UserEmail:     "asha@example.com",
		PassengerName: "Asha Rao",
		PassengerAge:  34,
		TravelClass:   "Sleeper",
	}
}

func sampleTrainPayload() *TrainPayload {
	return &TrainPayload{
		ID:          "TRAIN007",
		Name:        "Coastal Express",
		Source:      "Chennai",
		Destination: "Goa",
		Date:        "2026-11-20",
		Departure:   "06:15",
		Seats:       39,
		Fare:        640.50,
	}
}

func TestFormatEventBooked(t *testing.T) {
	line := formatEvent(Event{
		Type:       EventTicketBooked,
		OccurredAt: "2026-09-01 10:00:00",
		Ticket:     sampleTicketPayload(),
		Train:      sampleTrainPayload(),
	})
	assert.Equal(t,
		`[2026-09-01 10:00:00] Ticket booked | pnr=PNR00421 | user=asha@example.com | train="Coastal Express" (TRAIN007) | route=Chennai to Goa | date=2026-11-20 | class=Sleeper`,
		line)
}

func TestFormatEventCancelled(t *testing.T) {
	line := formatEvent(Event{
		Type:       EventTicketCancelled,
		OccurredAt: "2026-09-01 10:00:00",
		Ticket:     sampleTicketPayload(),
		OwnerEmail: "asha@example.com",
	})
	assert.Equal(t,
		"[2026-09-01 10:00:00] Ticket cancelled | pnr=PNR00421 | user=asha@example.com | train=TRAIN007",
		line)
}

func TestFormatEventAdminLines(t *testing.T) {
	added := formatEvent(Event{Type: EventTrainAdded, OccurredAt: "2026-09-01 10:00:00", Train: sampleTrainPayload()})
	assert.Equal(t, `[2026-09-01 10:00:00] ADMIN: Added train TRAIN007 - "Coastal Express" (Chennai to Goa)`, added)

	deleted := formatEvent(Event{Type: EventTrainDeleted, OccurredAt: "2026-09-01 10:00:00", Train: sampleTrainPayload()})
	assert.Equal(t, "[2026-09-01 10:00:00] ADMIN: Deleted train TRAIN007", deleted)
}

func TestFormatEventIgnoresIncompleteOrUnknown(t *testing.T) {
	// A booked event without its train payload cannot be rendered.
	assert.Empty(t, formatEvent(Event{Type: EventTicketBooked, Ticket: sampleTicketPayload()}))
	assert.Empty(t, formatEvent(Event{Type: "something.else"}))
}
