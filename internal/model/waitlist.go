package model

import (
	"fmt"
	"strconv"
	"strings"
)

// WaitlistEntry is a booking request that found no seats available.  Entries
// carry no identifier of their own; their position in the per-train backlog
// is their identity, and the only way out of the backlog is promotion to a
// confirmed ticket.  Records are persisted one per line as
// `userEmail,trainId,passengerName,passengerAge,travelClass`, with file
// order carrying the enqueue order.
type WaitlistEntry struct {
	UserEmail     string `json:"user_email"`
	TrainID       string `json:"train_id"`
	PassengerName string `json:"passenger_name"`
	PassengerAge  int    `json:"passenger_age"`
	TravelClass   string `json:"travel_class"`
}

// CSV renders the entry as one persisted record line.
func (w WaitlistEntry) CSV() string {
	return strings.Join([]string{
		w.UserEmail,
		w.TrainID,
		w.PassengerName,
		strconv.Itoa(w.PassengerAge),
		w.TravelClass,
	}, ",")
}

// ParseWaitlistEntry decodes one persisted record line.
func ParseWaitlistEntry(line string) (WaitlistEntry, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 5 {
		return WaitlistEntry{}, fmt.Errorf("waitlist record has %d fields, want 5", len(parts))
	}
	age, err := strconv.Atoi(parts[3])
	if err != nil {
		return WaitlistEntry{}, fmt.Errorf("waitlist record has bad age %q", parts[3])
	}
	return WaitlistEntry{
		UserEmail:     parts[0],
		TrainID:       NormalizeTrainID(parts[1]),
		PassengerName: parts[2],
		PassengerAge:  age,
		TravelClass:   parts[4],
	}, nil
}
