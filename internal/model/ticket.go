package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Travel classes accepted on a booking request.
const (
	ClassGeneral = "General"
	ClassSleeper = "Sleeper"
	ClassAC      = "AC"
)

var (
	pnrPattern  = regexp.MustCompile(`^PNR[0-9]{5}$`)
	namePattern = regexp.MustCompile(`^[a-zA-Z ]{2,50}$`)
)

// Ticket is a confirmed reservation.  The PNR is the unique, immutable
// reservation code; UserEmail is the booking account and is the only value
// permitted to cancel the ticket.  Records are persisted one per line as
// `pnr,trainId,userEmail,passengerName,passengerAge,travelClass`.
type Ticket struct {
	PNR           string `json:"pnr"`
	TrainID       string `json:"train_id"`
	UserEmail     string `json:"user_email"`
	PassengerName string `json:"passenger_name"`
	PassengerAge  int    `json:"passenger_age"`
	TravelClass   string `json:"travel_class"`
}

// ValidPNR reports whether s has the canonical PNR##### shape.
func ValidPNR(s string) bool {
	return pnrPattern.MatchString(s)
}

// NormalizeTravelClass maps a case-insensitive class name to its canonical
// spelling.  The second return value is false when the class is unknown.
func NormalizeTravelClass(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general":
		return ClassGeneral, true
	case "sleeper":
		return ClassSleeper, true
	case "ac":
		return ClassAC, true
	}
	return "", false
}

// ValidatePassenger checks the passenger fields shared by bookings and
// waitlist entries.  It returns a *ValidationError naming the first
// offending field.
func ValidatePassenger(name string, age int, travelClass string) error {
	if !namePattern.MatchString(name) {
		return invalid("passenger_name", "must be 2-50 letters and spaces")
	}
	if age < 1 || age > 120 {
		return invalid("passenger_age", "must be between 1 and 120")
	}
	if _, ok := NormalizeTravelClass(travelClass); !ok {
		return invalid("travel_class", "must be General, Sleeper or AC")
	}
	return nil
}

// CSV renders the ticket as one persisted record line.
func (t Ticket) CSV() string {
	return strings.Join([]string{
		t.PNR,
		t.TrainID,
		t.UserEmail,
		t.PassengerName,
		strconv.Itoa(t.PassengerAge),
		t.TravelClass,
	}, ",")
}

// ParseTicket decodes one persisted record line.
func ParseTicket(line string) (Ticket, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 6 {
		return Ticket{}, fmt.Errorf("ticket record has %d fields, want 6", len(parts))
	}
	age, err := strconv.Atoi(parts[4])
	if err != nil {
		return Ticket{}, fmt.Errorf("ticket record has bad age %q", parts[4])
	}
	return Ticket{
		PNR:           strings.ToUpper(parts[0]),
		TrainID:       NormalizeTrainID(parts[1]),
		UserEmail:     parts[2],
		PassengerName: parts[3],
		PassengerAge:  age,
		TravelClass:   parts[5],
	}, nil
}
