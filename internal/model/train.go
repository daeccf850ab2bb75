package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the schedule date format used in train records and requests.
const DateLayout = "2006-01-02"

var (
	trainIDPattern = regexp.MustCompile(`^TRAIN\d{3}$`)
	timePattern    = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

// Train describes a scheduled train and its remaining seat count.  Seats is
// the number of currently available seats, not the original capacity; the
// capacity of a train is implicitly Seats plus the number of live tickets
// referencing it.  Records are persisted one per line as
// `trainId,name,source,destination,date,time,seatsAvailable,fare`.
type Train struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Date        string  `json:"date"`
	Departure   string  `json:"departure_time"`
	Seats       int     `json:"seats_available"`
	Fare        float64 `json:"fare"`
}

// NormalizeTrainID upper-cases a train identifier so lookups are
// case-insensitive, matching how IDs are compared everywhere else.
func NormalizeTrainID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidTrainID reports whether id has the canonical TRAIN### shape.
func ValidTrainID(id string) bool {
	return trainIDPattern.MatchString(id)
}

// Validate checks every field of a train against the administrative input
// rules.  It returns a *ValidationError naming the first offending field.
func (t Train) Validate() error {
	if !ValidTrainID(t.ID) {
		return invalid("train_id", "must be TRAIN followed by 3 digits (e.g. TRAIN001)")
	}
	if t.Name == "" {
		return invalid("name", "cannot be empty")
	}
	if len(t.Name) > 100 {
		return invalid("name", "too long, max 100 characters")
	}
	// Free-text fields become CSV record fields; a comma would split the
	// stored line and the record would be dropped as corrupted on reload.
	if strings.Contains(t.Name, ",") {
		return invalid("name", "must not contain commas")
	}
	if t.Source == "" || t.Destination == "" {
		return invalid("route", "source and destination cannot be empty")
	}
	if strings.Contains(t.Source, ",") || strings.Contains(t.Destination, ",") {
		return invalid("route", "must not contain commas")
	}
	if strings.EqualFold(t.Source, t.Destination) {
		return invalid("route", "source and destination cannot be the same")
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return invalid("date", "must be YYYY-MM-DD")
	}
	if !timePattern.MatchString(t.Departure) {
		return invalid("departure_time", "must be 24-hour HH:MM")
	}
	if t.Seats < 0 || t.Seats > 1000 {
		return invalid("seats_available", "must be between 0 and 1000")
	}
	if t.Fare <= 0 || t.Fare > 100000 {
		return invalid("fare", "must be between 1 and 100000")
	}
	return nil
}

// CSV renders the train as one persisted record line.
func (t Train) CSV() string {
	return strings.Join([]string{
		t.ID,
		t.Name,
		t.Source,
		t.Destination,
		t.Date,
		t.Departure,
		strconv.Itoa(t.Seats),
		strconv.FormatFloat(t.Fare, 'f', 2, 64),
	}, ",")
}

// ParseTrain decodes one persisted record line.  It only checks structural
// soundness (field count and numeric fields); value-level rules are the
// responsibility of Validate at write time.
func ParseTrain(line string) (Train, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 8 {
		return Train{}, fmt.Errorf("train record has %d fields, want 8", len(parts))
	}
	seats, err := strconv.Atoi(parts[6])
	if err != nil || seats < 0 {
		return Train{}, fmt.Errorf("train record has bad seat count %q", parts[6])
	}
	fare, err := strconv.ParseFloat(parts[7], 64)
	if err != nil {
		return Train{}, fmt.Errorf("train record has bad fare %q", parts[7])
	}
	return Train{
		ID:          NormalizeTrainID(parts[0]),
		Name:        parts[1],
		Source:      parts[2],
		Destination: parts[3],
		Date:        parts[4],
		Departure:   parts[5],
		Seats:       seats,
		Fare:        fare,
	}, nil
}
