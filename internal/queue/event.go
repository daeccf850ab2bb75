// Package queue defines the domain events exchanged over the message broker
// and the background consumer that turns them into notification logs.
package queue

// Event types published on the railway.events queue.
const (
	EventTicketBooked     = "ticket.booked"
	EventTicketCancelled  = "ticket.cancelled"
	EventWaitlistPromoted = "waitlist.promoted"
	EventTrainAdded       = "train.added"
	EventTrainModified    = "train.modified"
	EventTrainDeleted     = "train.deleted"
)

// TicketPayload carries the ticket fields relevant to downstream consumers.
type TicketPayload struct {
	PNR           string `json:"pnr"`
	TrainID       string `json:"train_id"`
	UserEmail     string `json:"user_email"`
	PassengerName string `json:"passenger_name"`
	PassengerAge  int    `json:"passenger_age"`
	TravelClass   string `json:"travel_class"`
}

// TrainPayload carries the train fields relevant to downstream consumers.
type TrainPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Date        string  `json:"date"`
	Departure   string  `json:"departure_time"`
	Seats       int     `json:"seats_available"`
	Fare        float64 `json:"fare"`
}

// WaitlistPayload describes the original backlog entry behind a promotion.
type WaitlistPayload struct {
	UserEmail     string `json:"user_email"`
	TrainID       string `json:"train_id"`
	PassengerName string `json:"passenger_name"`
	PassengerAge  int    `json:"passenger_age"`
	TravelClass   string `json:"travel_class"`
}

// Event is the envelope published for every completed operation.  Which
// payload fields are set depends on Type: ticket.booked carries Ticket and
// Train; ticket.cancelled carries Ticket and OwnerEmail; waitlist.promoted
// carries Ticket (the new confirmed ticket) and Waitlist (the promoted
// entry); the train.* administrative events carry Train (train.deleted only
// its ID).  Delivery is fire-and-forget, one event per operation, in
// operation completion order.
type Event struct {
	Type       string           `json:"type"`
	OccurredAt string           `json:"occurred_at"`
	Ticket     *TicketPayload   `json:"ticket,omitempty"`
	Train      *TrainPayload    `json:"train,omitempty"`
	Waitlist   *WaitlistPayload `json:"waitlist,omitempty"`
	OwnerEmail string           `json:"owner_email,omitempty"`
}
