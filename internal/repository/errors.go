// Package repository implements the persistent stores of the reservation
// engine: the seat inventory (trains), the reservation ledger (tickets), the
// per-train waitlist backlog and the account store.  Each store owns one
// flat record file, keeps its working state in memory, and rewrites the file
// atomically on every mutation.  Sentinel errors defined here let the
// service and handler layers branch on the failure kind with errors.Is.
package repository

import "errors"

// ErrTrainNotFound is returned when no train with the requested ID exists.
var ErrTrainNotFound = errors.New("train not found")

// ErrTrainExists is returned when creating a train whose ID is already taken.
var ErrTrainExists = errors.New("train id already exists")

// ErrInvalidAdjustment is returned when a seat adjustment would drive the
// available-seat count negative.  It indicates a lost race or corrupted
// inventory rather than caller error.
var ErrInvalidAdjustment = errors.New("seat adjustment would be negative")

// ErrTicketNotFound is returned when a ticket lookup or removal matches
// nothing.  Removal deliberately folds "unknown PNR" and "not the owner"
// into this one error so callers cannot probe for other users' tickets.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrDuplicatePNR is returned when creating a ticket whose PNR is already
// held by a live ticket.
var ErrDuplicatePNR = errors.New("pnr already exists")

// ErrWaitlistEmpty is returned when a train's backlog has no entries.
var ErrWaitlistEmpty = errors.New("waitlist empty")

// ErrUserNotFound is returned when no account with the given email exists.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already registered")
