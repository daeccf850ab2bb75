package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/railway-reservation/internal/model"
	"github.com/iliyamo/railway-reservation/internal/repository"
	"github.com/iliyamo/railway-reservation/internal/service"
)

// ReservationHandler exposes booking, cancellation and ticket queries.
// Mutations go through the reservation coordinator; read-only queries hit
// the stores directly.
type ReservationHandler struct {
	Svc      *service.ReservationService
	Tickets  *repository.TicketRepo
	Trains   *repository.TrainRepo
	Waitlist *repository.WaitlistRepo
}

func NewReservationHandler(svc *service.ReservationService, tickets *repository.TicketRepo, trains *repository.TrainRepo, waitlist *repository.WaitlistRepo) *ReservationHandler {
	if svc == nil || tickets == nil || trains == nil || waitlist == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc, Tickets: tickets, Trains: trains, Waitlist: waitlist}
}

type bookReq struct {
	TrainID       string `json:"train_id"`
	PassengerName string `json:"passenger_name"`
	PassengerAge  int    `json:"passenger_age"`
	TravelClass   string `json:"travel_class"`
}

// Book handles POST /v1/reservations.  A confirmed booking answers 201
// with the ticket; a full train answers 202 and the request's position in
// the waitlist.
func (h *ReservationHandler) Book(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	res, err := h.Svc.Book(c.Request().Context(), service.BookRequest{
		TrainID:       req.TrainID,
		PassengerName: req.PassengerName,
		PassengerAge:  req.PassengerAge,
		TravelClass:   req.TravelClass,
		OwnerEmail:    email,
	})
	if err != nil {
		return reservationError(c, err)
	}

	if res.Status == service.StatusWaitlisted {
		return c.JSON(http.StatusAccepted, echo.Map{
			"status":            res.Status,
			"train_id":          res.Train.ID,
			"waitlist_position": h.Waitlist.CountByTrain(res.Train.ID),
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"status": res.Status,
		"ticket": res.Ticket,
		"train":  res.Train,
	})
}

// Cancel handles DELETE /v1/reservations/:pnr.  Only the booking account
// can cancel; unknown and unowned PNRs answer the same 404.  When the
// freed seat promotes a waitlisted request, the response says so.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	res, err := h.Svc.Cancel(c.Request().Context(), c.Param("pnr"), email)
	if err != nil {
		return reservationError(c, err)
	}

	resp := echo.Map{"cancelled": res.Ticket.PNR, "train_id": res.Ticket.TrainID}
	if res.Promoted != nil {
		resp["promoted_pnr"] = res.Promoted.PNR
	}
	return c.JSON(http.StatusOK, resp)
}

// MyTickets handles GET /v1/reservations and lists the caller's confirmed
// tickets with their train schedules.
func (h *ReservationHandler) MyTickets(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tickets := h.Tickets.FindByOwner(email)
	out := make([]echo.Map, 0, len(tickets))
	for _, t := range tickets {
		entry := echo.Map{"ticket": t}
		if train, err := h.Trains.GetByID(t.TrainID); err == nil {
			entry["train"] = train
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}

// PNRStatus handles GET /v1/pnr/:pnr.  A live ticket answers CONFIRMED
// with its details.  Waitlisted requests carry no PNR in this system, so a
// missing PNR can only answer not-found.
func (h *ReservationHandler) PNRStatus(c echo.Context) error {
	pnr := strings.ToUpper(strings.TrimSpace(c.Param("pnr")))
	if !model.ValidPNR(pnr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "must be PNR followed by 5 digits (e.g. PNR12345)", "field": "pnr"})
	}
	t, err := h.Tickets.FindByPNR(pnr)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "pnr not found; it may be invalid, cancelled, or never issued"})
	}
	resp := echo.Map{"status": "CONFIRMED", "ticket": t}
	if train, err := h.Trains.GetByID(t.TrainID); err == nil {
		resp["train"] = train
	}
	return c.JSON(http.StatusOK, resp)
}

// AllTickets handles GET /v1/admin/tickets and lists every live ticket.
func (h *ReservationHandler) AllTickets(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"tickets": h.Tickets.All()})
}

// occupancyRow is one train's line in the admin report.
type occupancyRow struct {
	TrainID   string `json:"train_id"`
	Name      string `json:"name"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
	Capacity  int    `json:"capacity"`
}

// Report handles GET /v1/admin/report.  It summarizes totals, per-train
// occupancy (capacity derived as booked plus available, since original
// capacity is not tracked separately) and the five most-booked trains.
func (h *ReservationHandler) Report(c echo.Context) error {
	trains := h.Trains.List()
	tickets := h.Tickets.All()
	waitlist := h.Waitlist.All()
	booked := h.Tickets.CountByTrain()

	occupancy := make([]occupancyRow, 0, len(trains))
	for _, t := range trains {
		b := booked[t.ID]
		occupancy = append(occupancy, occupancyRow{
			TrainID:   t.ID,
			Name:      t.Name,
			Booked:    b,
			Available: t.Seats,
			Capacity:  b + t.Seats,
		})
	}

	top := make([]occupancyRow, len(occupancy))
	copy(top, occupancy)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Booked > top[j].Booked })
	if len(top) > 5 {
		top = top[:5]
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_trains":     len(trains),
		"total_tickets":    len(tickets),
		"waitlist_entries": len(waitlist),
		"occupancy":        occupancy,
		"top_booked":       top,
	})
}
