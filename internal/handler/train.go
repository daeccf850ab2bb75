package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/railway-reservation/internal/model"
	q "github.com/iliyamo/railway-reservation/internal/queue"
	"github.com/iliyamo/railway-reservation/internal/repository"
	"github.com/iliyamo/railway-reservation/internal/service"
)

// TrainHandler serves the public train browse endpoints and the
// administrative schedule management.  Administrative mutations feed the
// seat inventory store from outside the reservation core and surface the
// train.added/modified/deleted events through the same notification sink.
type TrainHandler struct {
	Trains    *repository.TrainRepo
	Publisher service.EventPublisher
}

func NewTrainHandler(trains *repository.TrainRepo, publisher service.EventPublisher) *TrainHandler {
	if trains == nil || publisher == nil {
		panic("nil dependency passed to NewTrainHandler")
	}
	return &TrainHandler{Trains: trains, Publisher: publisher}
}

type trainReq struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name"`
	Source      *string  `json:"source"`
	Destination *string  `json:"destination"`
	Date        *string  `json:"date"`
	Departure   *string  `json:"departure_time"`
	Seats       *int     `json:"seats_available"`
	Fare        *float64 `json:"fare"`
}

// List handles GET /v1/trains.  Optional query parameters filter the
// result: source+destination (route match), date (exact), q (ID or
// name substring).  The sort parameter orders by id, name, source,
// destination, date or fare; default is file order.
func (h *TrainHandler) List(c echo.Context) error {
	trains := h.Trains.List()

	src := strings.TrimSpace(c.QueryParam("source"))
	dst := strings.TrimSpace(c.QueryParam("destination"))
	date := strings.TrimSpace(c.QueryParam("date"))
	query := strings.TrimSpace(c.QueryParam("q"))

	filtered := trains[:0]
	for _, t := range trains {
		if src != "" && !strings.EqualFold(t.Source, src) {
			continue
		}
		if dst != "" && !strings.EqualFold(t.Destination, dst) {
			continue
		}
		if date != "" && t.Date != date {
			continue
		}
		if query != "" &&
			!strings.EqualFold(t.ID, model.NormalizeTrainID(query)) &&
			!strings.Contains(strings.ToLower(t.Name), strings.ToLower(query)) {
			continue
		}
		filtered = append(filtered, t)
	}

	if err := sortTrains(filtered, c.QueryParam("sort")); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"trains": filtered})
}

func sortTrains(trains []model.Train, key string) error {
	var less func(a, b model.Train) bool
	switch key {
	case "", "none":
		return nil
	case "id":
		less = func(a, b model.Train) bool { return a.ID < b.ID }
	case "name":
		less = func(a, b model.Train) bool { return a.Name < b.Name }
	case "source":
		less = func(a, b model.Train) bool { return a.Source < b.Source }
	case "destination":
		less = func(a, b model.Train) bool { return a.Destination < b.Destination }
	case "date":
		// YYYY-MM-DD sorts correctly as a string.
		less = func(a, b model.Train) bool { return a.Date < b.Date }
	case "fare":
		less = func(a, b model.Train) bool { return a.Fare < b.Fare }
	default:
		return errors.New("sort must be one of id, name, source, destination, date, fare")
	}
	sort.SliceStable(trains, func(i, j int) bool { return less(trains[i], trains[j]) })
	return nil
}

// Get handles GET /v1/trains/:id.
func (h *TrainHandler) Get(c echo.Context) error {
	t, err := h.Trains.GetByID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
	}
	return c.JSON(http.StatusOK, t)
}

// Create handles POST /v1/admin/trains.  All fields are required and are
// validated with the administrative input rules; a schedule date in the
// past is rejected.
func (h *TrainHandler) Create(c echo.Context) error {
	var req trainReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil || req.Source == nil || req.Destination == nil ||
		req.Date == nil || req.Departure == nil || req.Seats == nil || req.Fare == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all train fields are required"})
	}
	t := model.Train{
		ID:          model.NormalizeTrainID(req.ID),
		Name:        strings.TrimSpace(*req.Name),
		Source:      strings.TrimSpace(*req.Source),
		Destination: strings.TrimSpace(*req.Destination),
		Date:        strings.TrimSpace(*req.Date),
		Departure:   strings.TrimSpace(*req.Departure),
		Seats:       *req.Seats,
		Fare:        *req.Fare,
	}
	if t.Seats < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "must be between 1 and 1000", "field": "seats_available"})
	}
	if err := validateTrain(c, t, true); err != nil {
		return err
	}

	if err := h.Trains.Create(t); err != nil {
		if errors.Is(err, repository.ErrTrainExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "train id already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create train failed"})
	}
	h.emit(c.Request().Context(), q.EventTrainAdded, t)
	return c.JSON(http.StatusCreated, t)
}

// Update handles PUT /v1/admin/trains/:id.  Absent fields keep their
// current values, mirroring the original "leave blank to keep" flow.
func (h *TrainHandler) Update(c echo.Context) error {
	t, err := h.Trains.GetByID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
	}
	var req trainReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Source != nil {
		t.Source = strings.TrimSpace(*req.Source)
	}
	if req.Destination != nil {
		t.Destination = strings.TrimSpace(*req.Destination)
	}
	if req.Date != nil {
		t.Date = strings.TrimSpace(*req.Date)
	}
	if req.Departure != nil {
		t.Departure = strings.TrimSpace(*req.Departure)
	}
	if req.Seats != nil {
		t.Seats = *req.Seats
	}
	if req.Fare != nil {
		t.Fare = *req.Fare
	}
	if err := validateTrain(c, t, req.Date != nil); err != nil {
		return err
	}

	if err := h.Trains.Update(t); err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update train failed"})
	}
	h.emit(c.Request().Context(), q.EventTrainModified, t)
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/admin/trains/:id.
func (h *TrainHandler) Delete(c echo.Context) error {
	id := model.NormalizeTrainID(c.Param("id"))
	t, err := h.Trains.GetByID(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
	}
	if err := h.Trains.Delete(id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete train failed"})
	}
	h.emit(c.Request().Context(), q.EventTrainDeleted, t)
	return c.JSON(http.StatusOK, echo.Map{"deleted": id})
}

// validateTrain applies the shared field rules and, when checkDate is set,
// rejects schedule dates in the past.  It writes the 400 response itself
// and returns it so callers can simply `return` on failure.
func validateTrain(c echo.Context, t model.Train, checkDate bool) error {
	if err := t.Validate(); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Reason, "field": ve.Field})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if checkDate {
		d, err := time.Parse(model.DateLayout, t.Date)
		if err != nil || d.Before(time.Now().UTC().Truncate(24*time.Hour)) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date cannot be in the past", "field": "date"})
		}
	}
	return nil
}

func (h *TrainHandler) emit(ctx context.Context, eventType string, t model.Train) {
	// Best-effort: the publisher logs its own failures.
	_ = h.Publisher.Publish(ctx, q.Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC().Format("2006-01-02 15:04:05"),
		Train: &q.TrainPayload{
			ID:          t.ID,
			Name:        t.Name,
			Source:      t.Source,
			Destination: t.Destination,
			Date:        t.Date,
			Departure:   t.Departure,
			Seats:       t.Seats,
			Fare:        t.Fare,
		},
	})
}
