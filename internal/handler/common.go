// Package handler implements the HTTP endpoints of the reservation API.
// Handlers bind and sanity-check request shapes, delegate to the service
// and repository layers, and map the error taxonomy onto HTTP statuses.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/railway-reservation/internal/model"
	"github.com/iliyamo/railway-reservation/internal/repository"
	"github.com/iliyamo/railway-reservation/internal/service"
)

// currentEmail extracts the authenticated account email injected by the
// JWT middleware.
func currentEmail(c echo.Context) (string, error) {
	email, ok := c.Get("email").(string)
	if !ok || email == "" {
		return "", errors.New("no authenticated user in context")
	}
	return email, nil
}

// reservationError maps a coordinator failure onto an HTTP response.
// NotFound answers stay deliberately vague: an unknown PNR and someone
// else's PNR read the same, so the API never confirms that a ticket exists.
// Busy conditions answer 503 with a retry hint because they are transient.
func reservationError(c echo.Context, err error) error {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Reason, "field": ve.Field})
	case errors.Is(err, repository.ErrTrainNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found or not yours to cancel"})
	case errors.Is(err, service.ErrBusy), errors.Is(err, repository.ErrDuplicatePNR):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "system busy, please retry"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
