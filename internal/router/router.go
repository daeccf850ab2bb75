// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/railway-reservation/internal/handler"
	"github.com/iliyamo/railway-reservation/internal/middleware"
	"github.com/iliyamo/railway-reservation/internal/model"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth        *handler.AuthHandler
	Trains      *handler.TrainHandler
	Reservation *handler.ReservationHandler
	JWTSecret   string
	Cache       echo.MiddlewareFunc
	RateLimit   echo.MiddlewareFunc
}

// Register registers every route of the API on the provided Echo instance.
//
// Public:      /healthz, /v1/auth/*, /v1/trains browse endpoints.
// Customer:    reservations, PNR status and profile, behind JWT auth.
// Admin-only:  train schedule management, ticket listing and the report.
func Register(e *echo.Echo, d Deps) {
	if d.RateLimit != nil {
		e.Use(d.RateLimit)
	}

	e.GET("/healthz", handler.Health)

	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)

	// Train browsing is open to guests; the list endpoint carries the
	// response cache since it is the hottest read.
	if d.Cache != nil {
		e.GET("/v1/trains", d.Trains.List, d.Cache)
	} else {
		e.GET("/v1/trains", d.Trains.List)
	}
	e.GET("/v1/trains/:id", d.Trains.Get)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(d.JWTSecret))
	v1.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
	v1.GET("/me", d.Auth.Me)
	v1.POST("/reservations", d.Reservation.Book)
	v1.GET("/reservations", d.Reservation.MyTickets)
	v1.DELETE("/reservations/:pnr", d.Reservation.Cancel)
	v1.GET("/pnr/:pnr", d.Reservation.PNRStatus)

	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(d.JWTSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/trains", d.Trains.Create)
	admin.PUT("/trains/:id", d.Trains.Update)
	admin.DELETE("/trains/:id", d.Trains.Delete)
	admin.GET("/tickets", d.Reservation.AllTickets)
	admin.GET("/report", d.Reservation.Report)
}
