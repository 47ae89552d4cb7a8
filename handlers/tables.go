package handlers

import (
	"net/http"
	"time"

	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

type TableRequest struct {
	Number   string `json:"number" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}

type TableStatusRequest struct {
	Status models.TableStatus `json:"status" binding:"required"`
}

type ReservationRequest struct {
	TableID         uint      `json:"table_id" binding:"required"`
	CustomerName    string    `json:"customer_name" binding:"required"`
	CustomerPhone   string    `json:"customer_phone"`
	GuestCount      int       `json:"guest_count" binding:"required,min=1"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
}

// ListTables returns the floor plan with each table's active orders
func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.svc.Tables.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, tables)
}

func (h *Handler) CreateTable(c *gin.Context) {
	var req TableRequest
	if !bindJSON(c, &req) {
		return
	}
	table, err := h.svc.Tables.Create(c.Request.Context(), middleware.GetActor(c), services.TableInput(req))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, table)
}

func (h *Handler) SetTableStatus(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req TableStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	table, err := h.svc.Tables.SetStatus(c.Request.Context(), middleware.GetActor(c), id, req.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, table)
}

func (h *Handler) DeleteTable(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Tables.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}

// ListReservations returns all reservations, or one day's with ?date=YYYY-MM-DD
func (h *Handler) ListReservations(c *gin.Context) {
	var (
		out []models.Reservation
		err error
	)
	if d := c.Query("date"); d != "" {
		day, perr := time.ParseInLocation(dateLayout, d, time.Local)
		if perr != nil {
			fail(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		out, err = h.svc.Tables.ReservationsOn(c.Request.Context(), day)
	} else {
		out, err = h.svc.Tables.Reservations(c.Request.Context())
	}
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

func (h *Handler) CreateReservation(c *gin.Context) {
	var req ReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.Tables.Reserve(c.Request.Context(), middleware.GetActor(c), services.ReservationInput(req))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

func (h *Handler) CompleteReservation(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	r, err := h.svc.Tables.CompleteReservation(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

func (h *Handler) CancelReservation(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	r, err := h.svc.Tables.CancelReservation(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}
