package handlers

import (
	"net/http"
	"strconv"

	"restaurant-api/middleware"

	"github.com/gin-gonic/gin"
)

type ClockOutRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) ClockIn(c *gin.Context) {
	shift, err := h.svc.Shifts.ClockIn(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, shift)
}

func (h *Handler) ClockOut(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req ClockOutRequest
	// notes are optional; an empty body is fine
	_ = c.ShouldBindJSON(&req)
	shift, err := h.svc.Shifts.ClockOut(c.Request.Context(), middleware.GetActor(c), id, req.Notes)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, shift)
}

// ActiveShift returns the caller's open shift, or null
func (h *Handler) ActiveShift(c *gin.Context) {
	shift, err := h.svc.Shifts.Active(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"shift": shift})
}

func (h *Handler) RecentShifts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	shifts, err := h.svc.Shifts.Recent(c.Request.Context(), middleware.GetActor(c), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, shifts)
}
