package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"restaurant-api/events"
	"restaurant-api/middleware"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

// Handler serves the HTTP API on top of the service layer.
type Handler struct {
	svc          *services.Services
	hub          *events.Hub
	secret       []byte
	tokenTTL     time.Duration
	pollInterval time.Duration
}

func New(svc *services.Services, hub *events.Hub, secret []byte, tokenTTL, pollInterval time.Duration) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	return &Handler{svc: svc, hub: hub, secret: secret, tokenTTL: tokenTTL, pollInterval: pollInterval}
}

// Users is the lookup the auth chain uses to refuse tokens of deleted users.
func (h *Handler) Users() middleware.UserLookup {
	return h.svc.Users
}

// Envelope is the shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// failErr writes err as an envelope. Unexpected errors are logged and
// replaced by a generic message.
func failErr(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		middleware.GetLogger(c).WithError(err).Error("unhandled error")
		fail(c, status, "Internal server error")
		return
	}
	fail(c, status, err.Error())
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
