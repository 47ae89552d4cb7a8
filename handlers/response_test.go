package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"restaurant-api/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		services.ErrValidation:         http.StatusBadRequest,
		services.ErrInvalidCredentials: http.StatusUnauthorized,
		services.ErrUnauthorized:       http.StatusForbidden,
		services.ErrNotFound:           http.StatusNotFound,
		services.ErrConflict:           http.StatusConflict,
		services.ErrInsufficientStock:  http.StatusConflict,
		services.ErrInvalidTransition:  http.StatusUnprocessableEntity,
		errors.New("disk on fire"):     http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, statusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func rangeCtx(query string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/r?"+query, nil)
	return c
}

func TestParseRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)

	r, err := parseRange(rangeCtx(""), now)
	require.NoError(t, err)
	require.Equal(t, now, r.To)
	require.Equal(t, now.AddDate(0, 0, -30), r.From)

	r, err = parseRange(rangeCtx("from=2026-03-01&to=2026-03-10"), now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), r.From)
	// a date-only upper bound covers the whole day
	require.Equal(t, time.Date(2026, 3, 10, 23, 59, 59, 999999999, time.Local), r.To)

	r, err = parseRange(rangeCtx("to=2026-03-10T18:30:00Z"), now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC), r.To.UTC())

	_, err = parseRange(rangeCtx("from=last-week"), now)
	require.ErrorIs(t, err, services.ErrValidation)
}

func TestFailErrHidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	failErr(c, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "pq:")
	require.Contains(t, w.Body.String(), `"success":false`)
}
