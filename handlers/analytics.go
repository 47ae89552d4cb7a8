package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"restaurant-api/middleware"
	"restaurant-api/reports"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

const (
	dateLayout   = "2006-01-02"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultRange = 30 * 24 * time.Hour
)

// parseRange reads ?from and ?to as RFC3339 or YYYY-MM-DD. A date-only "to"
// covers that whole day. Missing bounds default to the last 30 days.
func parseRange(c *gin.Context, now time.Time) (services.DateRange, error) {
	r := services.DateRange{From: now.Add(-defaultRange), To: now}
	if v := c.Query("from"); v != "" {
		t, _, err := parseTime(v)
		if err != nil {
			return r, fmt.Errorf("%w: from: %v", services.ErrValidation, err)
		}
		r.From = t
	}
	if v := c.Query("to"); v != "" {
		t, dateOnly, err := parseTime(v)
		if err != nil {
			return r, fmt.Errorf("%w: to: %v", services.ErrValidation, err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		r.To = t
	}
	return r, nil
}

func parseTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("want RFC3339 or YYYY-MM-DD, got %q", v)
	}
	return t, true, nil
}

func (h *Handler) rangeOrFail(c *gin.Context) (services.DateRange, bool) {
	r, err := parseRange(c, time.Now())
	if err != nil {
		failErr(c, err)
		return r, false
	}
	return r, true
}

// Dashboard returns today's revenue, order count and low-stock alerts
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Analytics.Dashboard(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

// SalesReport lists completed orders in range with a revenue total
func (h *Handler) SalesReport(c *gin.Context) {
	r, valid := h.rangeOrFail(c)
	if !valid {
		return
	}
	orders, err := h.svc.Analytics.SalesReport(c.Request.Context(), middleware.GetActor(c), r)
	if err != nil {
		failErr(c, err)
		return
	}
	var revenue float64
	for _, o := range orders {
		revenue += o.TotalAmount
	}
	revenue = math.Round(revenue*100) / 100
	ok(c, http.StatusOK, gin.H{
		"from":    r.From,
		"to":      r.To,
		"count":   len(orders),
		"revenue": revenue,
		"orders":  orders,
	})
}

// ExportSales streams the sales report as an xlsx workbook
func (h *Handler) ExportSales(c *gin.Context) {
	r, valid := h.rangeOrFail(c)
	if !valid {
		return
	}
	orders, err := h.svc.Analytics.SalesReport(c.Request.Context(), middleware.GetActor(c), r)
	if err != nil {
		failErr(c, err)
		return
	}
	f, err := reports.SalesWorkbook(reports.Rows(orders, services.OperatorName), r.From, r.To)
	if err != nil {
		failErr(c, err)
		return
	}
	b, err := reports.Bytes(f)
	if err != nil {
		failErr(c, err)
		return
	}
	name := fmt.Sprintf("sales_%s_%s.xlsx", r.From.Format(dateLayout), r.To.Format(dateLayout))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxMIME, b)
}

func (h *Handler) TopSelling(c *gin.Context) {
	r, valid := h.rangeOrFail(c)
	if !valid {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	items, err := h.svc.Analytics.TopSelling(c.Request.Context(), middleware.GetActor(c), r, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

func (h *Handler) HourlySales(c *gin.Context) {
	r, valid := h.rangeOrFail(c)
	if !valid {
		return
	}
	buckets, err := h.svc.Analytics.Hourly(c.Request.Context(), middleware.GetActor(c), r)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, buckets)
}

func (h *Handler) CategoryRevenue(c *gin.Context) {
	r, valid := h.rangeOrFail(c)
	if !valid {
		return
	}
	out, err := h.svc.Analytics.CategoryRevenue(c.Request.Context(), middleware.GetActor(c), r)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

func (h *Handler) StaffPerformance(c *gin.Context) {
	r, valid := h.rangeOrFail(c)
	if !valid {
		return
	}
	out, err := h.svc.Analytics.StaffPerformance(c.Request.Context(), middleware.GetActor(c), r)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

func (h *Handler) Labor(c *gin.Context) {
	r, valid := h.rangeOrFail(c)
	if !valid {
		return
	}
	out, err := h.svc.Analytics.Labor(c.Request.Context(), middleware.GetActor(c), r)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}
