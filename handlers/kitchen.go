package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"restaurant-api/events"
	"restaurant-api/middleware"
	"restaurant-api/models"

	"github.com/gin-gonic/gin"
)

const streamPing = 25 * time.Second

// KitchenQueue returns active tickets oldest first. poll_interval_seconds
// tells displays without a stream how often to refetch.
func (h *Handler) KitchenQueue(c *gin.Context) {
	tickets, err := h.svc.Orders.KitchenQueue(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count":                 len(tickets),
		"poll_interval_seconds": int(h.pollInterval.Seconds()),
		"tickets":               tickets,
	})
}

// AdvanceTicket moves an order to its single next kitchen status
func (h *Handler) AdvanceTicket(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	order, err := h.svc.Orders.Advance(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

// streamTopics picks what a role gets to hear about.
func streamTopics(role models.UserRole) []string {
	switch role {
	case models.RoleKitchenStaff:
		return []string{events.TopicKitchen}
	case models.RoleCashier:
		return []string{events.TopicKitchen, events.TopicPOS, events.TopicTables}
	default:
		return []string{events.TopicKitchen, events.TopicOrders, events.TopicPOS, events.TopicInventory, events.TopicTables}
	}
}

// Stream pushes change notices as server-sent events. Clients refetch the
// affected view on each event.
func (h *Handler) Stream(c *gin.Context) {
	if h.hub == nil {
		fail(c, http.StatusServiceUnavailable, "Event stream disabled")
		return
	}
	flusher, canFlush := c.Writer.(http.Flusher)
	if !canFlush {
		fail(c, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	ch, cancel := h.hub.Subscribe(streamTopics(middleware.GetRole(c)), 32)
	defer cancel()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	hello, _ := json.Marshal(gin.H{"ok": true, "ts": time.Now().Unix()})
	fmt.Fprintf(w, "event: hello\ndata: %s\n\n", hello)
	flusher.Flush()

	keep := time.NewTicker(streamPing)
	defer keep.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keep.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				middleware.GetLogger(c).WithError(err).Warn("unencodable event")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, b)
			flusher.Flush()
		}
	}
}
