package handlers

import (
	"net/http"

	"restaurant-api/models"
	"restaurant-api/services"
	"restaurant-api/statemachine"

	"github.com/gin-gonic/gin"
)

type PublicOrderRequest struct {
	CustomerName  string               `json:"customer_name" binding:"required"`
	CustomerEmail string               `json:"customer_email"`
	Items         []services.OrderLine `json:"items" binding:"required,min=1,dive"`
}

// PublicMenu returns categories with their available items (public)
func (h *Handler) PublicMenu(c *gin.Context) {
	cats, err := h.svc.Menu.PublicMenu(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, cats)
}

// PlacePublicOrder takes a guest takeaway order (public)
func (h *Handler) PlacePublicOrder(c *gin.Context) {
	var req PublicOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.PlacePublicOrder(c.Request.Context(), services.PublicOrderInput(req))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{
		"id":             order.ID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"total":          order.TotalAmount,
	})
}

// GetStateMachineInfo returns the order lifecycle for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"transitions":     statemachine.GetAllTransitions(),
		"terminal_states": []models.OrderStatus{models.StatusCompleted, models.StatusCancelled},
		"description":     "Restaurant order lifecycle",
	})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "restaurant-api"})
}
