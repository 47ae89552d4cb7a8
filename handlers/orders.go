package handlers

import (
	"net/http"

	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

type PlaceOrderRequest struct {
	Items   []services.OrderLine `json:"items" binding:"required,min=1,dive"`
	Type    models.OrderType     `json:"type"`
	TableID *uint                `json:"table_id"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

type SettleRequest struct {
	Method models.PaymentMethod `json:"method" binding:"required"`
	Amount *float64             `json:"amount"`
}

// PlaceOrder records a POS order and deducts its ingredients
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.PlaceOrder(c.Request.Context(), middleware.GetActor(c), services.PlaceOrderInput{
		Items:   req.Items,
		Type:    req.Type,
		TableID: req.TableID,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.GetLogger(c).WithFields(map[string]any{"order_id": order.ID, "total": order.TotalAmount}).Info("order placed")
	ok(c, http.StatusCreated, order)
}

// ListOrders returns orders newest first with a per-status summary
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.svc.Orders.List(c.Request.Context(), middleware.GetActor(c), services.OrderFilter{
		Status:        models.OrderStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
		Type:          models.OrderType(c.Query("type")),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	summary := map[models.OrderStatus]int{}
	for _, o := range orders {
		summary[o.Status]++
	}
	ok(c, http.StatusOK, gin.H{
		"count":   len(orders),
		"summary": summary,
		"orders":  orders,
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	order, err := h.svc.Orders.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

// UpdateOrderStatus moves an order along the fulfillment lifecycle
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.svc.Orders.UpdateStatus(c.Request.Context(), middleware.GetActor(c), id, req.Status, req.Note)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, order)
}

func (h *Handler) SettleOrder(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req SettleRequest
	if !bindJSON(c, &req) {
		return
	}
	payment, err := h.svc.Orders.Settle(c.Request.Context(), middleware.GetActor(c), id, services.SettleInput{
		Method: req.Method,
		Amount: req.Amount,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, payment)
}

func (h *Handler) RefundOrder(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	payment, err := h.svc.Orders.Refund(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, payment)
}
