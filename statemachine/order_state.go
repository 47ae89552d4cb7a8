package statemachine

import (
	"fmt"
	"strings"

	"restaurant-api/models"
)

// Transition defines a valid status change
type Transition struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

// validTransitions is the authoritative order lifecycle definition
var validTransitions = []Transition{
	// Kitchen flow
	{From: models.StatusPending, To: models.StatusPreparing},
	{From: models.StatusPreparing, To: models.StatusReady},
	{From: models.StatusReady, To: models.StatusCompleted},
	// Cancellation from any non-terminal state
	{From: models.StatusPending, To: models.StatusCancelled},
	{From: models.StatusPreparing, To: models.StatusCancelled},
	{From: models.StatusReady, To: models.StatusCancelled},
}

// nextStep is the single forward action offered by the kitchen display
var nextStep = map[models.OrderStatus]models.OrderStatus{
	models.StatusPending:   models.StatusPreparing,
	models.StatusPreparing: models.StatusReady,
	models.StatusReady:     models.StatusCompleted,
}

var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool)
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// ValidStatus reports whether s is a known order status.
func ValidStatus(s models.OrderStatus) bool {
	switch s {
	case models.StatusPending, models.StatusPreparing, models.StatusReady,
		models.StatusCompleted, models.StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.OrderStatus) bool {
	return s == models.StatusCompleted || s == models.StatusCancelled
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// NextStatus returns the kitchen's forward step from status, if any.
func NextStatus(status models.OrderStatus) (models.OrderStatus, bool) {
	n, ok := nextStep[status]
	return n, ok
}

// CanTransition checks whether an order may move from one state to another
func CanTransition(from, to models.OrderStatus) error {
	if transitionMap[Transition{From: from, To: to}] {
		return nil
	}
	return fmt.Errorf("%s -> %s is not allowed; valid transitions from %s are: %s",
		from, to, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}

// CanSettle reports whether a payment may be recorded for an order.
func CanSettle(status models.OrderStatus, payment models.PaymentStatus) error {
	if status == models.StatusCancelled {
		return fmt.Errorf("cancelled orders cannot be settled")
	}
	if payment != models.PaymentUnpaid {
		return fmt.Errorf("order payment is already %s", payment)
	}
	return nil
}

// CanRefund reports whether a paid order may be refunded.
func CanRefund(payment models.PaymentStatus) error {
	if payment != models.PaymentPaid {
		return fmt.Errorf("only PAID orders can be refunded, order is %s", payment)
	}
	return nil
}
