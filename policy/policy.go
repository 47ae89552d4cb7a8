// Package policy holds the static role allow-list for every mutating or
// restricted operation. Both the HTTP middleware and the services consult it.
package policy

import (
	"restaurant-api/models"
)

type Operation string

const (
	OpPlaceOrder      Operation = "order.place"
	OpUpdateStatus    Operation = "order.status"
	OpSettleOrder     Operation = "order.settle"
	OpRefundOrder     Operation = "order.refund"
	OpViewOrders      Operation = "order.view"
	OpViewKitchen     Operation = "kitchen.view"
	OpManageInventory Operation = "inventory.manage"
	OpDeleteInventory Operation = "inventory.delete"
	OpManageRecipes   Operation = "recipe.manage"
	OpManageMenu      Operation = "menu.manage"
	OpManageTables    Operation = "table.manage"
	OpTableStatus     Operation = "table.status"
	OpReservations    Operation = "reservation.manage"
	OpClockShift      Operation = "shift.clock"
	OpManageShifts    Operation = "shift.manage"
	OpViewDashboard   Operation = "analytics.dashboard"
	OpViewReports     Operation = "analytics.reports"
	OpManageUsers     Operation = "user.manage"
)

var (
	staff        = []models.UserRole{models.RoleAdmin, models.RoleManager, models.RoleCashier, models.RoleKitchenStaff}
	managers     = []models.UserRole{models.RoleAdmin, models.RoleManager}
	frontOfHouse = []models.UserRole{models.RoleAdmin, models.RoleManager, models.RoleCashier}
	kitchen      = []models.UserRole{models.RoleAdmin, models.RoleManager, models.RoleKitchenStaff}
)

var table = map[Operation][]models.UserRole{
	OpPlaceOrder:      frontOfHouse,
	OpUpdateStatus:    kitchen,
	OpSettleOrder:     frontOfHouse,
	OpRefundOrder:     managers,
	OpViewOrders:      staff,
	OpViewKitchen:     kitchen,
	OpManageInventory: kitchen,
	OpDeleteInventory: managers,
	OpManageRecipes:   managers,
	OpManageMenu:      managers,
	OpManageTables:    managers,
	OpTableStatus:     frontOfHouse,
	OpReservations:    frontOfHouse,
	OpClockShift:      staff,
	OpManageShifts:    managers,
	OpViewDashboard:   staff,
	OpViewReports:     managers,
	OpManageUsers:     {models.RoleAdmin},
}

// Roles returns the roles allowed to perform op. Unknown operations allow nobody.
func Roles(op Operation) []models.UserRole {
	return table[op]
}

// Allowed reports whether role may perform op.
func Allowed(op Operation, role models.UserRole) bool {
	for _, r := range table[op] {
		if r == role {
			return true
		}
	}
	return false
}
