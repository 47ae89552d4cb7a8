package routes

import (
	"net/http"

	"restaurant-api/handlers"
	"restaurant-api/middleware"
	"restaurant-api/policy"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewRouter builds the engine with the shared middleware chain and every
// route registered.
func NewRouter(h *handlers.Handler, secret []byte, lg *log.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(lg))

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", handlers.Health)
	SetupRoutes(r, h, secret)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, secret []byte) {
	allow := middleware.Allow

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/login", h.Login)

		// Guest ordering from the public menu
		public.GET("/public/menu", h.PublicMenu)
		public.POST("/public/orders", h.PlacePublicOrder)

		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired(secret), middleware.ActiveUser(h.Users()))
	{
		auth.GET("/profile", h.Profile)

		// Orders
		auth.POST("/orders", allow(policy.OpPlaceOrder), h.PlaceOrder)
		auth.GET("/orders", allow(policy.OpViewOrders), h.ListOrders)
		auth.GET("/orders/:id", allow(policy.OpViewOrders), h.GetOrder)
		auth.PUT("/orders/:id/status", allow(policy.OpUpdateStatus), h.UpdateOrderStatus)
		auth.POST("/orders/:id/settle", allow(policy.OpSettleOrder), h.SettleOrder)
		auth.POST("/orders/:id/refund", allow(policy.OpRefundOrder), h.RefundOrder)

		// Kitchen display
		auth.GET("/kitchen/orders", allow(policy.OpViewKitchen), h.KitchenQueue)
		auth.PUT("/kitchen/orders/:id/advance", allow(policy.OpUpdateStatus), h.AdvanceTicket)
		auth.GET("/kitchen/stream", allow(policy.OpViewOrders), h.Stream)

		// Menu management
		auth.GET("/categories", allow(policy.OpViewOrders), h.ListCategories)
		auth.POST("/categories", allow(policy.OpManageMenu), h.CreateCategory)
		auth.DELETE("/categories/:id", allow(policy.OpManageMenu), h.DeleteCategory)
		auth.GET("/menu-items", allow(policy.OpViewOrders), h.ListMenuItems)
		auth.GET("/menu-items/:id", allow(policy.OpViewOrders), h.GetMenuItem)
		auth.POST("/menu-items", allow(policy.OpManageMenu), h.CreateMenuItem)
		auth.PUT("/menu-items/:id", allow(policy.OpManageMenu), h.UpdateMenuItem)
		auth.PATCH("/menu-items/:id/availability", allow(policy.OpManageMenu), h.ToggleMenuItem)
		auth.DELETE("/menu-items/:id", allow(policy.OpManageMenu), h.DeleteMenuItem)

		// Recipes are keyed by menu item
		auth.GET("/recipes", allow(policy.OpManageRecipes), h.ListRecipes)
		auth.GET("/menu-items/:id/recipe", allow(policy.OpManageRecipes), h.GetRecipe)
		auth.PUT("/menu-items/:id/recipe", allow(policy.OpManageRecipes), h.UpsertRecipe)
		auth.DELETE("/recipes/:id", allow(policy.OpManageRecipes), h.DeleteRecipe)

		// Inventory
		auth.GET("/inventory", allow(policy.OpManageInventory), h.ListInventory)
		auth.GET("/inventory/:id", allow(policy.OpManageInventory), h.GetInventoryItem)
		auth.POST("/inventory", allow(policy.OpManageInventory), h.CreateInventoryItem)
		auth.POST("/inventory/:id/restock", allow(policy.OpManageInventory), h.RestockInventory)
		auth.PUT("/inventory/:id/quantity", allow(policy.OpManageInventory), h.SetInventoryQuantity)
		auth.DELETE("/inventory/:id", allow(policy.OpDeleteInventory), h.DeleteInventoryItem)

		// Tables & reservations
		auth.GET("/tables", allow(policy.OpTableStatus), h.ListTables)
		auth.POST("/tables", allow(policy.OpManageTables), h.CreateTable)
		auth.PUT("/tables/:id/status", allow(policy.OpTableStatus), h.SetTableStatus)
		auth.DELETE("/tables/:id", allow(policy.OpManageTables), h.DeleteTable)
		auth.GET("/reservations", allow(policy.OpReservations), h.ListReservations)
		auth.POST("/reservations", allow(policy.OpReservations), h.CreateReservation)
		auth.PUT("/reservations/:id/complete", allow(policy.OpReservations), h.CompleteReservation)
		auth.PUT("/reservations/:id/cancel", allow(policy.OpReservations), h.CancelReservation)

		// Shifts
		auth.POST("/shifts/clock-in", allow(policy.OpClockShift), h.ClockIn)
		auth.PUT("/shifts/:id/clock-out", allow(policy.OpClockShift), h.ClockOut)
		auth.GET("/shifts/active", allow(policy.OpClockShift), h.ActiveShift)
		auth.GET("/shifts", allow(policy.OpManageShifts), h.RecentShifts)

		// Analytics
		auth.GET("/dashboard", allow(policy.OpViewDashboard), h.Dashboard)
		auth.GET("/reports/sales", allow(policy.OpViewReports), h.SalesReport)
		auth.GET("/reports/sales/export", allow(policy.OpViewReports), h.ExportSales)
		auth.GET("/reports/top-selling", allow(policy.OpViewReports), h.TopSelling)
		auth.GET("/reports/hourly", allow(policy.OpViewReports), h.HourlySales)
		auth.GET("/reports/categories", allow(policy.OpViewReports), h.CategoryRevenue)
		auth.GET("/reports/staff", allow(policy.OpViewReports), h.StaffPerformance)
		auth.GET("/reports/labor", allow(policy.OpViewReports), h.Labor)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(secret), middleware.ActiveUser(h.Users()), allow(policy.OpManageUsers))
	{
		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.DELETE("/users/:id", h.DeleteUser)
	}
}
