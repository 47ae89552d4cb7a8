package handlers

import (
	"net/http"

	"restaurant-api/middleware"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

type MenuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
	Image       string  `json:"image"`
	CategoryID  uint    `json:"category_id" binding:"required"`
	Available   *bool   `json:"available"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.svc.Menu.Categories(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, cats)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.svc.Menu.CreateCategory(c.Request.Context(), middleware.GetActor(c), services.CategoryInput(req))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, cat)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Menu.DeleteCategory(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}

// ListMenuItems returns every item including unavailable ones
func (h *Handler) ListMenuItems(c *gin.Context) {
	items, err := h.svc.Menu.Items(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	item, err := h.svc.Menu.Item(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *Handler) CreateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Menu.CreateItem(c.Request.Context(), middleware.GetActor(c), services.MenuItemInput(req))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req MenuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Menu.UpdateItem(c.Request.Context(), middleware.GetActor(c), id, services.MenuItemInput(req))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

// ToggleMenuItem flips an item's availability
func (h *Handler) ToggleMenuItem(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	item, err := h.svc.Menu.ToggleAvailability(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Menu.DeleteItem(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}
