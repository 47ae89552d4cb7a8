package handlers

import (
	"net/http"

	"restaurant-api/middleware"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

type CreateInventoryRequest struct {
	Name      string `json:"name" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=0"`
	Unit      string `json:"unit" binding:"required"`
	Threshold int    `json:"threshold" binding:"min=0"`
}

type RestockRequest struct {
	Amount int `json:"amount" binding:"required,gt=0"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type RecipeRequest struct {
	Ingredients []services.IngredientInput `json:"ingredients" binding:"dive"`
}

// ListInventory returns stock levels; ?low=true narrows to items at or
// below their threshold
func (h *Handler) ListInventory(c *gin.Context) {
	var (
		items any
		err   error
	)
	if c.Query("low") == "true" {
		items, err = h.svc.Inventory.LowStock(c.Request.Context())
	} else {
		items, err = h.svc.Inventory.List(c.Request.Context())
	}
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

func (h *Handler) GetInventoryItem(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	item, err := h.svc.Inventory.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *Handler) CreateInventoryItem(c *gin.Context) {
	var req CreateInventoryRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Inventory.Create(c.Request.Context(), middleware.GetActor(c), services.CreateInventoryInput(req))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, item)
}

func (h *Handler) RestockInventory(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req RestockRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Inventory.Restock(c.Request.Context(), middleware.GetActor(c), id, req.Amount)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

// SetInventoryQuantity overwrites the on-hand count after a stock take
func (h *Handler) SetInventoryQuantity(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req SetQuantityRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Inventory.SetQuantity(c.Request.Context(), middleware.GetActor(c), id, *req.Quantity)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *Handler) DeleteInventoryItem(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Inventory.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListRecipes(c *gin.Context) {
	recipes, err := h.svc.Recipes.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, recipes)
}

func (h *Handler) GetRecipe(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	recipe, err := h.svc.Recipes.ForMenuItem(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, recipe)
}

// UpsertRecipe replaces the ingredient list of a menu item's recipe
func (h *Handler) UpsertRecipe(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req RecipeRequest
	if !bindJSON(c, &req) {
		return
	}
	recipe, err := h.svc.Recipes.Upsert(c.Request.Context(), middleware.GetActor(c), id, req.Ingredients)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, recipe)
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Recipes.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}
