package handlers

import (
	"net/http"

	"restaurant-api/middleware"
	"restaurant-api/models"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Login    string `json:"login" binding:"required"` // username or email
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Name     string          `json:"name" binding:"required"`
	Username string          `json:"username" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"required"`
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Users.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	token, err := middleware.GenerateToken(user, h.secret, h.tokenTTL)
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.GetLogger(c).WithField("user_id", user.ID).Info("login")
	ok(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(h.tokenTTL.Seconds()),
		"user":       user,
	})
}

// Profile returns the authenticated user's profile
func (h *Handler) Profile(c *gin.Context) {
	user, err := h.svc.Users.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Users.Create(c.Request.Context(), middleware.GetActor(c), services.CreateUserInput(req))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": id})
}
