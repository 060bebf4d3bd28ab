package handler

import (
	"errors"
	"net/http"

	"tracker/internal/middleware"
	"tracker/internal/model"
	"tracker/internal/service"
	"tracker/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService service.AuthService
}

// NewUserHandler sets up the routing dependencies for user management
func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/users/create", middleware.RequireRole(model.RoleAdmin), h.CreateUser)
}

// CreateUser handles POST /users/create. Admin only; there are no user
// update or delete routes.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.authService.CreateUser(c.Request.Context(), req)
	if err != nil {
		var valErr *service.ValidationError
		switch {
		case errors.As(err, &valErr):
			c.JSON(http.StatusBadRequest, response.ValidationErrors(http.StatusBadRequest, valErr.Messages))
		case errors.Is(err, service.ErrUserExists):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to create user"))
		}
		return
	}

	c.JSON(http.StatusCreated, response.SuccessMessage(http.StatusCreated, "User created.", user))
}
