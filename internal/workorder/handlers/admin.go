package handlers

import (
	"net/http"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/auth"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/engine"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler serves the owner-facing management endpoints for
// businesses and users.
type AdminHandler struct {
	service *engine.DirectoryService
	logger  *zap.Logger
}

func NewAdminHandler(service *engine.DirectoryService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.Named("admin_handler"),
	}
}

type createBusinessRequest struct {
	Name    string `json:"name" binding:"required"`
	Special bool   `json:"isSpecial"`
}

type createUserRequest struct {
	Name       string  `json:"name" binding:"required"`
	Username   string  `json:"username" binding:"required"`
	Role       string  `json:"role" binding:"required"`
	BusinessID *string `json:"businessId"`
}

type updateUserRequest struct {
	Name       *string `json:"name"`
	Role       *string `json:"role"`
	BusinessID *string `json:"businessId"`
	Active     *bool   `json:"active"`
}

// ListBusinesses is readable by any authenticated actor; the worker
// dashboards need the list to label jobs.
func (h *AdminHandler) ListBusinesses(c *gin.Context) {
	businesses, err := h.service.ListBusinesses(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list businesses", zap.Error(err))
		respondError(c, err)
		return
	}
	views := make([]models.BusinessView, 0, len(businesses))
	for _, b := range businesses {
		views = append(views, models.BusinessView{ID: b.ID, Name: b.Name, Special: b.Special, CreatedAt: b.CreatedAt})
	}
	c.JSON(http.StatusOK, views)
}

// CreateBusiness registers a business (owner-only, enforced upstream by
// the router and again by the service).
func (h *AdminHandler) CreateBusiness(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	var req createBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "name is required", Code: "validation_error"})
		return
	}
	business, err := h.service.CreateBusiness(c.Request.Context(), actor, req.Name, req.Special)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.BusinessView{ID: business.ID, Name: business.Name, Special: business.Special, CreatedAt: business.CreatedAt})
}

// ListUsers returns every user for the management screen.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	users, err := h.service.ListUsers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, userToView(&u))
	}
	c.JSON(http.StatusOK, views)
}

// CreateUser registers a user.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "name, username and role are required", Code: "validation_error"})
		return
	}
	var businessID *uuid.UUID
	if req.BusinessID != nil {
		id, err := uuid.Parse(*req.BusinessID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid businessId", Code: "validation_error"})
			return
		}
		businessID = &id
	}

	user, err := h.service.CreateUser(c.Request.Context(), actor, engine.CreateUserInput{
		Name:       req.Name,
		Username:   req.Username,
		Role:       models.Role(req.Role),
		BusinessID: businessID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToView(user))
}

// UpdateUser patches a user; setting active=false is the soft delete.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id", Code: "validation_error"})
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	update := &models.UserUpdate{ID: id, Name: req.Name, Active: req.Active}
	if req.Role != nil {
		role := models.Role(*req.Role)
		update.Role = &role
	}
	if req.BusinessID != nil {
		businessID, err := uuid.Parse(*req.BusinessID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid businessId", Code: "validation_error"})
			return
		}
		update.BusinessID = &businessID
	}

	user, err := h.service.UpdateUser(c.Request.Context(), actor, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToView(user))
}

func userToView(u *models.User) models.UserView {
	return models.UserView{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		Role:       u.Role,
		BusinessID: u.BusinessID,
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
	}
}
