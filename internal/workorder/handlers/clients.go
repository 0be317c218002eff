package handlers

import (
	"net/http"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/engine"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/scope"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientHandler serves the client directory endpoints.
type ClientHandler struct {
	service *engine.DirectoryService
	logger  *zap.Logger
}

func NewClientHandler(service *engine.DirectoryService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		service: service,
		logger:  logger.Named("client_handler"),
	}
}

type createClientRequest struct {
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone"`
	Note            string `json:"note"`
	NationalID      string `json:"nationalId"`
	Age             *int   `json:"age"`
	SpecialCategory bool   `json:"isSpecialCategory"`
}

// List returns clients with job counts. Query parameters: search (name,
// phone or national id substring), special (true/false category filter),
// businessId (apply the category predicate of that business's surface).
func (h *ClientHandler) List(c *gin.Context) {
	filter := &models.ClientFilter{Search: c.Query("search")}

	switch c.Query("special") {
	case "true", "1":
		v := true
		filter.SpecialCategory = &v
	case "false", "0":
		v := false
		filter.SpecialCategory = &v
	}

	if v := c.Query("businessId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid businessId", Code: "validation_error"})
			return
		}
		business, err := h.service.GetBusiness(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		category := scope.ClientCategory(business)
		filter.SpecialCategory = category.SpecialCategory
	}

	clients, err := h.service.ListClients(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list clients", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

// Create registers a client.
func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "name is required", Code: "validation_error"})
		return
	}

	client, err := h.service.CreateClient(c.Request.Context(), engine.CreateClientInput{
		Name:            req.Name,
		Phone:           req.Phone,
		Note:            req.Note,
		NationalID:      req.NationalID,
		Age:             req.Age,
		SpecialCategory: req.SpecialCategory,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clientToView(client))
}

// Delete removes a client, refusing while jobs reference it.
func (h *ClientHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid client id", Code: "validation_error"})
		return
	}
	if err := h.service.DeleteClient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func clientToView(client *models.Client) models.ClientView {
	return models.ClientView{
		ID:              client.ID,
		Name:            client.Name,
		Phone:           client.Phone,
		Note:            client.Note,
		NationalID:      client.NationalID,
		Age:             client.Age,
		SpecialCategory: client.SpecialCategory,
		CreatedAt:       client.CreatedAt,
	}
}
