package handlers

import (
	"net/http"
	"time"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/auth"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/engine"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobHandler serves the job endpoints, translating between JSON payloads
// and the transition engine.
type JobHandler struct {
	service *engine.JobService
	logger  *zap.Logger
}

func NewJobHandler(service *engine.JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		service: service,
		logger:  logger.Named("job_handler"),
	}
}

type createJobRequest struct {
	BusinessID     string   `json:"businessId" binding:"required"`
	ClientID       string   `json:"clientId" binding:"required"`
	Description    string   `json:"description" binding:"required"`
	EstimatedPrice *float64 `json:"estimatedPrice"`
}

type updateJobRequest struct {
	Description    *string  `json:"description"`
	EstimatedPrice *float64 `json:"estimatedPrice"`
}

type transitionRequest struct {
	State string `json:"state" binding:"required"`
	Note  string `json:"note"`
}

// List returns the scope-filtered job list. Optional query filters:
// businessId, state, from, to (RFC 3339 or date-only).
func (h *JobHandler) List(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}

	filter := &models.JobFilter{}
	if v := c.Query("businessId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid businessId", Code: "validation_error"})
			return
		}
		filter.BusinessID = &id
	}
	if v := c.Query("state"); v != "" {
		state := models.JobState(v)
		if !state.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid state filter", Code: "validation_error"})
			return
		}
		filter.State = &state
	}
	if v := c.Query("from"); v != "" {
		ts, err := parseTime(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from date", Code: "validation_error"})
			return
		}
		filter.From = &ts
	}
	if v := c.Query("to"); v != "" {
		ts, err := parseTimeTo(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to date", Code: "validation_error"})
			return
		}
		filter.To = &ts
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), actor, filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// Get returns one projected job.
func (h *JobHandler) Get(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid job id", Code: "validation_error"})
		return
	}
	job, err := h.service.GetJob(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Create opens a new job at Pending.
func (h *JobHandler) Create(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "businessId, clientId and description are required", Code: "validation_error"})
		return
	}
	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid businessId", Code: "validation_error"})
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid clientId", Code: "validation_error"})
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), actor, engine.CreateJobInput{
		BusinessID:     businessID,
		ClientID:       clientID,
		Description:    req.Description,
		EstimatedPrice: req.EstimatedPrice,
	})
	if err != nil {
		h.logger.Error("Failed to create job", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// Update patches description/price.
func (h *JobHandler) Update(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid job id", Code: "validation_error"})
		return
	}
	var req updateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	job, err := h.service.UpdateJob(c.Request.Context(), actor, &models.JobUpdate{
		ID:             id,
		Description:    req.Description,
		EstimatedPrice: req.EstimatedPrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Transition applies a state change.
func (h *JobHandler) Transition(c *gin.Context) {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "not authenticated", Code: "unauthorized"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid job id", Code: "validation_error"})
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "state is required", Code: "validation_error"})
		return
	}

	job, err := h.service.Transition(c.Request.Context(), actor, id, models.JobState(req.State), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func parseTime(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", v)
}

// parseTimeTo parses an upper bound. A date-only value means the whole
// day, so it resolves to the last instant of that date.
func parseTimeTo(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	return ts.Add(24*time.Hour - time.Nanosecond), nil
}
