package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type constraintService interface {
	List(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Constraint, error)
	Create(ctx context.Context, actor models.Actor, req service.CreateConstraintRequest) (*models.Constraint, error)
	Update(ctx context.Context, actor models.Actor, id string, req service.UpdateConstraintRequest) (*models.Constraint, error)
	Deactivate(ctx context.Context, actor models.Actor, id string) error
}

// ConstraintHandler exposes availability constraint endpoints.
type ConstraintHandler struct {
	constraints constraintService
}

// NewConstraintHandler constructs a ConstraintHandler.
func NewConstraintHandler(constraints constraintService) *ConstraintHandler {
	return &ConstraintHandler{constraints: constraints}
}

// List godoc
// @Summary List constraints
// @Tags Constraints
// @Produce json
// @Param resource_type query string false "teacher or group"
// @Param resource_id query string false "Teacher or group ID"
// @Param include_inactive query bool false "Include deactivated constraints"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /constraints [get]
func (h *ConstraintHandler) List(c *gin.Context) {
	params := parseListParams(c)
	filter := models.ConstraintFilter{
		ResourceType:    models.ResourceType(strings.ToLower(strings.TrimSpace(c.Query("resource_type")))),
		ResourceID:      strings.TrimSpace(c.Query("resource_id")),
		IncludeInactive: params.IncludeInactive,
		Page:            params.Page,
		PageSize:        params.PageSize,
	}
	constraints, pagination, err := h.constraints.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraints, pagination)
}

// Get godoc
// @Summary Get constraint
// @Tags Constraints
// @Produce json
// @Param id path string true "Constraint ID"
// @Success 200 {object} response.Envelope
// @Router /constraints/{id} [get]
func (h *ConstraintHandler) Get(c *gin.Context) {
	constraint, err := h.constraints.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraint, nil)
}

// Create godoc
// @Summary Create constraint
// @Description Day accepts French or English weekday names, time is HH:MM.
// @Tags Constraints
// @Accept json
// @Produce json
// @Param payload body service.CreateConstraintRequest true "Constraint payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /constraints [post]
func (h *ConstraintHandler) Create(c *gin.Context) {
	var req service.CreateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraint payload"))
		return
	}
	constraint, err := h.constraints.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, constraint)
}

// Update godoc
// @Summary Update constraint
// @Tags Constraints
// @Accept json
// @Produce json
// @Param id path string true "Constraint ID"
// @Param payload body service.UpdateConstraintRequest true "Constraint payload"
// @Success 200 {object} response.Envelope
// @Router /constraints/{id} [put]
func (h *ConstraintHandler) Update(c *gin.Context) {
	var req service.UpdateConstraintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid constraint payload"))
		return
	}
	constraint, err := h.constraints.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, constraint, nil)
}

// Delete godoc
// @Summary Deactivate constraint
// @Tags Constraints
// @Param id path string true "Constraint ID"
// @Success 204
// @Router /constraints/{id} [delete]
func (h *ConstraintHandler) Delete(c *gin.Context) {
	if err := h.constraints.Deactivate(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
