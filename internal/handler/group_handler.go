package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type groupService interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, actor models.Actor, req service.CreateGroupRequest) (*models.Group, error)
	Update(ctx context.Context, actor models.Actor, id string, req service.UpdateGroupRequest) (*models.Group, error)
	Deactivate(ctx context.Context, actor models.Actor, id string) error
}

// GroupHandler exposes group CRUD endpoints.
type GroupHandler struct {
	groups groupService
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups groupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List godoc
// @Summary List groups
// @Tags Groups
// @Produce json
// @Param search query string false "Search by name"
// @Param include_inactive query bool false "Include deactivated groups"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	params := parseListParams(c)
	items, pagination, err := h.groups.List(c.Request.Context(), models.GroupFilter{
		Search:          params.Search,
		IncludeInactive: params.IncludeInactive,
		Page:            params.Page,
		PageSize:        params.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get group
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	item, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body service.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group payload"))
		return
	}
	item, err := h.groups.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body service.UpdateGroupRequest true "Group payload"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [put]
func (h *GroupHandler) Update(c *gin.Context) {
	var req service.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group payload"))
		return
	}
	item, err := h.groups.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Deactivate group
// @Tags Groups
// @Param id path string true "Group ID"
// @Success 204
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.groups.Deactivate(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
