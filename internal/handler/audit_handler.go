package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type auditLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error)
}

// AuditHandler exposes the read-only audit trail.
type AuditHandler struct {
	audit auditLister
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(audit auditLister) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit logs
// @Tags Audit
// @Produce json
// @Param actor query string false "Actor label"
// @Param action query string false "CREATE, UPDATE, DEACTIVATE or GENERATE"
// @Param resource query string false "teacher, room, group, constraint or timetable"
// @Param request_id query string false "X-Request-ID of the originating call"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	params := parseListParams(c)
	logs, pagination, err := h.audit.List(c.Request.Context(), models.AuditFilter{
		Actor:     strings.TrimSpace(c.Query("actor")),
		Action:    strings.TrimSpace(c.Query("action")),
		Resource:  strings.TrimSpace(c.Query("resource")),
		RequestID: strings.TrimSpace(c.Query("request_id")),
		Page:      params.Page,
		PageSize:  params.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
