package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, actor models.Actor, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Query(ctx context.Context, q dto.TimetableQuery) ([]models.TimetableView, error)
}

type timetableExporter interface {
	Export(ctx context.Context, format string, q dto.TimetableQuery) (*service.ExportFile, error)
}

// TimetableHandler serves generation, the joined timetable view and its exports.
type TimetableHandler struct {
	timetables timetableService
	exporter   timetableExporter
}

// NewTimetableHandler constructs a TimetableHandler.
func NewTimetableHandler(timetables timetableService, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, exporter: exporter}
}

// Generate godoc
// @Summary Generate timetable
// @Description Replaces the timetable of a group for the week of the given date.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.timetables.Generate(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary Query timetable
// @Tags Timetable
// @Produce json
// @Param group_id query string false "Group ID"
// @Param teacher_id query string false "Teacher ID"
// @Param date query string false "Generation date (YYYY-MM-DD)"
// @Param search query string false "Matches subject, teacher or room"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	q, ok := bindTimetableQuery(c)
	if !ok {
		return
	}
	entries, err := h.timetables.Query(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil, map[string]interface{}{"count": len(entries)})
}

// Export godoc
// @Summary Export timetable
// @Tags Timetable
// @Produce octet-stream
// @Param format path string true "csv, pdf, ical or xlsx"
// @Param group_id query string false "Group ID"
// @Param teacher_id query string false "Teacher ID"
// @Param date query string false "Generation date (YYYY-MM-DD)"
// @Param search query string false "Matches subject, teacher or room"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetable/export/{format} [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	q, ok := bindTimetableQuery(c)
	if !ok {
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), strings.ToLower(c.Param("format")), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

func bindTimetableQuery(c *gin.Context) (dto.TimetableQuery, bool) {
	var q dto.TimetableQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable query"))
		return q, false
	}
	q.Search = strings.TrimSpace(q.Search)
	return q, true
}
