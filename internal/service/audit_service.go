package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

type auditRepository interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditService exposes the audit trail. Entries are written by the repositories in the
// same transaction as the change they describe.
type AuditService struct {
	repo auditRepository
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns audit entries newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, paginate(filter.Page, filter.PageSize, total), nil
}

// newAuditLog builds the entry for a mutation, tagged with the request id carried by ctx.
func newAuditLog(ctx context.Context, actor models.Actor, action, resource, resourceID string, detail interface{}) *models.AuditLog {
	log := &models.AuditLog{
		Actor:    actor.String(),
		Action:   action,
		Resource: resource,
	}
	if resourceID != "" {
		id := resourceID
		log.ResourceID = &id
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		log.RequestID = &reqID
	}
	if detail != nil {
		if payload, err := json.Marshal(detail); err == nil {
			log.Detail = payload
		}
	}
	return log
}
