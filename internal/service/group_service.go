package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.Group, int, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group, audit *models.AuditLog) error
	Update(ctx context.Context, group *models.Group, audit *models.AuditLog) error
	Deactivate(ctx context.Context, id string, audit *models.AuditLog) error
}

// CreateGroupRequest represents payload for creating student groups.
type CreateGroupRequest struct {
	Name         string `json:"name" validate:"required,notblank,max=255"`
	StudentCount int    `json:"student_count" validate:"gte=0"`
	Subjects     string `json:"subjects" validate:"max=1000"`
}

// UpdateGroupRequest is a partial update.
type UpdateGroupRequest struct {
	Name         *string `json:"name" validate:"omitnil,notblank,max=255"`
	StudentCount *int    `json:"student_count" validate:"omitnil,gte=0"`
	Subjects     *string `json:"subjects" validate:"omitnil,max=1000"`
	Active       *bool   `json:"active"`
}

// GroupService orchestrates group operations.
type GroupService struct {
	repo      groupRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(repo groupRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns groups plus pagination data.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) ([]models.Group, *models.Pagination, error) {
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list groups")
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a group by id.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	if !validID(id) {
		return nil, appErrors.NotFound(models.AuditResourceGroup, id)
	}
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(models.AuditResourceGroup, id)
		}
		return nil, appErrors.Internal(err, "failed to load group")
	}
	return group, nil
}

// Create registers a group.
func (s *GroupService) Create(ctx context.Context, actor models.Actor, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}

	group := &models.Group{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		StudentCount: req.StudentCount,
		Subjects:     strings.TrimSpace(req.Subjects),
		Active:       true,
	}
	audit := newAuditLog(ctx, actor, models.AuditActionCreate, models.AuditResourceGroup, group.ID, req)
	if err := s.repo.Create(ctx, group, audit); err != nil {
		return nil, appErrors.Internal(err, "failed to create group")
	}
	return group, nil
}

// Update applies the non-nil fields of req.
func (s *GroupService) Update(ctx context.Context, actor models.Actor, id string, req UpdateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}

	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		renamed = name != group.Name
		group.Name = name
	}
	if req.StudentCount != nil {
		group.StudentCount = *req.StudentCount
	}
	if req.Subjects != nil {
		group.Subjects = strings.TrimSpace(*req.Subjects)
	}
	toggled := req.Active != nil && *req.Active != group.Active
	if req.Active != nil {
		group.Active = *req.Active
	}

	audit := newAuditLog(ctx, actor, models.AuditActionUpdate, models.AuditResourceGroup, group.ID, req)
	if err := s.repo.Update(ctx, group, audit); err != nil {
		return nil, appErrors.Internal(err, "failed to update group")
	}

	if renamed || toggled {
		invalidateTimetables(ctx, s.cache, s.logger)
	}
	return group, nil
}

// Deactivate soft deletes a group. Its stored timetables stay queryable.
func (s *GroupService) Deactivate(ctx context.Context, actor models.Actor, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	audit := newAuditLog(ctx, actor, models.AuditActionDeactivate, models.AuditResourceGroup, id, nil)
	if err := s.repo.Deactivate(ctx, id, audit); err != nil {
		return appErrors.Internal(err, "failed to deactivate group")
	}
	invalidateTimetables(ctx, s.cache, s.logger)
	return nil
}
