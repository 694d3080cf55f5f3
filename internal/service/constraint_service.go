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
	"github.com/noah-isme/timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type constraintRepository interface {
	List(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, int, error)
	FindByID(ctx context.Context, id string) (*models.Constraint, error)
	Create(ctx context.Context, constraint *models.Constraint, audit *models.AuditLog) error
	Update(ctx context.Context, constraint *models.Constraint, audit *models.AuditLog) error
	Deactivate(ctx context.Context, id string, audit *models.AuditLog) error
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type groupFinder interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// CreateConstraintRequest represents payload for creating constraints.
type CreateConstraintRequest struct {
	ResourceType   string `json:"resource_type" validate:"required,oneof=teacher group"`
	ResourceID     string `json:"resource_id" validate:"required,uuid"`
	Day            string `json:"day" validate:"required,weekday"`
	Time           string `json:"time" validate:"required,hhmm"`
	ConstraintType string `json:"constraint_type" validate:"required,notblank,max=50"`
}

// UpdateConstraintRequest is a partial update.
type UpdateConstraintRequest struct {
	ResourceType   *string `json:"resource_type" validate:"omitnil,oneof=teacher group"`
	ResourceID     *string `json:"resource_id" validate:"omitnil,uuid"`
	Day            *string `json:"day" validate:"omitnil,weekday"`
	Time           *string `json:"time" validate:"omitnil,hhmm"`
	ConstraintType *string `json:"constraint_type" validate:"omitnil,notblank,max=50"`
	Active         *bool   `json:"active"`
}

// ConstraintService orchestrates constraint operations. Day and time are stored in
// canonical form so the generator can match them by equality.
type ConstraintService struct {
	repo      constraintRepository
	teachers  teacherFinder
	groups    groupFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConstraintService constructs a ConstraintService.
func NewConstraintService(repo constraintRepository, teachers teacherFinder, groups groupFinder, validate *validator.Validate, logger *zap.Logger) *ConstraintService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{repo: repo, teachers: teachers, groups: groups, validator: validate, logger: logger}
}

// List returns constraints plus pagination data.
func (s *ConstraintService) List(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, *models.Pagination, error) {
	if filter.ResourceType != "" && filter.ResourceType != models.ResourceTeacher && filter.ResourceType != models.ResourceGroup {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "resource_type must be teacher or group")
	}
	if filter.ResourceID != "" && !validID(filter.ResourceID) {
		return []models.Constraint{}, paginate(filter.Page, filter.PageSize, 0), nil
	}
	constraints, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list constraints")
	}
	if constraints == nil {
		constraints = []models.Constraint{}
	}
	return constraints, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a constraint by id.
func (s *ConstraintService) Get(ctx context.Context, id string) (*models.Constraint, error) {
	if !validID(id) {
		return nil, appErrors.NotFound(models.AuditResourceConstraint, id)
	}
	constraint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(models.AuditResourceConstraint, id)
		}
		return nil, appErrors.Internal(err, "failed to load constraint")
	}
	return constraint, nil
}

// Create registers a constraint against an existing teacher or group.
func (s *ConstraintService) Create(ctx context.Context, actor models.Actor, req CreateConstraintRequest) (*models.Constraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid constraint payload")
	}

	constraint := &models.Constraint{
		ID:             uuid.NewString(),
		ResourceType:   models.ResourceType(req.ResourceType),
		ResourceID:     req.ResourceID,
		ConstraintType: strings.TrimSpace(req.ConstraintType),
		Active:         true,
	}
	constraint.Day, _ = scheduler.NormalizeDay(req.Day)
	constraint.Time, _ = scheduler.NormalizeClock(req.Time)

	name, err := s.resourceName(ctx, constraint.ResourceType, constraint.ResourceID)
	if err != nil {
		return nil, err
	}
	constraint.ResourceName = name

	audit := newAuditLog(ctx, actor, models.AuditActionCreate, models.AuditResourceConstraint, constraint.ID, req)
	if err := s.repo.Create(ctx, constraint, audit); err != nil {
		return nil, appErrors.Internal(err, "failed to create constraint")
	}
	return constraint, nil
}

// Update applies the non-nil fields of req.
func (s *ConstraintService) Update(ctx context.Context, actor models.Actor, id string, req UpdateConstraintRequest) (*models.Constraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid constraint payload")
	}

	constraint, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	retarget := false
	if req.ResourceType != nil && models.ResourceType(*req.ResourceType) != constraint.ResourceType {
		constraint.ResourceType = models.ResourceType(*req.ResourceType)
		retarget = true
	}
	if req.ResourceID != nil && *req.ResourceID != constraint.ResourceID {
		constraint.ResourceID = *req.ResourceID
		retarget = true
	}
	if req.Day != nil {
		constraint.Day, _ = scheduler.NormalizeDay(*req.Day)
	}
	if req.Time != nil {
		constraint.Time, _ = scheduler.NormalizeClock(*req.Time)
	}
	if req.ConstraintType != nil {
		constraint.ConstraintType = strings.TrimSpace(*req.ConstraintType)
	}
	if req.Active != nil {
		constraint.Active = *req.Active
	}

	if retarget {
		name, err := s.resourceName(ctx, constraint.ResourceType, constraint.ResourceID)
		if err != nil {
			return nil, err
		}
		constraint.ResourceName = name
	}

	audit := newAuditLog(ctx, actor, models.AuditActionUpdate, models.AuditResourceConstraint, constraint.ID, req)
	if err := s.repo.Update(ctx, constraint, audit); err != nil {
		return nil, appErrors.Internal(err, "failed to update constraint")
	}

	return constraint, nil
}

// Deactivate soft deletes a constraint; the generator stops consulting it.
func (s *ConstraintService) Deactivate(ctx context.Context, actor models.Actor, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	audit := newAuditLog(ctx, actor, models.AuditActionDeactivate, models.AuditResourceConstraint, id, nil)
	if err := s.repo.Deactivate(ctx, id, audit); err != nil {
		return appErrors.Internal(err, "failed to deactivate constraint")
	}
	return nil
}

// resourceName copies the display name of the constrained teacher or group.
func (s *ConstraintService) resourceName(ctx context.Context, kind models.ResourceType, id string) (string, error) {
	var (
		name string
		err  error
	)
	switch kind {
	case models.ResourceTeacher:
		var teacher *models.Teacher
		if teacher, err = s.teachers.FindByID(ctx, id); err == nil {
			name = teacher.Name
		}
	case models.ResourceGroup:
		var group *models.Group
		if group, err = s.groups.FindByID(ctx, id); err == nil {
			name = group.Name
		}
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "resource_type must be teacher or group")
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.NotFound(string(kind), id)
		}
		return "", appErrors.Internal(err, "failed to load constrained resource")
	}
	return name, nil
}
