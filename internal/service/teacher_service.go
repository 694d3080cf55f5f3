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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher, audit *models.AuditLog) error
	Update(ctx context.Context, teacher *models.Teacher, audit *models.AuditLog) error
	Deactivate(ctx context.Context, id string, audit *models.AuditLog) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// CreateTeacherRequest represents payload for creating teachers.
type CreateTeacherRequest struct {
	Name         string  `json:"name" validate:"required,notblank,max=255"`
	Email        string  `json:"email" validate:"omitempty,email,max=255"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
	Subjects     string  `json:"subjects" validate:"max=1000"`
	Availability string  `json:"availability" validate:"max=1000"`
}

// UpdateTeacherRequest is a partial update; nil fields are left untouched.
type UpdateTeacherRequest struct {
	Name         *string `json:"name" validate:"omitnil,notblank,max=255"`
	Email        *string `json:"email" validate:"omitnil,omitempty,email,max=255"`
	Phone        *string `json:"phone" validate:"omitnil,max=50"`
	Subjects     *string `json:"subjects" validate:"omitnil,max=1000"`
	Availability *string `json:"availability" validate:"omitnil,max=1000"`
	Active       *bool   `json:"active"`
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	repo      teacherRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.Teacher{}
	}
	return teachers, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a teacher by id, active or not.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	if !validID(id) {
		return nil, appErrors.NotFound(models.AuditResourceTeacher, id)
	}
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(models.AuditResourceTeacher, id)
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, actor models.Actor, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}

	teacher := &models.Teacher{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        normalizeOptional(req.Phone),
		Subjects:     strings.TrimSpace(req.Subjects),
		Availability: strings.TrimSpace(req.Availability),
		Active:       true,
	}
	audit := newAuditLog(ctx, actor, models.AuditActionCreate, models.AuditResourceTeacher, teacher.ID, req)
	if err := s.repo.Create(ctx, teacher, audit); err != nil {
		return nil, appErrors.Internal(err, "failed to create teacher")
	}
	return teacher, nil
}

// Update applies the non-nil fields of req.
func (s *TeacherService) Update(ctx context.Context, actor models.Actor, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		renamed = name != teacher.Name
		teacher.Name = name
	}
	if req.Email != nil {
		teacher.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		teacher.Phone = normalizeOptional(req.Phone)
	}
	if req.Subjects != nil {
		teacher.Subjects = strings.TrimSpace(*req.Subjects)
	}
	if req.Availability != nil {
		teacher.Availability = strings.TrimSpace(*req.Availability)
	}
	toggled := req.Active != nil && *req.Active != teacher.Active
	if req.Active != nil {
		teacher.Active = *req.Active
	}

	audit := newAuditLog(ctx, actor, models.AuditActionUpdate, models.AuditResourceTeacher, teacher.ID, req)
	if err := s.repo.Update(ctx, teacher, audit); err != nil {
		return nil, appErrors.Internal(err, "failed to update teacher")
	}

	if renamed || toggled {
		invalidateTimetables(ctx, s.cache, s.logger)
	}
	return teacher, nil
}

// Deactivate marks a teacher inactive. Generated entries keep referencing it but show
// an empty teacher name from then on.
func (s *TeacherService) Deactivate(ctx context.Context, actor models.Actor, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	audit := newAuditLog(ctx, actor, models.AuditActionDeactivate, models.AuditResourceTeacher, id, nil)
	if err := s.repo.Deactivate(ctx, id, audit); err != nil {
		return appErrors.Internal(err, "failed to deactivate teacher")
	}
	invalidateTimetables(ctx, s.cache, s.logger)
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func invalidateTimetables(ctx context.Context, cache cacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, TimetableCachePattern); err != nil {
		logger.Warn("failed to invalidate timetable cache", zap.Error(err))
	}
}
