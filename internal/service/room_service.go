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

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room, audit *models.AuditLog) error
	Update(ctx context.Context, room *models.Room, audit *models.AuditLog) error
	Deactivate(ctx context.Context, id string, audit *models.AuditLog) error
}

// CreateRoomRequest represents payload for creating rooms.
type CreateRoomRequest struct {
	Name      string `json:"name" validate:"required,notblank,max=255"`
	Capacity  int    `json:"capacity" validate:"required,gt=0"`
	Equipment string `json:"equipment" validate:"max=1000"`
}

// UpdateRoomRequest is a partial update.
type UpdateRoomRequest struct {
	Name      *string `json:"name" validate:"omitnil,notblank,max=255"`
	Capacity  *int    `json:"capacity" validate:"omitnil,gt=0"`
	Equipment *string `json:"equipment" validate:"omitnil,max=1000"`
	Active    *bool   `json:"active"`
}

// RoomService orchestrates room operations.
type RoomService struct {
	repo      roomRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(repo roomRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns rooms plus pagination data.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list rooms")
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a room by id.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	if !validID(id) {
		return nil, appErrors.NotFound(models.AuditResourceRoom, id)
	}
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(models.AuditResourceRoom, id)
		}
		return nil, appErrors.Internal(err, "failed to load room")
	}
	return room, nil
}

// Create registers a room.
func (s *RoomService) Create(ctx context.Context, actor models.Actor, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid room payload")
	}

	room := &models.Room{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Capacity:  req.Capacity,
		Equipment: strings.TrimSpace(req.Equipment),
		Active:    true,
	}
	audit := newAuditLog(ctx, actor, models.AuditActionCreate, models.AuditResourceRoom, room.ID, req)
	if err := s.repo.Create(ctx, room, audit); err != nil {
		return nil, appErrors.Internal(err, "failed to create room")
	}
	return room, nil
}

// Update applies the non-nil fields of req.
func (s *RoomService) Update(ctx context.Context, actor models.Actor, id string, req UpdateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid room payload")
	}

	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	renamed := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		renamed = name != room.Name
		room.Name = name
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Equipment != nil {
		room.Equipment = strings.TrimSpace(*req.Equipment)
	}
	toggled := req.Active != nil && *req.Active != room.Active
	if req.Active != nil {
		room.Active = *req.Active
	}

	audit := newAuditLog(ctx, actor, models.AuditActionUpdate, models.AuditResourceRoom, room.ID, req)
	if err := s.repo.Update(ctx, room, audit); err != nil {
		return nil, appErrors.Internal(err, "failed to update room")
	}

	if renamed || toggled {
		invalidateTimetables(ctx, s.cache, s.logger)
	}
	return room, nil
}

// Deactivate soft deletes a room.
func (s *RoomService) Deactivate(ctx context.Context, actor models.Actor, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	audit := newAuditLog(ctx, actor, models.AuditActionDeactivate, models.AuditResourceRoom, id, nil)
	if err := s.repo.Deactivate(ctx, id, audit); err != nil {
		return appErrors.Internal(err, "failed to deactivate room")
	}
	invalidateTimetables(ctx, s.cache, s.logger)
	return nil
}
