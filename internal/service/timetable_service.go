package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	timetableCachePrefix = "timetable:query:"
	// TimetableCachePattern matches every cached timetable view.
	TimetableCachePattern = timetableCachePrefix + "*"
)

type timetableStore interface {
	Replace(ctx context.Context, key models.TimetableKey, entries []models.TimetableEntry, audit *models.AuditLog) error
	Query(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableView, error)
	ReplaceExclusive(ctx context.Context, key models.TimetableKey, build func(others []models.TimetableEntry) ([]models.TimetableEntry, *models.AuditLog, error)) error
}

type activeTeacherLister interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type activeRoomLister interface {
	ListActive(ctx context.Context) ([]models.Room, error)
}

type activeConstraintLister interface {
	ListActive(ctx context.Context) ([]models.Constraint, error)
}

// TimetableServiceConfig tunes generation and caching.
type TimetableServiceConfig struct {
	Subjects            []string
	SoftConstraintTypes []string
	GlobalExclusion     bool
	CacheTTL            time.Duration
	// RandSource builds the random source of one generation. Defaults to scheduler.NewRand.
	RandSource func() scheduler.Rand
}

// TimetableService generates, stores and reads timetables.
type TimetableService struct {
	store       timetableStore
	groups      groupFinder
	teachers    activeTeacherLister
	rooms       activeRoomLister
	constraints activeConstraintLister
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TimetableServiceConfig
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(store timetableStore, groups groupFinder, teachers activeTeacherLister, rooms activeRoomLister, constraints activeConstraintLister, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg TimetableServiceConfig) *TimetableService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RandSource == nil {
		cfg.RandSource = scheduler.NewRand
	}
	return &TimetableService{
		store:       store,
		groups:      groups,
		teachers:    teachers,
		rooms:       rooms,
		constraints: constraints,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds a new timetable for the requested group and date and replaces the
// stored one. Nothing is written unless the whole grid was produced.
func (s *TimetableService) Generate(ctx context.Context, actor models.Actor, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	start := time.Now()

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid generation request")
	}
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}

	group, err := s.groups.FindByID(ctx, req.GroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound(models.AuditResourceGroup, req.GroupID)
		}
		return nil, s.generationFailed(start, appErrors.Internal(err, "failed to load group"))
	}
	if !group.Active {
		return nil, appErrors.NotFound(models.AuditResourceGroup, req.GroupID)
	}

	input, err := s.snapshot(ctx, group.ID, date)
	if err != nil {
		return nil, s.generationFailed(start, err)
	}

	key := models.TimetableKey{GroupID: group.ID, Date: date}
	var (
		result    *scheduler.Result
		engineErr error
	)
	build := func(others []models.TimetableEntry) ([]models.TimetableEntry, *models.AuditLog, error) {
		if s.cfg.GlobalExclusion {
			input.Busy = scheduler.NewBusy(others)
		}
		result, engineErr = scheduler.Generate(*input, s.cfg.RandSource())
		if engineErr != nil {
			return nil, nil, engineErr
		}
		audit := newAuditLog(ctx, actor, models.AuditActionGenerate, models.AuditResourceTimetable, key.String(), map[string]interface{}{
			"group_id": group.ID,
			"date":     req.Date,
			"created":  len(result.Entries),
			"skipped":  len(result.Skipped),
		})
		return result.Entries, audit, nil
	}

	err = s.write(ctx, key, build)
	if engineErr != nil {
		s.metrics.RecordGeneration(GenerationPrecondition, 0, 0, time.Since(start))
		if errors.Is(engineErr, scheduler.ErrNoRooms) || errors.Is(engineErr, scheduler.ErrNoSubjects) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, engineErr.Error())
		}
		return nil, appErrors.Internal(engineErr, "failed to generate timetable")
	}
	if err != nil {
		return nil, s.generationFailed(start, appErrors.Internal(err, "failed to store timetable"))
	}

	s.metrics.RecordGeneration(GenerationSucceeded, len(result.Entries), len(result.Skipped), time.Since(start))
	invalidateTimetables(ctx, s.cache, s.logger)
	s.logger.Info("timetable generated",
		zap.String("group_id", group.ID),
		zap.String("date", req.Date),
		zap.String("actor", actor.String()),
		zap.Int("created", len(result.Entries)),
		zap.Int("skipped", len(result.Skipped)),
	)

	return &dto.GenerateTimetableResponse{
		GroupID: group.ID,
		Date:    req.Date,
		Created: len(result.Entries),
		Skipped: result.Skipped,
		Entries: result.Entries,
	}, nil
}

// snapshot reads everything the engine needs except other groups' entries, which are
// read inside the store transaction when exclusion is on.
func (s *TimetableService) snapshot(ctx context.Context, groupID string, date time.Time) (*scheduler.Input, error) {
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teachers")
	}
	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load rooms")
	}
	constraints, err := s.constraints.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load constraints")
	}

	input := &scheduler.Input{
		GroupID:  groupID,
		Date:     date,
		Teachers: teachers,
		Rooms:    rooms,
		Subjects: s.cfg.Subjects,
		Index:    scheduler.NewConstraintIndex(constraints, s.cfg.SoftConstraintTypes...),
	}

	return input, nil
}

// write runs build and stores its result. With cross-group exclusion the engine runs
// inside the store transaction, after the other groups' entries were read under a
// date-wide lock.
func (s *TimetableService) write(ctx context.Context, key models.TimetableKey, build func([]models.TimetableEntry) ([]models.TimetableEntry, *models.AuditLog, error)) error {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("timetable_replace", time.Since(start)) }()

	if s.cfg.GlobalExclusion {
		return s.store.ReplaceExclusive(ctx, key, build)
	}
	entries, audit, err := build(nil)
	if err != nil {
		return err
	}
	return s.store.Replace(ctx, key, entries, audit)
}

func (s *TimetableService) generationFailed(start time.Time, err error) error {
	s.metrics.RecordGeneration(GenerationFailed, 0, 0, time.Since(start))
	s.logger.Error("timetable generation failed", zap.Error(err))
	return err
}

// Query returns the joined timetable view matching q.
func (s *TimetableService) Query(ctx context.Context, q dto.TimetableQuery) ([]models.TimetableView, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, validationError(err, "invalid timetable filter")
	}

	filter := models.TimetableFilter{
		GroupID:   q.GroupID,
		TeacherID: q.TeacherID,
		Search:    strings.TrimSpace(q.Search),
	}
	if q.Date != "" {
		date, err := time.Parse(models.DateLayout, q.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
		}
		filter.Date = &date
	}

	key := timetableCacheKey(filter)
	var cached []models.TimetableView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	views, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to query timetable")
	}
	if views == nil {
		views = []models.TimetableView{}
	}

	_ = s.cache.Set(ctx, key, views, s.cfg.CacheTTL)
	return views, nil
}

func timetableCacheKey(filter models.TimetableFilter) string {
	date := ""
	if filter.Date != nil {
		date = filter.Date.Format(models.DateLayout)
	}
	raw := strings.Join([]string{filter.GroupID, filter.TeacherID, date, strings.ToLower(filter.Search)}, "|")
	sum := sha256.Sum256([]byte(raw))
	return timetableCachePrefix + hex.EncodeToString(sum[:16])
}
