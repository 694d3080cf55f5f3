package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type timetableFixture struct {
	svc         *TimetableService
	store       *stubTimetableStore
	teachers    *stubTeacherRepo
	rooms       *stubRoomRepo
	groups      *stubGroupRepo
	constraints *stubConstraintRepo
	metrics     *MetricsService
	cacheRepo   *stubCacheRepo
	cache       *CacheService
}

func newTimetableFixture(cfg TimetableServiceConfig) *timetableFixture {
	f := &timetableFixture{
		store: newStubTimetableStore(),
		teachers: newStubTeacherRepo(
			models.Teacher{ID: teacherOneID, Name: "M. Dupont", Active: true},
			models.Teacher{ID: teacherTwoID, Name: "Mme Lefèvre", Active: true},
		),
		rooms:  newStubRoomRepo(models.Room{ID: roomOneID, Name: "Salle 101", Capacity: 30, Active: true}),
		groups: newStubGroupRepo(models.Group{ID: groupOneID, Name: "L1 Informatique", Active: true}, models.Group{ID: groupTwoID, Name: "L2", Active: false}),
		constraints: newStubConstraintRepo(models.Constraint{
			ID: constraintOne, ResourceType: models.ResourceTeacher, ResourceID: teacherOneID,
			Day: "lundi", Time: "08:00", ConstraintType: models.ConstraintUnavailable, Active: true,
		}),
		metrics:   NewMetricsService(),
		cacheRepo: &stubCacheRepo{},
	}
	f.store.names = map[string]string{groupOneID: "L1 Informatique", roomOneID: "Salle 101"}
	f.store.teachers = f.teachers
	if cfg.Subjects == nil {
		cfg.Subjects = []string{"Mathématiques", "Physique"}
	}
	if cfg.RandSource == nil {
		cfg.RandSource = func() scheduler.Rand { return fixedRand{pick: func(int) int { return 0 }} }
	}
	f.cache = NewCacheService(f.cacheRepo, f.metrics, time.Minute, zap.NewNop(), true)
	f.svc = NewTimetableService(f.store, f.groups, f.teachers, f.rooms, f.constraints, f.cache, f.metrics, nil, zap.NewNop(), cfg)
	return f
}

func generateRequest() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{GroupID: groupOneID, Date: generationDate}
}

func TestTimetableServiceGenerateAvoidsUnavailableTeacher(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})

	res, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)
	assert.Equal(t, 20, res.Created)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Entries, 20)

	first := res.Entries[0]
	assert.Equal(t, "lundi", first.Day)
	assert.Equal(t, "08:00", first.StartTime)
	assert.Equal(t, teacherTwoID, first.TeacherID)
	assert.Equal(t, teacherOneID, res.Entries[1].TeacherID)

	require.Len(t, f.store.audits, 1)
	audit := f.store.audits[0]
	assert.Equal(t, models.AuditActionGenerate, audit.Action)
	assert.Equal(t, models.AuditResourceTimetable, audit.Resource)
	assert.JSONEq(t, `{"group_id":"`+groupOneID+`","date":"2024-09-04","created":20,"skipped":0}`, string(audit.Detail))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.generationRuns.WithLabelValues(GenerationSucceeded)))
	assert.Equal(t, 20.0, testutil.ToFloat64(f.metrics.generatedEntries))
}

func TestTimetableServiceRegenerationLeavesOneSet(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{RandSource: scheduler.NewRand})

	_, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)
	_, err = f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)

	views, err := f.svc.Query(context.Background(), dto.TimetableQuery{GroupID: groupOneID, Date: generationDate})
	require.NoError(t, err)
	assert.Len(t, views, 20)
	for _, v := range views {
		if v.Day == "lundi" && v.StartTime == "08:00" {
			assert.Equal(t, teacherTwoID, v.TeacherID)
		}
	}
}

func TestTimetableServiceRoundTripThroughQuery(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})

	res, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)

	views, err := f.svc.Query(context.Background(), dto.TimetableQuery{GroupID: groupOneID})
	require.NoError(t, err)
	require.Len(t, views, len(res.Entries))

	byKey := make(map[string]models.TimetableView, len(views))
	for _, v := range views {
		byKey[v.Day+v.StartTime] = v
	}
	for _, e := range res.Entries {
		v, ok := byKey[e.Day+e.StartTime]
		require.True(t, ok)
		assert.Equal(t, e.TeacherID, v.TeacherID)
		assert.Equal(t, e.RoomID, v.RoomID)
		assert.Equal(t, e.Subject, v.Subject)
		assert.Equal(t, e.EndTime, v.EndTime)
		assert.Equal(t, "L1 Informatique", v.GroupName)
	}
}

func TestTimetableServiceNoRoomsIsPrecondition(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})
	f.rooms.items = map[string]*models.Room{}

	_, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusPreconditionFailed, appErr.Status)
	assert.Equal(t, "no active rooms configured", appErr.Message)
	assert.Zero(t, f.store.replaceCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.generationRuns.WithLabelValues(GenerationPrecondition)))
}

func TestTimetableServiceNoSubjectsIsPrecondition(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{Subjects: []string{}})

	_, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	assert.Equal(t, http.StatusPreconditionFailed, appErrors.FromError(err).Status)
	assert.Zero(t, f.store.replaceCalls)
}

func TestTimetableServiceNoTeachersStoresEmptySet(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})
	f.teachers.items = map[string]*models.Teacher{}

	res, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Len(t, res.Skipped, 20)
	assert.Equal(t, scheduler.SkipNoEligibleTeacher, res.Skipped[0].Reason)
	assert.Equal(t, 1, f.store.replaceCalls)
}

func TestTimetableServiceGroupMustExistAndBeActive(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})

	_, err := f.svc.Generate(context.Background(), testActor, dto.GenerateTimetableRequest{GroupID: unknownID, Date: generationDate})
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Contains(t, appErr.Message, unknownID)

	_, err = f.svc.Generate(context.Background(), testActor, dto.GenerateTimetableRequest{GroupID: groupTwoID, Date: generationDate})
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Zero(t, f.store.replaceCalls)
}

func TestTimetableServiceGenerateValidation(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})

	for _, req := range []dto.GenerateTimetableRequest{
		{GroupID: groupOneID, Date: "04/09/2024"},
		{GroupID: "group-1", Date: generationDate},
		{},
	} {
		_, err := f.svc.Generate(context.Background(), testActor, req)
		assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status, "%+v", req)
	}
}

func TestTimetableServiceStoreFailureIsInternal(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})
	f.store.replaceErr = errors.New("serialization failure")

	_, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.generationRuns.WithLabelValues(GenerationFailed)))
}

func TestTimetableServiceSoftConstraintTypes(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{SoftConstraintTypes: []string{"unavailable"}})

	res, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)
	assert.Equal(t, teacherOneID, res.Entries[0].TeacherID)
}

func TestTimetableServiceGlobalExclusion(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{GlobalExclusion: true})
	date, _ := time.Parse(models.DateLayout, generationDate)
	f.store.others = []models.TimetableEntry{
		{GroupID: groupTwoID, TeacherID: teacherTwoID, RoomID: roomTwoID, Day: "lundi", StartTime: "08:00", Date: date},
	}

	res, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.othersCalls)
	assert.Equal(t, 1, f.store.replaceCalls)
	require.Len(t, f.store.audits, 1)
	assert.JSONEq(t, `{"group_id":"`+groupOneID+`","date":"2024-09-04","created":19,"skipped":1}`, string(f.store.audits[0].Detail))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "lundi", res.Skipped[0].Day)
	assert.Equal(t, "08:00", res.Skipped[0].Start)
	assert.Equal(t, 19, res.Created)
}

func TestTimetableServiceGlobalExclusionPreconditionWritesNothing(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{GlobalExclusion: true})
	f.rooms.items = map[string]*models.Room{}

	_, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	assert.Equal(t, http.StatusPreconditionFailed, appErrors.FromError(err).Status)
	assert.Equal(t, 1, f.store.othersCalls)
	assert.Zero(t, f.store.replaceCalls)
}

func TestTimetableServiceWithoutExclusionSkipsDateLock(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})

	_, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)
	assert.Zero(t, f.store.othersCalls)
	assert.Equal(t, 1, f.store.replaceCalls)
}

func TestTimetableServiceQueryCachesAndGenerateInvalidates(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})
	_, err := f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)

	q := dto.TimetableQuery{GroupID: groupOneID, Search: "lefèvre"}
	first, err := f.svc.Query(context.Background(), q)
	require.NoError(t, err)
	second, err := f.svc.Query(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.queryCalls)
	assert.Len(t, second, len(first))
	assert.Len(t, f.cacheRepo.store, 1)

	_, err = f.svc.Generate(context.Background(), testActor, generateRequest())
	require.NoError(t, err)
	assert.Empty(t, f.cacheRepo.store)

	_, err = f.svc.Query(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.queryCalls)
}

func TestTimetableServiceDeactivatedTeacherShowsBlankName(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})
	ctx := context.Background()
	_, err := f.svc.Generate(ctx, testActor, generateRequest())
	require.NoError(t, err)

	q := dto.TimetableQuery{TeacherID: teacherTwoID}
	before, err := f.svc.Query(ctx, q)
	require.NoError(t, err)
	require.NotEmpty(t, before)
	assert.Equal(t, "Mme Lefèvre", before[0].TeacherName)

	teachers := NewTeacherService(f.teachers, f.cache, nil, nil)
	require.NoError(t, teachers.Deactivate(ctx, testActor, teacherTwoID))

	after, err := f.svc.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for _, v := range after {
		assert.Equal(t, teacherTwoID, v.TeacherID)
		assert.Empty(t, v.TeacherName)
	}
	assert.Equal(t, 2, f.store.queryCalls)
}

func TestTimetableServiceQueryValidation(t *testing.T) {
	f := newTimetableFixture(TimetableServiceConfig{})

	_, err := f.svc.Query(context.Background(), dto.TimetableQuery{Date: "2024-13-01"})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	views, err := f.svc.Query(context.Background(), dto.TimetableQuery{})
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestTimetableCacheKeyIsStable(t *testing.T) {
	date, _ := time.Parse(models.DateLayout, generationDate)
	a := timetableCacheKey(models.TimetableFilter{GroupID: groupOneID, Date: &date, Search: "Physique"})
	b := timetableCacheKey(models.TimetableFilter{GroupID: groupOneID, Date: &date, Search: "physique"})
	c := timetableCacheKey(models.TimetableFilter{GroupID: groupOneID})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "timetable:query:")
}
