package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const (
	teacherOneID   = "11111111-1111-1111-1111-111111111111"
	teacherTwoID   = "22222222-2222-2222-2222-222222222222"
	groupOneID     = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaa01"
	groupTwoID     = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaa02"
	roomOneID      = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbb101"
	roomTwoID      = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbb102"
	constraintOne  = "cccccccc-cccc-cccc-cccc-cccccccccc01"
	unknownID      = "99999999-9999-9999-9999-999999999999"
	generationDate = "2024-09-04"
)

var testActor = models.Actor{ID: "admin"}

type stubAuditRepo struct {
	mu      sync.Mutex
	logs    []models.AuditLog
	err     error
	listErr error
}

// record stands in for the audit insert sharing a write's transaction. Stub repos call
// it before touching their state so a failure leaves them unchanged.
func (s *stubAuditRepo) record(log *models.AuditLog) error {
	if s == nil || log == nil {
		return nil
	}
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *log)
	return nil
}

func (s *stubAuditRepo) List(_ context.Context, _ models.AuditFilter) ([]models.AuditLog, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return s.logs, len(s.logs), nil
}

type stubTeacherRepo struct {
	items       map[string]*models.Teacher
	audits      *stubAuditRepo
	createErr   error
	updated     []models.Teacher
	deactivated []string
}

func newStubTeacherRepo(teachers ...models.Teacher) *stubTeacherRepo {
	repo := &stubTeacherRepo{items: make(map[string]*models.Teacher)}
	for i := range teachers {
		t := teachers[i]
		repo.items[t.ID] = &t
	}
	return repo
}

func (s *stubTeacherRepo) List(_ context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, t := range s.items {
		if t.Active || filter.IncludeInactive {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (s *stubTeacherRepo) ListActive(ctx context.Context) ([]models.Teacher, error) {
	out, _, err := s.List(ctx, models.TeacherFilter{})
	return out, err
}

func (s *stubTeacherRepo) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	t, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (s *stubTeacherRepo) Create(_ context.Context, teacher *models.Teacher, audit *models.AuditLog) error {
	if s.createErr != nil {
		return s.createErr
	}
	if err := s.audits.record(audit); err != nil {
		return err
	}
	if teacher.ID == "" {
		teacher.ID = teacherOneID
	}
	cp := *teacher
	s.items[teacher.ID] = &cp
	return nil
}

func (s *stubTeacherRepo) Update(_ context.Context, teacher *models.Teacher, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	cp := *teacher
	s.items[teacher.ID] = &cp
	s.updated = append(s.updated, cp)
	return nil
}

func (s *stubTeacherRepo) Deactivate(_ context.Context, id string, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	if t, ok := s.items[id]; ok {
		t.Active = false
	}
	s.deactivated = append(s.deactivated, id)
	return nil
}

type stubRoomRepo struct {
	items  map[string]*models.Room
	audits *stubAuditRepo
	err    error
}

func newStubRoomRepo(rooms ...models.Room) *stubRoomRepo {
	repo := &stubRoomRepo{items: make(map[string]*models.Room)}
	for i := range rooms {
		r := rooms[i]
		repo.items[r.ID] = &r
	}
	return repo
}

func (s *stubRoomRepo) List(_ context.Context, _ models.RoomFilter) ([]models.Room, int, error) {
	var out []models.Room
	for _, r := range s.items {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *stubRoomRepo) ListActive(_ context.Context) ([]models.Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Room
	for _, r := range s.items {
		if r.Active {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *stubRoomRepo) FindByID(_ context.Context, id string) (*models.Room, error) {
	r, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (s *stubRoomRepo) Create(_ context.Context, room *models.Room, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	if room.ID == "" {
		room.ID = roomOneID
	}
	cp := *room
	s.items[room.ID] = &cp
	return nil
}

func (s *stubRoomRepo) Update(_ context.Context, room *models.Room, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	cp := *room
	s.items[room.ID] = &cp
	return nil
}

func (s *stubRoomRepo) Deactivate(_ context.Context, id string, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	if r, ok := s.items[id]; ok {
		r.Active = false
	}
	return nil
}

type stubGroupRepo struct {
	items  map[string]*models.Group
	audits *stubAuditRepo
	err    error
}

func newStubGroupRepo(groups ...models.Group) *stubGroupRepo {
	repo := &stubGroupRepo{items: make(map[string]*models.Group)}
	for i := range groups {
		g := groups[i]
		repo.items[g.ID] = &g
	}
	return repo
}

func (s *stubGroupRepo) List(_ context.Context, _ models.GroupFilter) ([]models.Group, int, error) {
	var out []models.Group
	for _, g := range s.items {
		out = append(out, *g)
	}
	return out, len(out), nil
}

func (s *stubGroupRepo) FindByID(_ context.Context, id string) (*models.Group, error) {
	if s.err != nil {
		return nil, s.err
	}
	g, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *g
	return &cp, nil
}

func (s *stubGroupRepo) Create(_ context.Context, group *models.Group, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	if group.ID == "" {
		group.ID = groupOneID
	}
	cp := *group
	s.items[group.ID] = &cp
	return nil
}

func (s *stubGroupRepo) Update(_ context.Context, group *models.Group, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	cp := *group
	s.items[group.ID] = &cp
	return nil
}

func (s *stubGroupRepo) Deactivate(_ context.Context, id string, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	if g, ok := s.items[id]; ok {
		g.Active = false
	}
	return nil
}

type stubConstraintRepo struct {
	items  map[string]*models.Constraint
	audits *stubAuditRepo
}

func newStubConstraintRepo(constraints ...models.Constraint) *stubConstraintRepo {
	repo := &stubConstraintRepo{items: make(map[string]*models.Constraint)}
	for i := range constraints {
		c := constraints[i]
		repo.items[c.ID] = &c
	}
	return repo
}

func (s *stubConstraintRepo) List(_ context.Context, _ models.ConstraintFilter) ([]models.Constraint, int, error) {
	var out []models.Constraint
	for _, c := range s.items {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (s *stubConstraintRepo) ListActive(_ context.Context) ([]models.Constraint, error) {
	var out []models.Constraint
	for _, c := range s.items {
		if c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubConstraintRepo) FindByID(_ context.Context, id string) (*models.Constraint, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (s *stubConstraintRepo) Create(_ context.Context, constraint *models.Constraint, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	if constraint.ID == "" {
		constraint.ID = constraintOne
	}
	cp := *constraint
	s.items[constraint.ID] = &cp
	return nil
}

func (s *stubConstraintRepo) Update(_ context.Context, constraint *models.Constraint, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	cp := *constraint
	s.items[constraint.ID] = &cp
	return nil
}

func (s *stubConstraintRepo) Deactivate(_ context.Context, id string, audit *models.AuditLog) error {
	if err := s.audits.record(audit); err != nil {
		return err
	}
	if c, ok := s.items[id]; ok {
		c.Active = false
	}
	return nil
}

// stubTimetableStore keeps entries per key, mimicking the replace-for-key contract.
type stubTimetableStore struct {
	mu           sync.Mutex
	sets         map[string][]models.TimetableEntry
	audits       []models.AuditLog
	replaceCalls int
	queryCalls   int
	replaceErr   error
	others       []models.TimetableEntry
	othersCalls  int
	names        map[string]string
	teachers     *stubTeacherRepo
}

func newStubTimetableStore() *stubTimetableStore {
	return &stubTimetableStore{sets: make(map[string][]models.TimetableEntry), names: make(map[string]string)}
}

func (s *stubTimetableStore) Replace(_ context.Context, key models.TimetableKey, entries []models.TimetableEntry, audit *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceCalls++
	if s.replaceErr != nil {
		return s.replaceErr
	}
	stored := make([]models.TimetableEntry, len(entries))
	for i, e := range entries {
		e.ID = key.String() + "#" + e.Day + e.StartTime
		e.CreatedAt = time.Now()
		stored[i] = e
	}
	s.sets[key.String()] = stored
	if audit != nil {
		s.audits = append(s.audits, *audit)
	}
	return nil
}

func (s *stubTimetableStore) Query(_ context.Context, filter models.TimetableFilter) ([]models.TimetableView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryCalls++
	var out []models.TimetableView
	for _, set := range s.sets {
		for _, e := range set {
			if filter.GroupID != "" && e.GroupID != filter.GroupID {
				continue
			}
			if filter.TeacherID != "" && e.TeacherID != filter.TeacherID {
				continue
			}
			if filter.Date != nil && !e.Date.Equal(*filter.Date) {
				continue
			}
			view := models.TimetableView{
				TimetableEntry: e,
				GroupName:      s.names[e.GroupID],
				TeacherName:    s.teacherName(e.TeacherID),
				RoomName:       s.names[e.RoomID],
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(view.Subject+view.TeacherName+view.RoomName), strings.ToLower(filter.Search)) {
				continue
			}
			out = append(out, view)
		}
	}
	return out, nil
}

// teacherName joins like the SQL view: deactivated teachers come back blank.
func (s *stubTimetableStore) teacherName(id string) string {
	if s.teachers == nil {
		return s.names[id]
	}
	if t, ok := s.teachers.items[id]; ok && t.Active {
		return t.Name
	}
	return ""
}

func (s *stubTimetableStore) ReplaceExclusive(ctx context.Context, key models.TimetableKey, build func([]models.TimetableEntry) ([]models.TimetableEntry, *models.AuditLog, error)) error {
	s.mu.Lock()
	s.othersCalls++
	others := s.others
	s.mu.Unlock()

	entries, audit, err := build(others)
	if err != nil {
		return err
	}
	return s.Replace(ctx, key, entries, audit)
}

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range s.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.store, key)
		}
	}
	return nil
}

type countingInvalidator struct {
	patterns []string
}

func (c *countingInvalidator) Invalidate(_ context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}

type fixedRand struct{ pick func(n int) int }

func (f fixedRand) Intn(n int) int { return f.pick(n) }

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
