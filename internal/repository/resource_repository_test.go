package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestPageWindow(t *testing.T) {
	limit, offset := pageWindow(0, 0)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageWindow(3, 25)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)

	limit, _ = pageWindow(1, 1000)
	assert.Equal(t, 20, limit)
}

func TestRoomRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + roomColumns + " FROM rooms WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryCreateAndListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rooms").
		WithArgs(sqlmock.AnyArg(), "Salle 101", 30, "projecteur", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Create(context.Background(), &models.Room{Name: "Salle 101", Capacity: 30, Equipment: "projecteur", Active: true}, nil))

	rows := sqlmock.NewRows([]string{"id", "name", "capacity", "equipment", "active", "created_at", "updated_at"}).
		AddRow("r1", "Salle 101", 30, "projecteur", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE active = TRUE")).WillReturnRows(rows)

	rooms, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 30, rooms[0].Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListAndDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "student_count", "subjects", "active", "created_at", "updated_at"}).
		AddRow("g1", "L1 Informatique", 28, "Mathématiques,Informatique", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM groups WHERE 1=1 AND active = TRUE AND (LOWER(name) LIKE $1 OR LOWER(subjects) LIKE $1)")).
		WithArgs("%info%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM groups")).
		WithArgs("%info%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	groups, total, err := repo.List(context.Background(), models.GroupFilter{Search: "Info"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 28, groups[0].StudentCount)
	assert.Equal(t, 1, total)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE groups SET active = FALSE").
		WithArgs("g1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), "admin", "DEACTIVATE", "group", "g1", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	groupID := "g1"
	require.NoError(t, repo.Deactivate(context.Background(), groupID, &models.AuditLog{Actor: "admin", Action: models.AuditActionDeactivate, Resource: models.AuditResourceGroup, ResourceID: &groupID}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	rows := sqlmock.NewRows([]string{"id", "resource_type", "resource_id", "resource_name", "day", "time", "constraint_type", "active", "created_at", "updated_at"}).
		AddRow("c1", "teacher", "t1", "M. Dupont", "lundi", "08:00", "unavailable", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM constraints WHERE 1=1 AND active = TRUE AND resource_type = $1 AND resource_id = $2 ORDER BY created_at DESC")).
		WithArgs("teacher", "t1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM constraints")).
		WithArgs("teacher", "t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.ConstraintFilter{ResourceType: models.ResourceTeacher, ResourceID: "t1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.ResourceTeacher, list[0].ResourceType)
	assert.Equal(t, "08:00", list[0].Time)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO constraints").
		WithArgs(sqlmock.AnyArg(), "teacher", "t1", "M. Dupont", "lundi", "08:00", "unavailable", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c := &models.Constraint{ResourceType: models.ResourceTeacher, ResourceID: "t1", ResourceName: "M. Dupont", Day: "lundi", Time: "08:00", ConstraintType: "unavailable", Active: true}
	require.NoError(t, repo.Create(context.Background(), c, nil))
	assert.NotEmpty(t, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
