package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

func newConstraintFixture() (*ConstraintService, *stubConstraintRepo, *stubAuditRepo) {
	teachers := newStubTeacherRepo(
		models.Teacher{ID: teacherOneID, Name: "M. Dupont", Active: true},
		models.Teacher{ID: teacherTwoID, Name: "Mme Lefèvre", Active: true},
	)
	groups := newStubGroupRepo(models.Group{ID: groupOneID, Name: "L1 Informatique", Active: true})
	repo := newStubConstraintRepo()
	audits := &stubAuditRepo{}
	repo.audits = audits
	return NewConstraintService(repo, teachers, groups, nil, nil), repo, audits
}

func TestConstraintServiceCreateNormalisesDayAndTime(t *testing.T) {
	svc, _, audits := newConstraintFixture()

	c, err := svc.Create(context.Background(), testActor, CreateConstraintRequest{
		ResourceType:   "teacher",
		ResourceID:     teacherOneID,
		Day:            "Monday",
		Time:           "8:00",
		ConstraintType: "unavailable",
	})
	require.NoError(t, err)
	assert.Equal(t, "lundi", c.Day)
	assert.Equal(t, "08:00", c.Time)
	assert.Equal(t, "M. Dupont", c.ResourceName)
	assert.True(t, c.Active)
	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditResourceConstraint, audits.logs[0].Resource)
}

func TestConstraintServiceCreateRejectsMalformedInput(t *testing.T) {
	svc, repo, _ := newConstraintFixture()

	_, err := svc.Create(context.Background(), testActor, CreateConstraintRequest{
		ResourceType:   "room",
		ResourceID:     teacherOneID,
		Day:            "funday",
		Time:           "25:99",
		ConstraintType: "unavailable",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "oneof", appErr.Details["resource_type"])
	assert.Equal(t, "weekday", appErr.Details["day"])
	assert.Equal(t, "hhmm", appErr.Details["time"])
	assert.Empty(t, repo.items)
}

func TestConstraintServiceCreateUnknownResource(t *testing.T) {
	svc, _, _ := newConstraintFixture()

	_, err := svc.Create(context.Background(), testActor, CreateConstraintRequest{
		ResourceType:   "group",
		ResourceID:     unknownID,
		Day:            "mardi",
		Time:           "14:00",
		ConstraintType: "preference",
	})
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "group", appErr.Details["resource"])
}

func TestConstraintServiceUpdateRetargetsName(t *testing.T) {
	svc, _, _ := newConstraintFixture()
	c, err := svc.Create(context.Background(), testActor, CreateConstraintRequest{
		ResourceType: "teacher", ResourceID: teacherOneID, Day: "lundi", Time: "08:00", ConstraintType: "unavailable",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), testActor, c.ID, UpdateConstraintRequest{ResourceID: strPtr(teacherTwoID), Time: strPtr("10:00:00")})
	require.NoError(t, err)
	assert.Equal(t, "Mme Lefèvre", updated.ResourceName)
	assert.Equal(t, "10:00", updated.Time)
	assert.Equal(t, "lundi", updated.Day)

	require.NoError(t, svc.Deactivate(context.Background(), testActor, c.ID))
	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestConstraintServiceListRejectsUnknownResourceType(t *testing.T) {
	svc, _, _ := newConstraintFixture()

	_, _, err := svc.List(context.Background(), models.ConstraintFilter{ResourceType: "room"})
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	list, pagination, err := svc.List(context.Background(), models.ConstraintFilter{ResourceID: "garbage"})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, pagination.TotalCount)
}
