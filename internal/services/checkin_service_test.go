package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/liuxin327/heartbeat/internal/database/testutil"
	"github.com/liuxin327/heartbeat/internal/models"
)

func createTestTask(t *testing.T, db *gorm.DB, creatorID, title string) *models.Task {
	t.Helper()

	svc, err := NewTaskService(db)
	require.NoError(t, err)

	task, err := svc.Create(context.Background(), creatorID, CreateTaskInput{Title: title})
	require.NoError(t, err)
	return task
}

func TestCheckInCreate(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	task := createTestTask(t, db, alice.ID, "Morning run")

	svc, err := NewCheckInService(db)
	require.NoError(t, err)

	checkIn, err := svc.Create(context.Background(), alice.ID, CreateCheckInInput{
		TaskID:    task.ID,
		Text:      "done before breakfast",
		PhotoURLs: []string{"/static/uploads/a.jpg", "/static/uploads/b.jpg"},
	})
	require.NoError(t, err)
	require.Equal(t, task.ID, checkIn.TaskID)
	require.Equal(t, alice.ID, checkIn.UserID)
	require.Len(t, checkIn.PhotoURLs, 2)
}

func TestCheckInCreateLimitsPhotos(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	task := createTestTask(t, db, alice.ID, "Morning run")

	svc, err := NewCheckInService(db)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), alice.ID, CreateCheckInInput{
		TaskID:    task.ID,
		PhotoURLs: []string{"a", "b", "c", "d"},
	})
	require.Error(t, err)
}

func TestCheckInCreateUnknownTask(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")

	svc, err := NewCheckInService(db)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), alice.ID, CreateCheckInInput{
		TaskID: "7b6be1f0-0000-0000-0000-000000000000",
	})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCheckInVisibilityWithinPair(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	carol := registerTestUser(t, db, "carol")
	pairTestUsers(t, db, alice, bob)
	task := createTestTask(t, db, alice.ID, "Morning run")

	svc, err := NewCheckInService(db)
	require.NoError(t, err)

	checkIn, err := svc.Create(context.Background(), alice.ID, CreateCheckInInput{TaskID: task.ID})
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), bob.ID, checkIn.ID)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), carol.ID, checkIn.ID)
	require.ErrorIs(t, err, ErrCheckInNotVisible)
}

func TestCheckInListByTask(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	carol := registerTestUser(t, db, "carol")
	pairTestUsers(t, db, alice, bob)
	task := createTestTask(t, db, alice.ID, "Morning run")

	current := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	svc, err := NewCheckInService(db, WithCheckInClock(func() time.Time {
		current = current.Add(time.Minute)
		return current
	}))
	require.NoError(t, err)

	mine, err := svc.Create(context.Background(), alice.ID, CreateCheckInInput{TaskID: task.ID})
	require.NoError(t, err)
	partners, err := svc.Create(context.Background(), bob.ID, CreateCheckInInput{TaskID: task.ID})
	require.NoError(t, err)
	outside, err := svc.Create(context.Background(), carol.ID, CreateCheckInInput{TaskID: task.ID})
	require.NoError(t, err)

	checkIns, err := svc.ListByTask(context.Background(), alice.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, checkIns, 2)
	require.Equal(t, partners.ID, checkIns[0].ID)
	require.Equal(t, mine.ID, checkIns[1].ID)
	for _, c := range checkIns {
		require.NotEqual(t, outside.ID, c.ID)
	}
}

func TestCheckInDashboard(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	pairTestUsers(t, db, alice, bob)

	run := createTestTask(t, db, alice.ID, "Morning run")
	read := createTestTask(t, db, alice.ID, "Read a chapter")

	taskSvc, err := NewTaskService(db)
	require.NoError(t, err)
	inactive := false
	retired := createTestTask(t, db, alice.ID, "Retired habit")
	_, err = taskSvc.Update(context.Background(), retired.ID, UpdateTaskInput{IsActive: &inactive})
	require.NoError(t, err)

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	current := day.Add(8 * time.Hour)
	svc, err := NewCheckInService(db, WithCheckInClock(func() time.Time {
		current = current.Add(time.Minute)
		return current
	}))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), alice.ID, CreateCheckInInput{TaskID: run.ID})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), bob.ID, CreateCheckInInput{TaskID: read.ID})
	require.NoError(t, err)

	dashboard, err := svc.Dashboard(context.Background(), alice.ID, day.Add(12*time.Hour))
	require.NoError(t, err)
	require.Equal(t, "2025-06-01", dashboard.Date)
	require.Len(t, dashboard.Entries, 2)

	byTask := map[string]DashboardEntry{}
	for _, entry := range dashboard.Entries {
		byTask[entry.Task.ID] = entry
	}

	require.NotNil(t, byTask[run.ID].Mine)
	require.Nil(t, byTask[run.ID].Partner)
	require.Nil(t, byTask[read.ID].Mine)
	require.NotNil(t, byTask[read.ID].Partner)
}

func TestCheckInDashboardExcludesOtherDays(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	task := createTestTask(t, db, alice.ID, "Morning run")

	yesterday := time.Date(2025, 5, 31, 22, 0, 0, 0, time.UTC)
	svc, err := NewCheckInService(db, WithCheckInClock(func() time.Time { return yesterday }))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), alice.ID, CreateCheckInInput{TaskID: task.ID})
	require.NoError(t, err)

	dashboard, err := svc.Dashboard(context.Background(), alice.ID, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, dashboard.Entries, 1)
	require.Nil(t, dashboard.Entries[0].Mine)
}
