package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liuxin327/heartbeat/internal/database/testutil"
	"github.com/liuxin327/heartbeat/internal/models"
)

func TestScoreRequestLifecycleApprove(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	pairTestUsers(t, db, alice, bob)

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	request, err := svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{
		Points: 10,
		Reason: "did the dishes",
	})
	require.NoError(t, err)
	require.Equal(t, models.ScoreRequestPending, request.Status)
	require.Equal(t, bob.ID, request.TargetID)

	resolved, err := svc.Respond(context.Background(), bob.ID, request.ID, ScoreActionApprove)
	require.NoError(t, err)
	require.Equal(t, models.ScoreRequestApproved, resolved.Status)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", alice.ID).Error)
	require.Equal(t, 10, stored.Score)
}

func TestScoreRequestReject(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	pairTestUsers(t, db, alice, bob)

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	request, err := svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{
		Points: 5,
		Reason: "made dinner",
	})
	require.NoError(t, err)

	resolved, err := svc.Respond(context.Background(), bob.ID, request.ID, ScoreActionReject)
	require.NoError(t, err)
	require.Equal(t, models.ScoreRequestRejected, resolved.Status)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", alice.ID).Error)
	require.Zero(t, stored.Score)
}

func TestScoreRequestNegativePoints(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	pairTestUsers(t, db, alice, bob)

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	request, err := svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{
		Points: -4,
		Reason: "forgot the anniversary",
	})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), bob.ID, request.ID, ScoreActionApprove)
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", alice.ID).Error)
	require.Equal(t, -4, stored.Score)
}

func TestScoreRequestValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	pairTestUsers(t, db, alice, bob)

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	_, err = svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{Points: 10, Reason: "  "})
	require.Error(t, err)

	_, err = svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{Points: 0, Reason: "nothing"})
	require.Error(t, err)
}

func TestScoreRequestWithoutPartner(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	carol := registerTestUser(t, db, "carol")

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	_, err = svc.CreateRequest(context.Background(), carol.ID, CreateScoreRequestInput{
		Points: 3,
		Reason: "watered the plants",
	})
	require.ErrorIs(t, err, ErrScoreNoPartner)
}

func TestScoreRespondOnlyTarget(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	carol := registerTestUser(t, db, "carol")
	pairTestUsers(t, db, alice, bob)

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	request, err := svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{
		Points: 7,
		Reason: "cleaned the kitchen",
	})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), alice.ID, request.ID, ScoreActionApprove)
	require.ErrorIs(t, err, ErrScoreNotTarget)

	_, err = svc.Respond(context.Background(), carol.ID, request.ID, ScoreActionApprove)
	require.ErrorIs(t, err, ErrScoreNotTarget)
}

func TestScoreRespondTerminalState(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	pairTestUsers(t, db, alice, bob)

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	request, err := svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{
		Points: 10,
		Reason: "did the dishes",
	})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), bob.ID, request.ID, ScoreActionApprove)
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), bob.ID, request.ID, ScoreActionReject)
	require.ErrorIs(t, err, ErrScoreAlreadyProcessed)

	// A lost approve race must not double-credit the requester.
	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", alice.ID).Error)
	require.Equal(t, 10, stored.Score)
}

func TestScoreRespondUnknownAction(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	pairTestUsers(t, db, alice, bob)

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	request, err := svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{
		Points: 2,
		Reason: "walked the dog",
	})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), bob.ID, request.ID, "maybe")
	require.ErrorIs(t, err, ErrScoreUnknownAction)

	var stored models.ScoreRequest
	require.NoError(t, db.First(&stored, "id = ?", request.ID).Error)
	require.Equal(t, models.ScoreRequestPending, stored.Status)
}

func TestScoreRespondNotFound(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	bob := registerTestUser(t, db, "bob")

	svc, err := NewScoreService(db)
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), bob.ID, "7b6be1f0-0000-0000-0000-000000000000", ScoreActionApprove)
	require.ErrorIs(t, err, ErrScoreRequestNotFound)
}

func TestScoreListRequestsNewestFirst(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	alice := registerTestUser(t, db, "alice")
	bob := registerTestUser(t, db, "bob")
	pairTestUsers(t, db, alice, bob)

	current := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewScoreService(db, WithScoreClock(func() time.Time {
		current = current.Add(time.Minute)
		return current
	}))
	require.NoError(t, err)

	first, err := svc.CreateRequest(context.Background(), alice.ID, CreateScoreRequestInput{Points: 1, Reason: "first"})
	require.NoError(t, err)
	second, err := svc.CreateRequest(context.Background(), bob.ID, CreateScoreRequestInput{Points: 2, Reason: "second"})
	require.NoError(t, err)

	requests, err := svc.ListRequests(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.Equal(t, second.ID, requests[0].ID)
	require.Equal(t, first.ID, requests[1].ID)
}
