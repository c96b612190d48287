package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/liuxin327/heartbeat/internal/auth"
	testutil "github.com/liuxin327/heartbeat/internal/database/testutil"
	"github.com/liuxin327/heartbeat/internal/models"
	"github.com/liuxin327/heartbeat/pkg/crypto"
)

func TestCleanupResolvedRequests(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	seedRequest := func(status string, createdAt time.Time) *models.ScoreRequest {
		request := &models.ScoreRequest{
			RequesterID: alice.ID,
			TargetID:    bob.ID,
			Points:      5,
			Reason:      "seeded",
			Status:      status,
		}
		require.NoError(t, db.Create(request).Error)
		require.NoError(t, db.Model(request).Update("created_at", createdAt).Error)
		return request
	}

	oldApproved := seedRequest(models.ScoreRequestApproved, now.AddDate(0, 0, -120))
	oldPending := seedRequest(models.ScoreRequestPending, now.AddDate(0, 0, -120))
	recentRejected := seedRequest(models.ScoreRequestRejected, now.AddDate(0, 0, -5))

	removed, err := CleanupResolvedRequests(context.Background(), db, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var request models.ScoreRequest
	require.ErrorIs(t, db.First(&request, "id = ?", oldApproved.ID).Error, gorm.ErrRecordNotFound)
	require.NoError(t, db.First(&request, "id = ?", oldPending.ID).Error)
	require.NoError(t, db.First(&request, "id = ?", recentRejected.ID).Error)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "cleanup-secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	clock := fixedClock{current: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)}

	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{
		RefreshTokenTTL: time.Hour,
		RefreshLength:   16,
		Clock:           clock.Now,
	})
	require.NoError(t, err)

	user := seedUser(t, db, "cleanup-user")

	_, expiredSession, err := sessionSvc.CreateSession(context.Background(), user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Session{}).Where("id = ?", expiredSession.ID).
		Update("expires_at", clock.Now().Add(-2*time.Hour)).Error)

	_, activeSession, err := sessionSvc.CreateSession(context.Background(), user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)

	_, revokedSession, err := sessionSvc.CreateSession(context.Background(), user.ID, iauth.SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, sessionSvc.RevokeSession(context.Background(), revokedSession.ID))

	stale := &models.ScoreRequest{
		RequesterID: user.ID,
		TargetID:    user.ID,
		Points:      1,
		Reason:      "stale",
		Status:      models.ScoreRequestApproved,
	}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Model(stale).Update("created_at", clock.Now().AddDate(0, 0, -10)).Error)

	c := NewCleaner(db, sessionSvc,
		WithNow(clock.Now),
		WithRequestRetentionDays(7),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	require.NoError(t, c.RunOnce(context.Background()))

	assertNotFound := func(id string) {
		var s models.Session
		err := db.First(&s, "id = ?", id).Error
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	}

	assertNotFound(expiredSession.ID)
	assertNotFound(revokedSession.ID)

	var remaining models.Session
	require.NoError(t, db.First(&remaining, "id = ?", activeSession.ID).Error)

	var requestCount int64
	require.NoError(t, db.Model(&models.ScoreRequest{}).Count(&requestCount).Error)
	require.Equal(t, int64(0), requestCount)
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword("Password123!")
	require.NoError(t, err)

	code, err := crypto.GenerateInviteCode(8)
	require.NoError(t, err)

	user := &models.User{
		ID:             username + "-id",
		Username:       username,
		Password:       hash,
		InvitationCode: code,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}
