package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/liuxin327/heartbeat/internal/models"
)

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	user := &models.User{Username: "alice", Password: "hash", InvitationCode: "abc12345"}
	require.NoError(t, db.Create(user).Error)
	require.NotEmpty(t, user.ID)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestBuildPostgresDSNRequiresCredentials(t *testing.T) {
	_, err := buildPostgresDSN(Config{Driver: "postgres"})
	require.Error(t, err)

	dsn, err := buildPostgresDSN(Config{Driver: "postgres", User: "heartbeat", Name: "heartbeat"})
	require.NoError(t, err)
	require.Contains(t, dsn, "user=heartbeat")
	require.Contains(t, dsn, "sslmode=disable")
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{Driver: "mysql", User: "heartbeat", Password: "pw", Name: "heartbeat"})
	require.NoError(t, err)
	require.Contains(t, dsn, "heartbeat:pw@tcp(127.0.0.1:3306)/heartbeat")
	require.Contains(t, dsn, "parseTime=True")
}
