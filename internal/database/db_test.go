package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldsight/fieldsight/internal/models"
)

func TestOpenInMemorySQLite(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, sqlDB.Ping())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestAutoMigrateAndSeed(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrateAndSeed(db))

	var officer models.User
	require.NoError(t, db.Where("id = ?", DemoOfficerID).First(&officer).Error)
	require.Equal(t, "demo.officer", officer.Username)

	var membership models.TeamMember
	require.NoError(t, db.Where("team_id = ? AND user_id = ?", DemoTeamID, DemoOfficerID).First(&membership).Error)

	// Seeding is idempotent.
	require.NoError(t, SeedData(db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
