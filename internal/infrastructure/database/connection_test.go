package database_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/autobuild-go/internal/infrastructure/config"
	"github.com/andrescamacho/autobuild-go/internal/infrastructure/database"
)

func TestNewTestConnection_MigratesPlannerTables(t *testing.T) {
	// Act
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	defer database.Close(db)

	// Assert
	for _, table := range []string{"planner_sessions", "dispatched_actions", "plan_ticks", "planner_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNewConnection_SQLiteFile(t *testing.T) {
	// Arrange
	cfg := &config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "autobuild.db")}

	// Act
	db, err := database.NewConnection(cfg)
	require.NoError(t, err)
	defer database.Close(db)

	// Assert
	require.NoError(t, database.AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable("dispatched_actions"))
}

func TestNewConnection_UnsupportedType(t *testing.T) {
	_, err := database.NewConnection(&config.DatabaseConfig{Type: "mysql"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type: mysql")
}
