package database

import (
	"testing"

	"github.com/gtracker/forum-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}}

	db, err := Open(cfg)
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestDialectorFor_UnknownDriver(t *testing.T) {
	_, err := dialectorFor(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestDialectorFor_MySQLAndPostgres(t *testing.T) {
	d, err := dialectorFor(config.DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", DBName: "forum"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = dialectorFor(config.DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", DBName: "forum", SSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}
