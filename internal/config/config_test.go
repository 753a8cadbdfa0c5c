package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("FORUM_JWT_SECRET", "s3cret")
	path := writeConfig(t, `
server:
  env: production
database:
  driver: postgres
  host: db
  port: 5432
  user: forum
  dbname: forum
jwt:
  secret: ${FORUM_JWT_SECRET}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 30, cfg.External.CacheTTLDays)
	assert.Equal(t, "data/appid.json", cfg.External.SteamAppIDPath)
	assert.False(t, cfg.IsDevelopment())
	assert.Contains(t, cfg.Database.GetDSN(), "host=db port=5432")
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDatabaseConfig_MySQLDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "mysql", Host: "localhost", Port: 3306, User: "root", Password: "pw", DBName: "forum"}
	assert.Equal(t, "root:pw@tcp(localhost:3306)/forum?charset=utf8mb4&parseTime=True&loc=UTC", d.GetDSN())
}
