package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetup(t *testing.T) {
	cfg := (&Config{Port: "not-a-port"}).Setup()

	assert.Equal(t, Postgres, cfg.Driver)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "host=localhost port=5432 user=postgres dbname=postgres password=postgres sslmode=disable", cfg.String())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", SQLite)
	t.Setenv("SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("POSTGRES_HOST", "db")

	cfg := NewConfigFromEnv().Setup()
	assert.Equal(t, SQLite, cfg.Driver)
	assert.Equal(t, "db", cfg.Host)
	assert.Contains(t, cfg.String(), "/tmp/ledger.db?")
}

func TestNewDB_SQLite(t *testing.T) {
	cfg := (&Config{Driver: SQLite, SQLitePath: filepath.Join(t.TempDir(), "test.db")}).Setup()

	db, err := NewDB(cfg)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.Get(&one, "SELECT 1"))
	assert.Equal(t, 1, one)
}

func TestNewDB_UnknownDriver(t *testing.T) {
	_, err := NewDB(&Config{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported db driver")
}
