package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "keeper",
		Password: "secret",
		Name:     "accesskeep",
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "host=localhost")
	require.Contains(t, dsn, "port=5432")
	require.Contains(t, dsn, "dbname=accesskeep")
	require.Contains(t, dsn, "sslmode=disable")
}

func TestBuildPostgresDSNRequiresUser(t *testing.T) {
	_, err := buildPostgresDSN(Config{Name: "accesskeep"})
	require.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "keeper",
		Name: "accesskeep",
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "keeper@tcp(127.0.0.1:3306)/accesskeep")
	require.Contains(t, dsn, "parseTime=True")
}

func TestBuildMySQLDSNHonoursOverride(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{DSN: "custom"})
	require.NoError(t, err)
	require.Equal(t, "custom", dsn)
}
