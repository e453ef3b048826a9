package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLConfigForcesParseTimeAndUTC(t *testing.T) {
	cfg, err := mysqlConfig("wongnok:secret@tcp(db:3306)/wongnok_web?loc=Asia%2FBangkok")
	require.NoError(t, err)

	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "wongnok_web", cfg.DBName)
}

func TestMySQLConfigKeepsExplicitTimeout(t *testing.T) {
	cfg, err := mysqlConfig("u:p@tcp(db:3306)/w?timeout=2s")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestMySQLConfigRejectsGarbage(t *testing.T) {
	_, err := mysqlConfig("not a dsn")
	assert.Error(t, err)
}

func TestEnsureDBWithoutConnection(t *testing.T) {
	CloseDB()
	assert.Error(t, EnsureDB(context.Background()))
}
