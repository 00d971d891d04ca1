package db

import (
	"io/fs"
	"testing"

	"github.com/geocoder89/photohub/internal/db/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	raw, err := fs.ReadFile(migrations.FS, "00001_init.sql")
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, "-- +goose Up")
	assert.Contains(t, body, "-- +goose Down")
	assert.Contains(t, body, "CREATE UNIQUE INDEX IF NOT EXISTS ix_users_email")
	assert.Contains(t, body, "REFERENCES users (id)")
	assert.Contains(t, body, "CREATE TABLE IF NOT EXISTS audit_logs")
}
