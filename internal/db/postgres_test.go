package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/socialpulse/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresURL(t *testing.T) {
	t.Run("database url wins", func(t *testing.T) {
		got, err := BuildPostgresURL(config.PostgresConfig{DatabaseURL: "postgres://x@y/z", User: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "postgres://x@y/z", got)
	})

	t.Run("assembled from parts", func(t *testing.T) {
		got, err := BuildPostgresURL(config.PostgresConfig{
			Host: "db", Port: "5433", User: "app", Password: "p@ss", Database: "social", SSLMode: "require",
		})
		require.NoError(t, err)
		assert.Equal(t, "postgres://app:p%40ss@db:5433/social?sslmode=require", got)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := BuildPostgresURL(config.PostgresConfig{Database: "social"})
		assert.Error(t, err)
	})
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("lookup: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("other")))

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}
