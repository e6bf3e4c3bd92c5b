package db

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	config, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/hr?sslmode=disable")
	require.NoError(t, err)

	applyOptions(config, PoolOptions{
		MaxConns:          8,
		MinConns:          2,
		MaxConnLifetime:   30 * time.Minute,
		HealthCheckPeriod: 15 * time.Second,
		ApplicationName:   "odyssey-hr-api",
	})

	assert.EqualValues(t, 8, config.MaxConns)
	assert.EqualValues(t, 2, config.MinConns)
	assert.Equal(t, 30*time.Minute, config.MaxConnLifetime)
	assert.Equal(t, 15*time.Second, config.HealthCheckPeriod)
	assert.Equal(t, "odyssey-hr-api", config.ConnConfig.RuntimeParams["application_name"])
}

func TestApplyOptionsIgnoresMinAboveMax(t *testing.T) {
	config, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/hr")
	require.NoError(t, err)
	before := config.MinConns

	applyOptions(config, PoolOptions{MaxConns: 2, MinConns: 5})
	assert.Equal(t, before, config.MinConns)
}

func TestUniqueConstraint(t *testing.T) {
	_, ok := UniqueConstraint(assert.AnError)
	assert.False(t, ok)
}
