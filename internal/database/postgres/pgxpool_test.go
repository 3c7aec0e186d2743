package postgres

import (
	"context"
	"testing"
	"time"

	"fizetesi-info/internal/config"
	"fizetesi-info/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	got := DSN(config.DatabaseConfig{DBHost: " db ", DBName: "jobs", DBUser: "app", DBPassword: "p@ss w"})
	assert.Equal(t, "postgres://app:p%40ss%20w@db:5432/jobs?sslmode=disable", got)

	got = DSN(config.DatabaseConfig{DBHost: "10.0.0.1", DBPort: "6543", DBName: "jobs", DBSSLMode: "require"})
	assert.Equal(t, "postgres://10.0.0.1:6543/jobs?sslmode=require", got)
}

func TestPoolConfig(t *testing.T) {
	pcfg, err := PoolConfig(config.DatabaseConfig{
		DBHost:              "localhost",
		DBName:              "jobs",
		DBUser:              "app",
		ConnectTimeout:      3 * time.Second,
		PoolMaxConns:        8,
		PoolMinConns:        2,
		PoolMaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost", pcfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), pcfg.ConnConfig.Port)
	assert.Equal(t, "jobs", pcfg.ConnConfig.Database)
	assert.Equal(t, applicationName, pcfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, 3*time.Second, pcfg.ConnConfig.ConnectTimeout)
	assert.Equal(t, int32(8), pcfg.MaxConns)
	assert.Equal(t, int32(2), pcfg.MinConns)
	assert.Equal(t, time.Minute, pcfg.MaxConnIdleTime)
}

func TestPoolConfig_MinConnsAboveMaxIgnored(t *testing.T) {
	pcfg, err := PoolConfig(config.DatabaseConfig{DBHost: "localhost", DBName: "jobs", PoolMaxConns: 2, PoolMinConns: 5})
	require.NoError(t, err)
	assert.Equal(t, int32(0), pcfg.MinConns)
}

func TestZeroPool(t *testing.T) {
	var p Pool
	ctx := context.Background()
	assert.ErrorIs(t, p.Ping(ctx), database.ErrNotConfigured)
	_, err := p.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, database.ErrNotConfigured)
	_, err = p.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, database.ErrNotConfigured)
	assert.ErrorIs(t, p.QueryRow(ctx, "SELECT 1").Scan(), database.ErrNotConfigured)
	_, err = p.Begin(ctx)
	assert.ErrorIs(t, err, database.ErrNotConfigured)
	assert.NoError(t, p.Close())
	assert.Nil(t, p.SQLDB())
}
