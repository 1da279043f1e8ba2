package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIndexerConfigFromEnv(t *testing.T) {
	t.Setenv("FLIP_INDEXER_DATABASE_HOST", "db.internal")
	t.Setenv("FLIP_INDEXER_DATABASE_DBNAME", "flip")
	t.Setenv("FLIP_INDEXER_DATABASE_USER", "indexer")
	t.Setenv("FLIP_INDEXER_DATABASE_PASSWORD", "secret")
	t.Setenv("FLIP_INDEXER_NATS_URL", "nats://localhost:4222")

	cfg, err := LoadIndexerConfig("", "")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "flip", cfg.Database.DBName)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "MARKETPLACE_EVENTS", cfg.NATS.StreamName)
	assert.Equal(t, "flip-indexer", cfg.NATS.ConsumerName)
	assert.Equal(t, "flip-indexer", cfg.NATS.ConnectionName)
	assert.Equal(t, 30*time.Second, cfg.NATS.AckWait)
	assert.Equal(t, 5, cfg.NATS.MaxDeliver)

	assert.Equal(t, "eip155:1", string(cfg.Chain.ChainID))

	assert.Equal(t, 256, cfg.Dispatcher.QueueSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Dispatcher.InitialInterval)
	assert.Equal(t, 30*time.Second, cfg.Dispatcher.MaxInterval)
	assert.Equal(t, 10*time.Minute, cfg.Dispatcher.MaxElapsedTime)
}

func TestLoadIndexerConfigEnvOverridesDefaults(t *testing.T) {
	t.Setenv("FLIP_INDEXER_DATABASE_HOST", "db.internal")
	t.Setenv("FLIP_INDEXER_DATABASE_DBNAME", "flip")
	t.Setenv("FLIP_INDEXER_NATS_URL", "nats://localhost:4222")
	t.Setenv("FLIP_INDEXER_NATS_STREAM_NAME", "STAGING_EVENTS")
	t.Setenv("FLIP_INDEXER_CHAIN_CHAIN_ID", "eip155:8453")
	t.Setenv("FLIP_INDEXER_CHAIN_START_BLOCK", "123456")
	t.Setenv("FLIP_INDEXER_DISPATCHER_QUEUE_SIZE", "64")

	cfg, err := LoadIndexerConfig("", "")
	require.NoError(t, err)

	assert.Equal(t, "STAGING_EVENTS", cfg.NATS.StreamName)
	assert.Equal(t, "eip155:8453", string(cfg.Chain.ChainID))
	assert.Equal(t, uint64(123456), cfg.Chain.StartBlock)
	assert.Equal(t, 64, cfg.Dispatcher.QueueSize)
}

func TestLoadIndexerConfigRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database host",
			env:     map[string]string{"FLIP_INDEXER_DATABASE_DBNAME": "flip", "FLIP_INDEXER_NATS_URL": "nats://localhost:4222"},
			wantErr: "database.host is required",
		},
		{
			name:    "missing database name",
			env:     map[string]string{"FLIP_INDEXER_DATABASE_HOST": "db", "FLIP_INDEXER_NATS_URL": "nats://localhost:4222"},
			wantErr: "database.dbname is required",
		},
		{
			name:    "missing nats url",
			env:     map[string]string{"FLIP_INDEXER_DATABASE_HOST": "db", "FLIP_INDEXER_DATABASE_DBNAME": "flip"},
			wantErr: "nats.url is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadIndexerConfig("", "")
			require.Error(t, err)
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestLoadAPIConfigDefaults(t *testing.T) {
	t.Setenv("FLIP_INDEXER_DATABASE_HOST", "db.internal")
	t.Setenv("FLIP_INDEXER_DATABASE_DBNAME", "flip")

	cfg, err := LoadAPIConfig("", "")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ReadTimeout)
	assert.Equal(t, 10, cfg.Server.WriteTimeout)
	assert.Equal(t, 120, cfg.Server.IdleTimeout)
	assert.False(t, cfg.Debug)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "indexer",
		Password: "secret",
		DBName:   "flip",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=indexer password=secret dbname=flip sslmode=disable",
		cfg.DSN())
}
