package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "entire_data", cfg.Mongo.RawBatchCollection)
	assert.Equal(t, "unique_trends", cfg.Mongo.UniqueTrendCollection)
	assert.Equal(t, "product_details", cfg.Mongo.ProductCollection)
	assert.Equal(t, 20, cfg.Source.PageSize)
	assert.Equal(t, 60*time.Second, cfg.Source.ProductTimeout)
	assert.Equal(t, 10*time.Second, cfg.Ingest.EnrichInterval)
	assert.Equal(t, 10, cfg.Ingest.EnrichTopN)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SOURCE_PAGE_SIZE", "50")
	t.Setenv("INGEST_ENRICH_INTERVAL", "250ms")
	t.Setenv("INGEST_SCHEDULE_GENDERS", "men, women ,,")
	t.Setenv("DB_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Source.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingest.EnrichInterval)
	assert.Equal(t, []string{"men", "women"}, cfg.Ingest.ScheduleGenders)
	assert.True(t, cfg.Database.Enabled)
}

func TestLoadRequiresSecretsOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TRIGGER_SECRET", "")
	t.Setenv("SOURCE_BEARER_TOKEN", "token")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trigger secret")

	t.Setenv("TRIGGER_SECRET", "s3cret")
	t.Setenv("SOURCE_BEARER_TOKEN", "")

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bearer token")

	t.Setenv("SOURCE_BEARER_TOKEN", "token")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoadRejectsBadPageSize(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SOURCE_PAGE_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}
