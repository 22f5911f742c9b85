package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/analytics"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  allowed_origins: ["https://app.marketpulse.io"]

database:
  url: "postgres://localhost/marketpulse?sslmode=disable"

storage:
  type: "aws"
  s3_bucket: "mp-reports"
  dynamodb_table: "mp-snapshots"

engine:
  anomaly_sigma: 2.5
  min_series_points: 12
  concentration_risk_share: 0.8

cache:
  enabled: true
  ttl_seconds: 60

logging:
  level: debug
  redact: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://app.marketpulse.io"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres://localhost/marketpulse?sslmode=disable", cfg.Database.URL)

	assert.Equal(t, "aws", cfg.Storage.Type)
	assert.Equal(t, "mp-reports", cfg.Storage.S3Bucket)
	assert.Equal(t, "mp-snapshots", cfg.Storage.DynamoDBTable)

	assert.Equal(t, 2.5, cfg.Engine.AnomalySigma)
	assert.Equal(t, 12, cfg.Engine.MinSeriesPoints)
	assert.Equal(t, 0.8, cfg.Engine.ConcentrationRiskShare)
	// untouched thresholds still get defaults
	assert.Equal(t, 3.0, cfg.Engine.OutlierSigma)
	assert.Equal(t, 5, cfg.Engine.MinCorrelationPairs)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.RedactEnabled())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "./data", cfg.Storage.LocalPath)
	assert.Equal(t, 2.0, cfg.Engine.AnomalySigma)
	assert.Equal(t, 0.10, cfg.Engine.TrendThreshold)
	assert.Equal(t, 10, cfg.Engine.MinSeriesPoints)
	assert.Equal(t, 0.5, cfg.Engine.CorrelationThreshold)
	assert.Equal(t, 0.8, cfg.Engine.StrongCorrelation)
	assert.Equal(t, 3, cfg.Engine.TopPerformers)
	assert.Equal(t, 5, cfg.Engine.RecommendationCap)
	assert.Equal(t, 0.15, cfg.Engine.DecliningRiskThreshold)
	assert.Equal(t, 0.70, cfg.Engine.ConcentrationRiskShare)
	assert.Len(t, cfg.Google.Scopes, 2)
	assert.False(t, cfg.Google.Enabled())
	assert.True(t, cfg.Logging.RedactEnabled())
	assert.Equal(t, 300, int(cfg.Cache.TTL().Seconds()))
}

func TestEngineThresholdsMatchDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "engine:\n  top_performers: 5\n"))
	require.NoError(t, err)

	want := analytics.DefaultThresholds()
	want.TopPerformers = 5
	assert.Equal(t, want, cfg.Engine.Thresholds())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://file\n")

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("PORT", "9999")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.Google.Enabled())
}

func TestGetAWSProfile(t *testing.T) {
	c := StorageConfig{AWSProfile: "marketing"}

	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("AWS_PROFILE_OVERRIDE", "")
	assert.Equal(t, "marketing", c.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", c.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "other")
	assert.Equal(t, "other", c.GetAWSProfile())
}
