package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/marketpulse/internal/analytics"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Google    GoogleConfig    `yaml:"google"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Sources   SourcesConfig   `yaml:"sources"`
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int      `yaml:"port"`
	Host               string   `yaml:"host"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	ReadTimeoutSeconds int      `yaml:"read_timeout_seconds"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// ReadTimeout returns the configured read timeout as a duration
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig holds report snapshot storage configuration
type StorageConfig struct {
	Type          string `yaml:"type"` // "local" or "aws"
	LocalPath     string `yaml:"local_path"`
	S3Bucket      string `yaml:"s3_bucket"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// GoogleConfig holds OAuth client settings for the Google Analytics connection
type GoogleConfig struct {
	ClientID       string   `yaml:"client_id"`
	ClientSecret   string   `yaml:"client_secret"`
	RedirectURL    string   `yaml:"redirect_url"`
	Scopes         []string `yaml:"scopes"`
	ReportingURL   string   `yaml:"reporting_url"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxRetries     int      `yaml:"max_retries"`
}

// Enabled reports whether OAuth client credentials are configured
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Timeout returns the configured timeout as a duration
func (c GoogleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SnowflakeConfig holds Snowflake warehouse settings for report exports
type SnowflakeConfig struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
	Query     string `yaml:"query"`
	Enabled   bool   `yaml:"enabled"`
}

// SourcesConfig controls the report collector
type SourcesConfig struct {
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	FileRoot            string `yaml:"file_root"` // "file" sources resolve under it; empty disables them
	ExportBucket        string `yaml:"export_bucket"`
	PerformanceQuery    string `yaml:"performance_query"`
}

// FetchTimeout returns the per-source fetch timeout
func (c SourcesConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// EngineConfig holds the tunable analytics thresholds
type EngineConfig struct {
	AnomalySigma             float64 `yaml:"anomaly_sigma"`
	OutlierSigma             float64 `yaml:"outlier_sigma"`
	TrendThreshold           float64 `yaml:"trend_threshold"`
	MinSeriesPoints          int     `yaml:"min_series_points"`
	MinCorrelationPairs      int     `yaml:"min_correlation_pairs"`
	CorrelationThreshold     float64 `yaml:"correlation_threshold"`
	StrongCorrelation        float64 `yaml:"strong_correlation"`
	TopPerformers            int     `yaml:"top_performers"`
	RecommendationShare      float64 `yaml:"recommendation_share"`
	RecommendationTrend      float64 `yaml:"recommendation_trend"`
	RecommendationCap        int     `yaml:"recommendation_cap"`
	DecliningRiskThreshold   float64 `yaml:"declining_risk_threshold"`
	ConcentrationRiskShare   float64 `yaml:"concentration_risk_share"`
	DefaultScalingIncreasePc float64 `yaml:"default_scaling_increase_pct"`
}

// Thresholds converts the engine section into analytics rules. Zero fields
// take the engine defaults.
func (c EngineConfig) Thresholds() analytics.Thresholds {
	return analytics.Thresholds{
		AnomalySigma:         c.AnomalySigma,
		OutlierSigma:         c.OutlierSigma,
		TrendThreshold:       c.TrendThreshold,
		MinSeriesPoints:      c.MinSeriesPoints,
		MinCorrelationPairs:  c.MinCorrelationPairs,
		CorrelationThreshold: c.CorrelationThreshold,
		StrongCorrelation:    c.StrongCorrelation,
		TopPerformers:        c.TopPerformers,
		RecommendationShare:  c.RecommendationShare,
		RecommendationTrend:  c.RecommendationTrend,
		RecommendationCap:    c.RecommendationCap,
		DecliningRisk:        c.DecliningRiskThreshold,
		ConcentrationShare:   c.ConcentrationRiskShare,
	}
}

// CacheConfig holds report cache settings
type CacheConfig struct {
	Enabled     bool `yaml:"enabled"`
	TTLSeconds  int  `yaml:"ttl_seconds"`
	LockSeconds int  `yaml:"lock_seconds"`
}

// TTL returns the cache entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// LockTTL returns the computation lock lifetime
func (c CacheConfig) LockTTL() time.Duration {
	return time.Duration(c.LockSeconds) * time.Second
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Redact *bool  `yaml:"redact"`
}

// RedactEnabled defaults to true when unset
func (c LoggingConfig) RedactEnabled() bool {
	return c.Redact == nil || *c.Redact
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = "http://localhost:8000/auth/google/callback"
	}
	if len(cfg.Google.Scopes) == 0 {
		cfg.Google.Scopes = []string{
			"https://www.googleapis.com/auth/analytics.readonly",
			"https://www.googleapis.com/auth/userinfo.email",
		}
	}
	if cfg.Google.ReportingURL == "" {
		cfg.Google.ReportingURL = "https://analyticsreporting.googleapis.com/v4/reports:batchGet"
	}
	if cfg.Google.TimeoutSeconds == 0 {
		cfg.Google.TimeoutSeconds = 30
	}
	if cfg.Google.MaxRetries == 0 {
		cfg.Google.MaxRetries = 3
	}
	if cfg.Snowflake.Schema == "" {
		cfg.Snowflake.Schema = "PUBLIC"
	}
	if cfg.Sources.FetchTimeoutSeconds == 0 {
		cfg.Sources.FetchTimeoutSeconds = 20
	}
	if cfg.Engine.AnomalySigma == 0 {
		cfg.Engine.AnomalySigma = 2.0
	}
	if cfg.Engine.OutlierSigma == 0 {
		cfg.Engine.OutlierSigma = 3.0
	}
	if cfg.Engine.TrendThreshold == 0 {
		cfg.Engine.TrendThreshold = 0.10
	}
	if cfg.Engine.MinSeriesPoints == 0 {
		cfg.Engine.MinSeriesPoints = 10
	}
	if cfg.Engine.MinCorrelationPairs == 0 {
		cfg.Engine.MinCorrelationPairs = 5
	}
	if cfg.Engine.CorrelationThreshold == 0 {
		cfg.Engine.CorrelationThreshold = 0.5
	}
	if cfg.Engine.StrongCorrelation == 0 {
		cfg.Engine.StrongCorrelation = 0.8
	}
	if cfg.Engine.TopPerformers == 0 {
		cfg.Engine.TopPerformers = 3
	}
	if cfg.Engine.RecommendationShare == 0 {
		cfg.Engine.RecommendationShare = 0.20
	}
	if cfg.Engine.RecommendationTrend == 0 {
		cfg.Engine.RecommendationTrend = 0.20
	}
	if cfg.Engine.RecommendationCap == 0 {
		cfg.Engine.RecommendationCap = 5
	}
	if cfg.Engine.DecliningRiskThreshold == 0 {
		cfg.Engine.DecliningRiskThreshold = 0.15
	}
	if cfg.Engine.ConcentrationRiskShare == 0 {
		cfg.Engine.ConcentrationRiskShare = 0.70
	}
	if cfg.Engine.DefaultScalingIncreasePc == 0 {
		cfg.Engine.DefaultScalingIncreasePc = 25
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.LockSeconds == 0 {
		cfg.Cache.LockSeconds = 30
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("EXPORTS_DIR"); v != "" {
		cfg.Sources.FileRoot = v
	}

	// OAuth overrides
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_REDIRECT_URI"); v != "" {
		cfg.Google.RedirectURL = v
	}

	if v := os.Getenv("SNOWFLAKE_ACCOUNT"); v != "" {
		cfg.Snowflake.Account = v
	}
	if v := os.Getenv("SNOWFLAKE_USER"); v != "" {
		cfg.Snowflake.User = v
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		cfg.Snowflake.Password = v
	}

	if v := os.Getenv("STORAGE_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
