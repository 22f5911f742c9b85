package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/api"
	"github.com/ignite/marketpulse/internal/auth"
	"github.com/ignite/marketpulse/internal/config"
	"github.com/ignite/marketpulse/internal/pkg/logger"
	"github.com/ignite/marketpulse/internal/reportcache"
	"github.com/ignite/marketpulse/internal/repository/postgres"
	"github.com/ignite/marketpulse/internal/service/campaign"
	"github.com/ignite/marketpulse/internal/service/dashboard"
	"github.com/ignite/marketpulse/internal/service/integration"
	"github.com/ignite/marketpulse/internal/service/report"
	"github.com/ignite/marketpulse/internal/sources"
	"github.com/ignite/marketpulse/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

// openDatabase connects to Postgres with bounded connect and statement
// timeouts.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dbURL := cfg.URL
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	if !strings.Contains(dbURL, "connect_timeout") {
		dbURL += sep + "connect_timeout=5"
		sep = "&"
	}
	dbURL += sep + "options=-c%20statement_timeout%3D15000"
	log.Printf("[db] connecting to ...@%s/...", extractHost(dbURL))

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		log.Println("[redis] not configured, report cache disabled")
		return nil
	}
	var client *redis.Client
	if opts, err := redis.ParseURL(cfg.Addr); err == nil {
		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[redis] connection failed (%s): %v, report cache disabled", cfg.Addr, err)
		client.Close()
		return nil
	}
	log.Printf("[redis] connected: %s", cfg.Addr)
	return client
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedact(cfg.Logging.RedactEnabled())

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("[storage] %s backend ready", store.Backend())

	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = openDatabase(ctx, cfg.Database)
		if err != nil {
			log.Printf("[db] WARNING: database unavailable: %v, campaign routes will answer 503", err)
			db = nil
		} else {
			defer db.Close()
			log.Println("[db] connected")
		}
	} else {
		log.Println("[db] DATABASE_URL not set, campaign routes will answer 503")
	}

	var cache *reportcache.Cache
	redisClient := openRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
		cache = reportcache.New(redisClient, cfg.Cache)
	}

	engine := analytics.NewEngine(cfg.Engine.Thresholds())
	collector := sources.NewCollector(cfg.Sources.FetchTimeout(), nil)

	srcCfg := report.SourceConfig{
		FileRoot:     cfg.Sources.FileRoot,
		ExportBucket: cfg.Sources.ExportBucket,
		GAEndpoint:   cfg.Google.ReportingURL,
		GARetries:    cfg.Google.MaxRetries,
	}
	if cfg.Sources.ExportBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.AWSRegion))
		if err != nil {
			log.Printf("[sources] WARNING: AWS config for exports failed: %v", err)
		} else {
			srcCfg.S3 = s3.NewFromConfig(awsCfg)
			log.Printf("[sources] S3 exports enabled: bucket=%s", cfg.Sources.ExportBucket)
		}
	}
	if conn := os.Getenv("SNOWFLAKE_CONNECTION_STRING"); conn != "" && cfg.Snowflake.Account == "" {
		parsed := sources.ParseSnowflakeConnectionString(conn)
		parsed.Query = cfg.Snowflake.Query
		if parsed.Schema == "" {
			parsed.Schema = cfg.Snowflake.Schema
		}
		cfg.Snowflake = parsed
	}
	if cfg.Snowflake.Enabled {
		sf, err := sources.OpenSnowflake(cfg.Snowflake)
		if err != nil {
			log.Printf("[sources] WARNING: Snowflake disabled: %v", err)
		} else {
			defer sf.Close()
			srcCfg.Snowflake = sf
			srcCfg.SnowflakeQuery = cfg.Snowflake.Query
			log.Printf("[sources] Snowflake exports enabled: account=%s", cfg.Snowflake.Account)
		}
	}

	var (
		campaigns    api.CampaignService
		integrations api.IntegrationService
		dash         api.DashboardService
		reports      api.ReportService
		oauth        api.OAuthHandlers
	)
	if db != nil {
		campaignSvc := campaign.NewService(postgres.NewCampaignRepo(db), cache)
		integrationSvc := integration.NewService(postgres.NewIntegrationRepo(db))
		campaigns, integrations = campaignSvc, integrationSvc
		dash = dashboard.NewService(postgres.NewPerformanceRepo(db))

		srcCfg.Performance = db
		srcCfg.PerformanceQuery = postgres.PerformanceQuery
		if cfg.Sources.PerformanceQuery != "" {
			srcCfg.PerformanceQuery = cfg.Sources.PerformanceQuery
		}

		google, err := auth.NewGoogleConnector(cfg.Google, integrationSvc)
		switch {
		case err != nil:
			log.Printf("[auth] Google Analytics connections disabled: %v", err)
		default:
			if err := google.ValidateCredentials(ctx, &http.Client{Timeout: 10 * time.Second}); err != nil {
				log.Printf("[auth] WARNING: Google OAuth pre-flight failed: %v", err)
			}
			oauth = google
			srcCfg.Tokens, srcCfg.Google, srcCfg.Syncs = integrationSvc, google, integrationSvc
			log.Printf("[auth] Google OAuth enabled (callback: %s)", cfg.Google.RedirectURL)
		}

		reports = report.NewService(campaignSvc, srcCfg, collector, engine, store, cache)
	}

	handlers := api.NewHandlers(campaigns, integrations, dash, reports, engine)
	handlers.SetDefaultScalingIncrease(cfg.Engine.DefaultScalingIncreasePc)

	var cachePinger api.Pinger
	if cache != nil {
		cachePinger = cache
	}
	health := api.NewHealthChecker(db, cachePinger, store)
	server := api.NewServer(cfg.Server, handlers, health, oauth)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
