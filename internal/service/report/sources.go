package report

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"

	"github.com/ignite/marketpulse/internal/datanorm"
	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/pkg/httpretry"
	"github.com/ignite/marketpulse/internal/pkg/logger"
	"github.com/ignite/marketpulse/internal/sources"
)

// TokenProvider returns the stored OAuth token of an integration.
type TokenProvider interface {
	Token(ctx context.Context, integrationID string) (*oauth2.Token, error)
}

// ClientFactory builds an authorized HTTP client for a token.
type ClientFactory interface {
	Client(ctx context.Context, tok *oauth2.Token) *http.Client
}

// SyncRecorder flags an integration whose export could not be fetched.
type SyncRecorder interface {
	MarkError(ctx context.Context, integrationID string, cause error)
}

// SourceConfig holds the backends campaign sources read from. A nil backend
// disables its kind.
type SourceConfig struct {
	FileRoot string // file locations resolve under this directory

	S3           sources.ObjectGetter
	ExportBucket string // bucket for s3 locations given as a bare key

	Performance      sources.Querier
	PerformanceQuery string // takes the campaign id as $1

	Snowflake      sources.Querier
	SnowflakeQuery string // a "?" placeholder receives the campaign name

	Tokens     TokenProvider
	Google     ClientFactory
	Syncs      SyncRecorder
	GAEndpoint string
	GARetries  int
}

// unavailableSource fails with err so the collector reports it like any
// other failed fetch.
type unavailableSource struct {
	name string
	err  error
}

func (u unavailableSource) Name() string { return u.name }

func (u unavailableSource) Fetch(context.Context) (*datanorm.Dataset, error) { return nil, u.err }

// Build returns the sources of c. A campaign without configured sources
// reads its performance_data rows.
func (cfg SourceConfig) Build(ctx context.Context, c *domain.Campaign) []sources.Source {
	specs := c.Sources
	if len(specs) == 0 && cfg.Performance != nil {
		specs = []domain.ReportSource{{Kind: domain.SourcePerformance}}
	}

	out := make([]sources.Source, 0, len(specs))
	for _, spec := range specs {
		out = append(out, cfg.source(ctx, c, spec))
	}
	return out
}

func (cfg SourceConfig) source(ctx context.Context, c *domain.Campaign, spec domain.ReportSource) sources.Source {
	name := string(spec.Kind)
	if spec.Location != "" {
		name += ":" + spec.Location
	}
	disabled := unavailableSource{name: name, err: fmt.Errorf("%s: %w", spec.Kind, ErrSourceDisabled)}

	switch spec.Kind {
	case domain.SourceFile:
		if cfg.FileRoot == "" {
			return disabled
		}
		src, err := sources.NewFileSource(resolveFile(cfg.FileRoot, spec.Location), spec.Sheet)
		if err != nil {
			return unavailableSource{name: name, err: err}
		}
		return src

	case domain.SourceS3:
		if cfg.S3 == nil {
			return disabled
		}
		bucket, key := splitS3Location(spec.Location, cfg.ExportBucket)
		if bucket == "" || key == "" {
			return unavailableSource{name: name, err: fmt.Errorf("s3 location %q has no bucket or key", spec.Location)}
		}
		return sources.NewS3Source(cfg.S3, bucket, key)

	case domain.SourcePerformance:
		if cfg.Performance == nil || cfg.PerformanceQuery == "" {
			return disabled
		}
		return sources.NewSQLSource("performance_data", cfg.Performance, cfg.PerformanceQuery, c.ID)

	case domain.SourceSnowflake:
		query := spec.Location
		if query == "" {
			query = cfg.SnowflakeQuery
		}
		if cfg.Snowflake == nil || query == "" {
			return disabled
		}
		if strings.Contains(query, "?") {
			return sources.NewSQLSource("snowflake", cfg.Snowflake, query, c.Name)
		}
		return sources.NewSQLSource("snowflake", cfg.Snowflake, query)

	case domain.SourceGoogleAnalytics:
		if cfg.Tokens == nil || cfg.Google == nil {
			return disabled
		}
		tok, err := cfg.Tokens.Token(ctx, spec.IntegrationID)
		if err != nil {
			return unavailableSource{name: name, err: fmt.Errorf("integration %s: %w", spec.IntegrationID, err)}
		}
		client := httpretry.NewRetryClient(cfg.Google.Client(ctx, tok), cfg.GARetries,
			httpretry.WithLogger(logger.With("component", "google_analytics", "integration_id", spec.IntegrationID)))
		return sources.NewGoogleAnalyticsSource(client, cfg.GAEndpoint, sources.GAQuery{ViewID: spec.Location})
	}
	return unavailableSource{name: name, err: fmt.Errorf("unknown source kind %q", spec.Kind)}
}

// resolveFile confines loc to root.
func resolveFile(root, loc string) string {
	return filepath.Join(root, filepath.Clean("/"+loc))
}

// splitS3Location accepts "s3://bucket/key" or a bare key in the default
// bucket.
func splitS3Location(loc, defaultBucket string) (bucket, key string) {
	if rest, ok := strings.CutPrefix(loc, "s3://"); ok {
		bucket, key, _ = strings.Cut(rest, "/")
		return bucket, key
	}
	return defaultBucket, strings.TrimPrefix(loc, "/")
}
