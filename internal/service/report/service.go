package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/pkg/logger"
	"github.com/ignite/marketpulse/internal/reportcache"
	"github.com/ignite/marketpulse/internal/sources"
	"github.com/ignite/marketpulse/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// CampaignGetter loads the campaign a report is computed for.
type CampaignGetter interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
}

// Result is a computed or cached campaign report.
type Result struct {
	Snapshot storage.Snapshot `json:"snapshot"`
	Sources  []sources.Status `json:"sources"`
	Cached   bool             `json:"cached"`
}

// Service generates campaign reports.
type Service struct {
	campaigns CampaignGetter
	sources   SourceConfig
	collector *sources.Collector
	engine    *analytics.Engine
	snapshots storage.SnapshotStore
	cache     *reportcache.Cache
	log       *logger.Logger
}

// NewService wires a report service. cache may be nil.
func NewService(campaigns CampaignGetter, src SourceConfig, collector *sources.Collector, engine *analytics.Engine, snapshots storage.SnapshotStore, cache *reportcache.Cache) *Service {
	return &Service{
		campaigns: campaigns,
		sources:   src,
		collector: collector,
		engine:    engine,
		snapshots: snapshots,
		cache:     cache,
		log:       logger.With("component", "report"),
	}
}

// Generate returns the report of a campaign. A cached report is served
// until the campaign changes or the cache entry expires; refresh forces a
// new computation and snapshot.
func (s *Service) Generate(ctx context.Context, campaignID string, refresh bool) (*Result, error) {
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	key, err := reportcache.Key(c.ID, "report", c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if refresh {
		res, err := s.compute(ctx, c)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, res); err != nil {
			s.log.Warn("cache write failed", "campaign_id", c.ID, "error", err)
		}
		return &res, nil
	}

	res, hit, err := reportcache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) (Result, error) {
		return s.compute(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	res.Cached = hit
	return &res, nil
}

func (s *Service) compute(ctx context.Context, c *domain.Campaign) (Result, error) {
	start := time.Now()
	col := s.collector.Collect(ctx, s.sources.Build(ctx, c)...)
	s.recordSyncFailures(ctx, c, col.Statuses)
	if !col.Available() {
		return Result{}, fmt.Errorf("campaign %s: %w", c.ID, ErrNoData)
	}

	rep := s.engine.Analyze(analytics.AnalysisRequest{
		Dataset:         col.Dataset,
		CampaignName:    c.Name,
		PlatformID:      c.Platform,
		ConversionValue: c.ConversionValue,
		History:         s.previous(ctx, c.ID),
		Targets:         c.Targets,
	})
	rep.Warnings = append(append([]analytics.Warning{}, col.Warnings...), rep.Warnings...)

	snap := storage.Snapshot{CampaignID: c.ID, Report: rep}
	for _, st := range col.Statuses {
		if st.OK {
			snap.Sources = append(snap.Sources, st.Source)
		}
	}
	if err := s.snapshots.SaveSnapshot(ctx, &snap); err != nil {
		s.log.Error("saving snapshot failed", "campaign_id", c.ID, "error", err)
	}

	s.log.Info("report computed",
		"campaign_id", c.ID,
		"rows", rep.MatchedRows,
		"match", rep.Match.Method,
		"warnings", len(rep.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{Snapshot: snap, Sources: col.Statuses}, nil
}

// recordSyncFailures marks the integrations behind failed Google Analytics
// sources. Statuses follow the order of c.Sources.
func (s *Service) recordSyncFailures(ctx context.Context, c *domain.Campaign, statuses []sources.Status) {
	if s.sources.Syncs == nil || len(statuses) != len(c.Sources) {
		return
	}
	for i, spec := range c.Sources {
		if spec.Kind != domain.SourceGoogleAnalytics || spec.IntegrationID == "" || statuses[i].OK {
			continue
		}
		s.sources.Syncs.MarkError(ctx, spec.IntegrationID, errors.New(statuses[i].Error))
	}
}

// previous loads the last snapshot as the comparison period. Missing or
// unreadable history only disables the trajectory.
func (s *Service) previous(ctx context.Context, campaignID string) *analytics.HistoricalComparison {
	snap, err := s.snapshots.LatestSnapshot(ctx, campaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.Warn("loading previous snapshot failed", "campaign_id", campaignID, "error", err)
		return nil
	}
	return &analytics.HistoricalComparison{
		Label:    snap.CreatedAt.UTC().Format(time.RFC3339),
		Previous: snap.Report.Metrics,
	}
}

// History lists a campaign's snapshots, newest first.
func (s *Service) History(ctx context.Context, campaignID string, limit int) ([]storage.Snapshot, error) {
	if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.snapshots.ListSnapshots(ctx, campaignID, limit)
}
