package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/service/dashboard"
)

// PerformanceQuery is the export used as a campaign report source. It
// yields one row per day and platform with headers the column mapper knows.
const PerformanceQuery = `
	SELECT p.date AS date, COALESCE(c.name, '') AS campaign, COALESCE(p.platform, '') AS platform,
	       p.impressions, p.clicks, p.conversions, p.spend, p.revenue
	FROM performance_data p
	LEFT JOIN campaigns c ON c.id = p.campaign_id
	WHERE p.campaign_id = $1
	ORDER BY p.date`

// PerformanceRepo implements dashboard.Repository against PostgreSQL.
type PerformanceRepo struct{ db *sql.DB }

// NewPerformanceRepo creates a Postgres-backed performance repository.
func NewPerformanceRepo(db *sql.DB) *PerformanceRepo { return &PerformanceRepo{db: db} }

func (r *PerformanceRepo) ListPerformance(ctx context.Context, f dashboard.PerformanceFilter) ([]domain.PerformanceData, error) {
	var w whereBuilder
	if f.From != "" {
		w.add("date >= $%d", f.From)
	}
	if f.To != "" {
		w.add("date <= $%d", f.To)
	}
	if f.Platform != "" {
		w.add("LOWER(platform) = LOWER($%d)", f.Platform)
	}
	if f.CampaignID != "" {
		w.add("campaign_id = $%d", f.CampaignID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, to_char(date, 'YYYY-MM-DD'), impressions, clicks, conversions,
		       spend, revenue, platform, created_at
		FROM performance_data`+w.String()+` ORDER BY date`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}
	defer rows.Close()

	out := []domain.PerformanceData{}
	for rows.Next() {
		var (
			p          domain.PerformanceData
			campaignID sql.NullString
			platform   sql.NullString
		)
		if err := rows.Scan(&p.ID, &campaignID, &p.Date, &p.Impressions, &p.Clicks, &p.Conversions,
			&p.Spend, &p.Revenue, &platform, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan performance: %w", err)
		}
		if campaignID.Valid {
			p.CampaignID = &campaignID.String
		}
		if platform.Valid {
			p.Platform = &platform.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PerformanceRepo) ListMetrics(ctx context.Context) ([]domain.Metric, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, value, change, period, created_at
		FROM metrics ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	out := []domain.Metric{}
	for rows.Next() {
		var m domain.Metric
		if err := rows.Scan(&m.ID, &m.Name, &m.Value, &m.Change, &m.Period, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
