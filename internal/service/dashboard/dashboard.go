// Package dashboard serves the performance feed and the KPI tiles shown on
// the overview page.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/domain"
)

const dateLayout = "2006-01-02"

// Repository reads performance rows and stored metric tiles.
type Repository interface {
	ListPerformance(ctx context.Context, f PerformanceFilter) ([]domain.PerformanceData, error)
	ListMetrics(ctx context.Context) ([]domain.Metric, error)
}

// PerformanceFilter selects performance rows. Dates are inclusive
// YYYY-MM-DD strings; empty means unbounded.
type PerformanceFilter struct {
	From       string
	To         string
	Platform   string
	CampaignID string
}

// Service computes dashboard views over the repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a dashboard service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Performance returns performance rows for the filter.
func (s *Service) Performance(ctx context.Context, f PerformanceFilter) ([]domain.PerformanceData, error) {
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidPeriod, d)
		}
	}
	return s.repo.ListPerformance(ctx, f)
}

type totals struct {
	impressions, clicks, conversions, spend float64
}

func sum(rows []domain.PerformanceData) totals {
	var t totals
	for _, r := range rows {
		t.impressions += float64(r.Impressions)
		t.clicks += float64(r.Clicks)
		t.conversions += float64(r.Conversions)
		t.spend += r.Spend
	}
	return t
}

// KPITiles compares the last periodDays with the window before it: total
// impressions, total clicks, conversion rate and cost per click. With no
// performance rows in either window the stored tiles are returned.
func (s *Service) KPITiles(ctx context.Context, periodDays int) ([]domain.Metric, error) {
	if periodDays <= 0 || periodDays > 366 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidPeriod, periodDays)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	curFrom := today.AddDate(0, 0, -(periodDays - 1))
	prevTo := curFrom.AddDate(0, 0, -1)
	prevFrom := prevTo.AddDate(0, 0, -(periodDays - 1))

	rows, err := s.repo.ListPerformance(ctx, PerformanceFilter{
		From: prevFrom.Format(dateLayout),
		To:   today.Format(dateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("loading performance: %w", err)
	}
	if len(rows) == 0 {
		return s.repo.ListMetrics(ctx)
	}

	boundary := curFrom.Format(dateLayout)
	var cur, prev []domain.PerformanceData
	for _, r := range rows {
		if r.Date >= boundary {
			cur = append(cur, r)
		} else {
			prev = append(prev, r)
		}
	}
	c, p := sum(cur), sum(prev)

	period := fmt.Sprintf("%dd", periodDays)
	cvr, prevCVR := analytics.ConversionRatePercent(c.conversions, c.clicks), analytics.ConversionRatePercent(p.conversions, p.clicks)
	cpc, prevCPC := analytics.CostPerAction(c.spend, c.clicks), analytics.CostPerAction(p.spend, p.clicks)
	created := s.now().UTC()

	return []domain.Metric{
		{Name: "Total Impressions", Value: compact(c.impressions), Change: change(c.impressions, p.impressions), Period: period, CreatedAt: created},
		{Name: "Total Clicks", Value: compact(c.clicks), Change: change(c.clicks, p.clicks), Period: period, CreatedAt: created},
		{Name: "Conversion Rate", Value: fmt.Sprintf("%.2f%%", cvr), Change: change(cvr, prevCVR), Period: period, CreatedAt: created},
		{Name: "Cost Per Click", Value: fmt.Sprintf("$%.2f", cpc), Change: change(cpc, prevCPC), Period: period, CreatedAt: created},
	}, nil
}

// change formats the relative change as a signed percentage. A zero
// previous value reports no change.
func change(cur, prev float64) string {
	pct := analytics.SafeRatio(cur-prev, prev) * 100
	if pct >= 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// compact formats counts as 950, 12.5K, 2.4M.
func compact(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
