package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/domain"
)

type fakeRepo struct {
	rows    []domain.PerformanceData
	metrics []domain.Metric
	filter  PerformanceFilter
	err     error
}

func (f *fakeRepo) ListPerformance(_ context.Context, pf PerformanceFilter) ([]domain.PerformanceData, error) {
	f.filter = pf
	var out []domain.PerformanceData
	for _, r := range f.rows {
		if (pf.From == "" || r.Date >= pf.From) && (pf.To == "" || r.Date <= pf.To) {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeRepo) ListMetrics(context.Context) ([]domain.Metric, error) {
	return f.metrics, nil
}

func day(date string, impressions, clicks, conversions int64, spend float64) domain.PerformanceData {
	return domain.PerformanceData{Date: date, Impressions: impressions, Clicks: clicks, Conversions: conversions, Spend: spend}
}

func newService(repo Repository) *Service {
	s := NewService(repo)
	s.now = func() time.Time { return time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC) }
	return s
}

func TestKPITiles(t *testing.T) {
	repo := &fakeRepo{rows: []domain.PerformanceData{
		// previous 7 days: 2024-03-01 .. 2024-03-07
		day("2024-03-02", 800000, 1000, 50, 500),
		day("2024-03-07", 200000, 1000, 50, 500),
		// current 7 days: 2024-03-08 .. 2024-03-14
		day("2024-03-08", 1500000, 2000, 80, 800),
		day("2024-03-14", 900000, 500, 20, 200),
		// outside both windows
		day("2024-02-20", 999, 999, 999, 999),
	}}

	tiles, err := newService(repo).KPITiles(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", repo.filter.From)
	assert.Equal(t, "2024-03-14", repo.filter.To)

	require.Len(t, tiles, 4)
	assert.Equal(t, "Total Impressions", tiles[0].Name)
	assert.Equal(t, "2.4M", tiles[0].Value)
	assert.Equal(t, "+140.0%", tiles[0].Change)
	assert.Equal(t, "2.5K", tiles[1].Value)
	assert.Equal(t, "+25.0%", tiles[1].Change)
	assert.Equal(t, "4.00%", tiles[2].Value)
	assert.Equal(t, "-20.0%", tiles[2].Change)
	assert.Equal(t, "$0.40", tiles[3].Value)
	assert.Equal(t, "-20.0%", tiles[3].Change)
	assert.Equal(t, "7d", tiles[3].Period)
}

func TestKPITilesNoPreviousPeriod(t *testing.T) {
	repo := &fakeRepo{rows: []domain.PerformanceData{day("2024-03-14", 10, 0, 0, 5)}}
	tiles, err := newService(repo).KPITiles(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, "+0.0%", tiles[0].Change)
	assert.Equal(t, "0.00%", tiles[2].Value, "zero clicks gives a zero rate")
	assert.Equal(t, "$0.00", tiles[3].Value)
}

func TestKPITilesFallsBackToStoredMetrics(t *testing.T) {
	stored := []domain.Metric{{Name: "Total Impressions", Value: "2.4M", Change: "+12.5%", Period: "30d"}}
	tiles, err := newService(&fakeRepo{metrics: stored}).KPITiles(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, stored, tiles)
}

func TestKPITilesErrors(t *testing.T) {
	_, err := newService(&fakeRepo{}).KPITiles(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = newService(&fakeRepo{err: errors.New("db down")}).KPITiles(context.Background(), 7)
	assert.ErrorContains(t, err, "db down")
}

func TestPerformanceValidatesDates(t *testing.T) {
	svc := newService(&fakeRepo{rows: []domain.PerformanceData{day("2024-03-01", 1, 1, 1, 1)}})

	rows, err := svc.Performance(context.Background(), PerformanceFilter{From: "2024-03-01"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.Performance(context.Background(), PerformanceFilter{To: "03/01/2024"})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "950", compact(950))
	assert.Equal(t, "12.5K", compact(12500))
	assert.Equal(t, "3.2B", compact(3.2e9))
}
