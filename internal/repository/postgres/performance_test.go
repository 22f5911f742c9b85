package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/service/dashboard"
)

func TestListPerformance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM performance_data WHERE date >= $1 AND date <= $2 AND LOWER(platform) = LOWER($3) ORDER BY date")).
		WithArgs("2024-03-01", "2024-03-31", "facebook").
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "date", "impressions", "clicks", "conversions", "spend", "revenue", "platform", "created_at"}).
			AddRow("p-1", nil, "2024-03-02", int64(1000), int64(40), int64(3), 55.5, 180.0, "facebook", time.Now()))

	rows, err := NewPerformanceRepo(db).ListPerformance(context.Background(), dashboard.PerformanceFilter{
		From: "2024-03-01", To: "2024-03-31", Platform: "facebook",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].CampaignID)
	assert.Equal(t, "facebook", *rows[0].Platform)
	assert.Equal(t, 55.5, rows[0].Spend)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMetrics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM metrics").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "value", "change", "period", "created_at"}).
			AddRow("m-1", "Total Clicks", "12.4K", "+8.2%", "30d", time.Now()))

	metrics, err := NewPerformanceRepo(db).ListMetrics(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, "+8.2%", metrics[0].Change)
}
