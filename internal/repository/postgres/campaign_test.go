package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/service/campaign"
)

var campaignCols = []string{
	"id", "name", "type", "platform", "impressions", "clicks", "spend", "status",
	"targets", "conversion_value", "sources", "created_at", "updated_at",
}

func campaignRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(campaignCols).AddRow(
		"c-1", "Spring Sale", "conversion", "facebook", int64(12000), int64(340), "1250.50", "active",
		[]byte(`{"cpa":25}`), 40.0, []byte(`[{"kind":"s3","location":"exports/spring.csv"}]`), now, now,
	)
}

func TestCampaignGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM campaigns WHERE id = \\$1").
		WithArgs("c-1").
		WillReturnRows(campaignRow(now))

	c, err := NewCampaignRepo(db).Get(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Spring Sale", c.Name)
	assert.Equal(t, domain.CampaignActive, c.Status)
	assert.Equal(t, map[string]float64{"cpa": 25}, c.Targets)
	require.NotNil(t, c.ConversionValue)
	assert.Equal(t, 40.0, *c.ConversionValue)
	assert.Equal(t, []domain.ReportSource{{Kind: domain.SourceS3, Location: "exports/spring.csv"}}, c.Sources)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM campaigns").WillReturnRows(sqlmock.NewRows(campaignCols))

	_, err = NewCampaignRepo(db).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestCampaignList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM campaigns WHERE status = $1 AND LOWER(platform) = LOWER($2)")).
		WithArgs("active", "facebook").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs("active", "facebook", 50, 10).
		WillReturnRows(campaignRow(time.Now()))

	list, total, err := NewCampaignRepo(db).List(context.Background(), campaign.ListFilter{
		Status: "active", Platform: "facebook", Offset: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO campaigns").
		WithArgs(sqlmock.AnyArg(), "Spring Sale", "conversion", "facebook", int64(0), int64(0), "100", domain.CampaignActive,
			[]byte(`{"roas":3}`), nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c := &domain.Campaign{
		Name:   "Spring Sale", Type: "conversion", Platform: "facebook", Spend: "100",
		Status: domain.CampaignActive, Targets: map[string]float64{"roas": 3},
	}
	id, err := NewCampaignRepo(db).Create(context.Background(), c)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, now, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE campaigns SET name = $1, status = $2, updated_at = NOW() WHERE id = $3 RETURNING")).
		WithArgs("Renamed", domain.CampaignPaused, "c-1").
		WillReturnRows(campaignRow(time.Now()))

	name := "Renamed"
	status := domain.CampaignPaused
	_, err = NewCampaignRepo(db).Update(context.Background(), "c-1", campaign.UpdateFields{Name: &name, Status: &status})
	require.NoError(t, err)

	mock.ExpectQuery("UPDATE campaigns").WillReturnRows(sqlmock.NewRows(campaignCols))
	_, err = NewCampaignRepo(db).Update(context.Background(), "gone", campaign.UpdateFields{Name: &name})
	assert.ErrorIs(t, err, campaign.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM campaigns").WithArgs("c-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM campaigns").WithArgs("c-2").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCampaignRepo(db)
	assert.NoError(t, repo.Delete(context.Background(), "c-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "c-2"), campaign.ErrNotFound)
}
