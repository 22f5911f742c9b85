package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/service/campaign"
)

const campaignColumns = `id, name, type, platform, impressions, clicks, spend::text, status,
	       targets, conversion_value, sources, created_at, updated_at`

// CampaignRepo implements campaign.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	var (
		c         domain.Campaign
		targets   []byte
		sources   []byte
		convValue sql.NullFloat64
	)
	if err := row.Scan(
		&c.ID, &c.Name, &c.Type, &c.Platform, &c.Impressions, &c.Clicks, &c.Spend, &c.Status,
		&targets, &convValue, &sources, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(targets) > 0 {
		if err := json.Unmarshal(targets, &c.Targets); err != nil {
			return nil, fmt.Errorf("decode targets: %w", err)
		}
	}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &c.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
	}
	if convValue.Valid {
		v := convValue.Float64
		c.ConversionValue = &v
	}
	return &c, nil
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	var w whereBuilder
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if f.Platform != "" {
		w.add("LOWER(platform) = LOWER($%d)", f.Platform)
	}
	if f.Search != "" {
		w.add("name ILIKE $%d", "%"+f.Search+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	n := len(w.args)
	q := `SELECT ` + campaignColumns + ` FROM campaigns` + w.String() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args := append(w.args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	return out, total, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	targets, err := jsonb(c.Targets)
	if err != nil {
		return "", fmt.Errorf("encode targets: %w", err)
	}
	sources, err := jsonb(c.Sources)
	if err != nil {
		return "", fmt.Errorf("encode sources: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO campaigns
			(id, name, type, platform, impressions, clicks, spend, status,
			 targets, conversion_value, sources, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Type, c.Platform, c.Impressions, c.Clicks, c.Spend, c.Status,
		targets, c.ConversionValue, sources).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}

func (r *CampaignRepo) Update(ctx context.Context, id string, u campaign.UpdateFields) (*domain.Campaign, error) {
	var b setBuilder
	if u.Name != nil {
		b.add("name", *u.Name)
	}
	if u.Type != nil {
		b.add("type", *u.Type)
	}
	if u.Platform != nil {
		b.add("platform", *u.Platform)
	}
	if u.Spend != nil {
		b.add("spend", *u.Spend)
	}
	if u.Impressions != nil {
		b.add("impressions", *u.Impressions)
	}
	if u.Clicks != nil {
		b.add("clicks", *u.Clicks)
	}
	if u.Status != nil {
		b.add("status", *u.Status)
	}
	if u.Targets != nil {
		v, err := jsonb(u.Targets)
		if err != nil {
			return nil, fmt.Errorf("encode targets: %w", err)
		}
		b.add("targets", v)
	}
	if u.ConversionValue != nil {
		b.add("conversion_value", *u.ConversionValue)
	}
	if u.Sources != nil {
		v, err := jsonb(u.Sources)
		if err != nil {
			return nil, fmt.Errorf("encode sources: %w", err)
		}
		b.add("sources", v)
	}

	if b.empty() {
		return r.Get(ctx, id)
	}

	q := fmt.Sprintf("UPDATE campaigns SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s",
		b.String(), b.next(), campaignColumns)
	args := append(b.args, id)

	c, err := scanCampaign(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}
