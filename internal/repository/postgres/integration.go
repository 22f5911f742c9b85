package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/service/integration"
)

const integrationColumns = `id, platform, status, COALESCE(api_key,''), account_id, last_sync,
	       COALESCE(access_token,''), COALESCE(refresh_token,''), token_expiry, created_at`

// IntegrationRepo implements integration.Repository against PostgreSQL.
type IntegrationRepo struct{ db *sql.DB }

// NewIntegrationRepo creates a Postgres-backed integration repository.
func NewIntegrationRepo(db *sql.DB) *IntegrationRepo { return &IntegrationRepo{db: db} }

func scanIntegration(row rowScanner) (*domain.Integration, error) {
	var (
		in        domain.Integration
		accountID sql.NullString
		lastSync  sql.NullTime
		expiry    sql.NullTime
	)
	if err := row.Scan(
		&in.ID, &in.Platform, &in.Status, &in.APIKey, &accountID, &lastSync,
		&in.AccessToken, &in.RefreshToken, &expiry, &in.CreatedAt,
	); err != nil {
		return nil, err
	}
	if accountID.Valid {
		in.AccountID = &accountID.String
	}
	if lastSync.Valid {
		in.LastSync = &lastSync.Time
	}
	if expiry.Valid {
		in.TokenExpiry = &expiry.Time
	}
	return &in, nil
}

func (r *IntegrationRepo) Get(ctx context.Context, id string) (*domain.Integration, error) {
	in, err := scanIntegration(r.db.QueryRowContext(ctx,
		`SELECT `+integrationColumns+` FROM integrations WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, integration.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get integration: %w", err)
	}
	return in, nil
}

func (r *IntegrationRepo) List(ctx context.Context) ([]domain.Integration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+integrationColumns+` FROM integrations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	out := []domain.Integration{}
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan integration: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func (r *IntegrationRepo) Create(ctx context.Context, in *domain.Integration) (string, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO integrations (id, platform, status, api_key, account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`, in.ID, in.Platform, in.Status, in.APIKey, in.AccountID).Scan(&in.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("create integration: %w", err)
	}
	return in.ID, nil
}

func (r *IntegrationRepo) Update(ctx context.Context, id string, u integration.UpdateFields) (*domain.Integration, error) {
	var b setBuilder
	if u.Status != nil {
		b.add("status", *u.Status)
	}
	if u.APIKey != nil {
		b.add("api_key", *u.APIKey)
	}
	if u.AccountID != nil {
		b.add("account_id", *u.AccountID)
	}
	if u.LastSync != nil {
		b.add("last_sync", *u.LastSync)
	}
	if u.AccessToken != nil {
		b.add("access_token", *u.AccessToken)
	}
	if u.RefreshToken != nil {
		b.add("refresh_token", *u.RefreshToken)
	}
	if u.TokenExpiry != nil {
		b.add("token_expiry", *u.TokenExpiry)
	}
	if b.empty() {
		return r.Get(ctx, id)
	}

	q := fmt.Sprintf("UPDATE integrations SET %s WHERE id = $%d RETURNING %s",
		b.String(), b.next(), integrationColumns)
	in, err := scanIntegration(r.db.QueryRowContext(ctx, q, append(b.args, id)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, integration.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update integration: %w", err)
	}
	return in, nil
}

func (r *IntegrationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM integrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete integration: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return integration.ErrNotFound
	}
	return nil
}
