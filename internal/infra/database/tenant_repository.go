package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/followup-core/internal/entity"
)

type TenantRepository struct {
	conn *Conn
}

func NewTenantRepository(conn *Conn) *TenantRepository {
	return &TenantRepository{conn: conn}
}

func (r *TenantRepository) Create(ctx context.Context, t *entity.Tenant) error {
	query := r.conn.Rebind(`INSERT INTO tenants (id, name, plan, created_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.conn.DB.ExecContext(ctx, query, t.ID, t.Name, t.Plan, toMillis(t.CreatedAt)); err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) GetPlan(ctx context.Context, tenantID string) (string, error) {
	var plan string
	err := r.conn.DB.QueryRowContext(ctx, r.conn.Rebind(`SELECT plan FROM tenants WHERE id = ?`), tenantID).Scan(&plan)
	if errors.Is(err, sql.ErrNoRows) {
		return "", entity.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get tenant plan: %w", err)
	}
	return plan, nil
}
