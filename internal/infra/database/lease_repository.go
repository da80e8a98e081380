package database

import (
	"context"
	"fmt"
	"time"
)

type LeaseRepository struct {
	conn *Conn
}

func NewLeaseRepository(conn *Conn) *LeaseRepository {
	return &LeaseRepository{conn: conn}
}

// TryAcquire takes the named lease when it is free, expired, or already ours.
func (r *LeaseRepository) TryAcquire(ctx context.Context, name, holder string, now time.Time, ttl time.Duration) (bool, error) {
	query := r.conn.Rebind(`
		INSERT INTO scheduler_leases (name, holder, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET holder = excluded.holder, expires_at = excluded.expires_at
		WHERE scheduler_leases.expires_at <= ? OR scheduler_leases.holder = excluded.holder
	`)

	res, err := r.conn.DB.ExecContext(ctx, query, name, holder, toMillis(now.Add(ttl)), toMillis(now))
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *LeaseRepository) Release(ctx context.Context, name, holder string) error {
	query := r.conn.Rebind(`DELETE FROM scheduler_leases WHERE name = ? AND holder = ?`)
	if _, err := r.conn.DB.ExecContext(ctx, query, name, holder); err != nil {
		return fmt.Errorf("release lease %s: %w", name, err)
	}
	return nil
}
