package database

import (
	"context"
	"fmt"
	"time"

	"github.com/xavierca1/followup-core/internal/entity"
)

type QuotaRepository struct {
	conn *Conn
}

func NewQuotaRepository(conn *Conn) *QuotaRepository {
	return &QuotaRepository{conn: conn}
}

// GetUsage reads both counters of a period. A missing row means zero.
func (r *QuotaRepository) GetUsage(ctx context.Context, tenantID, period string) (entity.Usage, error) {
	usage := entity.Usage{TenantID: tenantID, Period: period}

	query := r.conn.Rebind(`SELECT channel, sent_count FROM quota_counters WHERE tenant_id = ? AND period = ?`)
	rows, err := r.conn.DB.QueryContext(ctx, query, tenantID, period)
	if err != nil {
		return usage, fmt.Errorf("read quota usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			channel string
			count   int
		)
		if err := rows.Scan(&channel, &count); err != nil {
			return usage, fmt.Errorf("scan quota usage: %w", err)
		}
		switch entity.Channel(channel) {
		case entity.ChannelSMS:
			usage.SMS = count
		case entity.ChannelMMS:
			usage.MMS = count
		}
	}
	if err := rows.Err(); err != nil {
		return usage, fmt.Errorf("iterate quota usage: %w", err)
	}
	return usage, nil
}

// Increment bumps one counter with a single upsert so concurrent senders never
// lose an update. It returns the count after the increment.
func (r *QuotaRepository) Increment(ctx context.Context, tenantID, period string, channel entity.Channel, now time.Time) (int, error) {
	query := r.conn.Rebind(`
		INSERT INTO quota_counters (tenant_id, period, channel, sent_count, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (tenant_id, period, channel)
		DO UPDATE SET sent_count = quota_counters.sent_count + 1, updated_at = excluded.updated_at
		RETURNING sent_count
	`)

	var count int
	err := r.conn.DB.QueryRowContext(ctx, query, tenantID, period, string(channel), toMillis(now)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment quota %s/%s/%s: %w", tenantID, period, channel, err)
	}
	return count, nil
}
