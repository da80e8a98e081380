package database

import (
	"context"
	"fmt"

	"github.com/xavierca1/followup-core/internal/entity"
)

type ReminderLogRepository struct {
	conn *Conn
}

func NewReminderLogRepository(conn *Conn) *ReminderLogRepository {
	return &ReminderLogRepository{conn: conn}
}

func (r *ReminderLogRepository) Exists(ctx context.Context, followUpID string, rt entity.ReminderType) (bool, error) {
	query := r.conn.Rebind(`SELECT COUNT(1) FROM reminder_sent_log WHERE followup_id = ? AND reminder_type = ?`)

	var n int
	if err := r.conn.DB.QueryRowContext(ctx, query, followUpID, string(rt)).Scan(&n); err != nil {
		return false, fmt.Errorf("check reminder log: %w", err)
	}
	return n > 0, nil
}

// Insert relies on the (followup_id, reminder_type) primary key: a second
// writer for the same pair inserts nothing and gets false back.
func (r *ReminderLogRepository) Insert(ctx context.Context, log entity.ReminderSentLog) (bool, error) {
	query := r.conn.Rebind(`
		INSERT INTO reminder_sent_log (followup_id, reminder_type, provider_message_id, sent_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (followup_id, reminder_type) DO NOTHING
	`)

	res, err := r.conn.DB.ExecContext(ctx, query,
		log.FollowUpID,
		string(log.ReminderType),
		log.ProviderMessageID,
		toMillis(log.SentAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert reminder log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
