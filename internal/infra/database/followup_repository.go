package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/followup-core/internal/entity"
)

type FollowUpRepository struct {
	conn *Conn
}

func NewFollowUpRepository(conn *Conn) *FollowUpRepository {
	return &FollowUpRepository{conn: conn}
}

const followUpColumns = `id, tenant_id, person_id, checkin_date, outcome, next_followup_date,
	next_followup_time, video_link, notification_method, notes, created_at, updated_at`

func (r *FollowUpRepository) Create(ctx context.Context, f *entity.FollowUpRecord) error {
	query := r.conn.Rebind(`
		INSERT INTO followups (` + followUpColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.conn.DB.ExecContext(ctx, query,
		f.ID,
		f.TenantID,
		f.PersonID,
		toMillis(f.CheckinDate),
		string(f.Outcome),
		f.NextFollowUpDate,
		f.NextFollowUpTime,
		f.VideoLink,
		string(f.NotificationMethod),
		f.Notes,
		toMillis(f.CreatedAt),
		toMillis(f.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert follow-up: %w", err)
	}
	return nil
}

func (r *FollowUpRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.FollowUpRecord, error) {
	query := r.conn.Rebind(`SELECT ` + followUpColumns + ` FROM followups WHERE tenant_id = ? AND id = ?`)

	f, err := scanFollowUp(r.conn.DB.QueryRowContext(ctx, query, tenantID, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find follow-up %s: %w", id, err)
	}
	return f, nil
}

func (r *FollowUpRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.conn.DB.ExecContext(ctx, r.conn.Rebind(`DELETE FROM followups WHERE tenant_id = ? AND id = ?`), tenantID, id)
	if err != nil {
		return fmt.Errorf("delete follow-up %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *FollowUpRepository) ListByPerson(ctx context.Context, tenantID, personID string) ([]*entity.FollowUpRecord, error) {
	query := r.conn.Rebind(`
		SELECT ` + followUpColumns + `
		FROM followups
		WHERE tenant_id = ? AND person_id = ?
		ORDER BY checkin_date DESC, created_at DESC
	`)
	return r.list(ctx, query, tenantID, personID)
}

func (r *FollowUpRepository) ListScheduledBefore(ctx context.Context, date string) ([]*entity.FollowUpRecord, error) {
	query := r.conn.Rebind(`
		SELECT ` + followUpColumns + `
		FROM followups
		WHERE outcome = ? AND next_followup_date <> '' AND next_followup_date < ?
		ORDER BY next_followup_date ASC
	`)
	return r.list(ctx, query, string(entity.OutcomeScheduledVisit), date)
}

func (r *FollowUpRepository) ListScheduledOn(ctx context.Context, date string) ([]entity.FollowUpWithPerson, error) {
	query := r.conn.Rebind(`
		SELECT
			f.id, f.tenant_id, f.person_id, f.checkin_date, f.outcome, f.next_followup_date,
			f.next_followup_time, f.video_link, f.notification_method, f.notes, f.created_at, f.updated_at,
			p.id, p.tenant_id, p.kind, p.first_name, p.last_name, p.email, p.phone, p.status,
			p.follow_up_stage, p.stage_updated_at, p.created_at, p.updated_at
		FROM followups f
		JOIN persons p ON p.id = f.person_id
		WHERE f.outcome = ? AND f.next_followup_date = ?
		ORDER BY f.next_followup_time ASC, f.id ASC
	`)

	rows, err := r.conn.DB.QueryContext(ctx, query, string(entity.OutcomeScheduledVisit), date)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups on %s: %w", date, err)
	}
	defer rows.Close()

	var out []entity.FollowUpWithPerson
	for rows.Next() {
		var (
			fDest  = newFollowUpScan()
			pDest  = newPersonScan()
			fields = append(fDest.dest(), pDest.dest()...)
		)
		if err := rows.Scan(fields...); err != nil {
			return nil, fmt.Errorf("scan follow-up with person: %w", err)
		}
		out = append(out, entity.FollowUpWithPerson{
			FollowUp: fDest.record(),
			Person:   pDest.record(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow-ups: %w", err)
	}
	return out, nil
}

func (r *FollowUpRepository) ExpireIfOverdue(ctx context.Context, id, today string, now time.Time) (bool, error) {
	query := r.conn.Rebind(`
		UPDATE followups
		SET outcome = ?, updated_at = ?
		WHERE id = ? AND outcome = ? AND next_followup_date <> '' AND next_followup_date < ?
	`)
	return r.execAffected(ctx, query,
		string(entity.OutcomeNotCompleted),
		toMillis(now),
		id,
		string(entity.OutcomeScheduledVisit),
		today,
	)
}

func (r *FollowUpRepository) CompleteScheduled(ctx context.Context, tenantID, id string, outcome entity.Outcome, notes string, now time.Time) (bool, error) {
	query := r.conn.Rebind(`
		UPDATE followups
		SET outcome = ?, notes = CASE WHEN ? = '' THEN notes ELSE ? END, checkin_date = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND outcome = ?
	`)
	return r.execAffected(ctx, query,
		string(outcome),
		notes, notes,
		toMillis(now),
		toMillis(now),
		tenantID,
		id,
		string(entity.OutcomeScheduledVisit),
	)
}

// Restore puts f back the way it was read, provided the record still carries
// outcome from. Used to undo a completion.
func (r *FollowUpRepository) Restore(ctx context.Context, f *entity.FollowUpRecord, from entity.Outcome) (bool, error) {
	query := r.conn.Rebind(`
		UPDATE followups
		SET outcome = ?, notes = ?, checkin_date = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND outcome = ?
	`)
	return r.execAffected(ctx, query,
		string(f.Outcome),
		f.Notes,
		toMillis(f.CheckinDate),
		toMillis(f.UpdatedAt),
		f.TenantID,
		f.ID,
		string(from),
	)
}

func (r *FollowUpRepository) list(ctx context.Context, query string, args ...any) ([]*entity.FollowUpRecord, error) {
	rows, err := r.conn.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	var out []*entity.FollowUpRecord
	for rows.Next() {
		f, err := scanFollowUp(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow-ups: %w", err)
	}
	return out, nil
}

func (r *FollowUpRepository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.conn.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update follow-up: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// followUpScan holds raw column values for one follow-up row.
type followUpScan struct {
	f                         entity.FollowUpRecord
	outcome, method           string
	checkin, created, updated int64
}

func newFollowUpScan() *followUpScan { return &followUpScan{} }

func (s *followUpScan) dest() []any {
	return []any{
		&s.f.ID,
		&s.f.TenantID,
		&s.f.PersonID,
		&s.checkin,
		&s.outcome,
		&s.f.NextFollowUpDate,
		&s.f.NextFollowUpTime,
		&s.f.VideoLink,
		&s.method,
		&s.f.Notes,
		&s.created,
		&s.updated,
	}
}

func (s *followUpScan) record() *entity.FollowUpRecord {
	f := s.f
	f.Outcome = entity.Outcome(s.outcome)
	f.NotificationMethod = entity.NotificationMethod(s.method)
	f.CheckinDate = fromMillis(s.checkin)
	f.CreatedAt = fromMillis(s.created)
	f.UpdatedAt = fromMillis(s.updated)
	return &f
}

func scanFollowUp(scan func(dest ...any) error) (*entity.FollowUpRecord, error) {
	s := newFollowUpScan()
	if err := scan(s.dest()...); err != nil {
		return nil, err
	}
	return s.record(), nil
}
