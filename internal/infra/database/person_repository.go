package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/followup-core/internal/entity"
)

type PersonRepository struct {
	conn *Conn
}

func NewPersonRepository(conn *Conn) *PersonRepository {
	return &PersonRepository{conn: conn}
}

const personColumns = `id, tenant_id, kind, first_name, last_name, email, phone, status,
	follow_up_stage, stage_updated_at, created_at, updated_at`

func (r *PersonRepository) Create(ctx context.Context, p *entity.Person) error {
	query := r.conn.Rebind(`
		INSERT INTO persons (` + personColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.conn.DB.ExecContext(ctx, query,
		p.ID,
		p.TenantID,
		string(p.Kind),
		p.FirstName,
		p.LastName,
		nullableString(p.Email),
		p.Phone,
		string(p.Status),
		string(p.FollowUpStage),
		toMillis(p.StageUpdatedAt),
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (r *PersonRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.Person, error) {
	query := r.conn.Rebind(`SELECT ` + personColumns + ` FROM persons WHERE tenant_id = ? AND id = ?`)

	p, err := scanPerson(r.conn.DB.QueryRowContext(ctx, query, tenantID, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find person %s: %w", id, err)
	}
	return p, nil
}

func (r *PersonRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.conn.DB.ExecContext(ctx, r.conn.Rebind(`DELETE FROM persons WHERE tenant_id = ? AND id = ?`), tenantID, id)
	if err != nil {
		return fmt.Errorf("delete person %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *PersonRepository) ListNewConvertsWithoutFollowUps(ctx context.Context, createdBefore time.Time) ([]*entity.Person, error) {
	query := r.conn.Rebind(`
		SELECT ` + personColumns + `
		FROM persons
		WHERE kind = ?
			AND status = ?
			AND created_at < ?
			AND NOT EXISTS (SELECT 1 FROM followups f WHERE f.person_id = persons.id)
		ORDER BY created_at ASC
	`)
	return r.list(ctx, query, string(entity.KindConvert), string(entity.StatusNew), toMillis(createdBefore))
}

func (r *PersonRepository) ListNewMembersInStage(ctx context.Context, stage entity.Stage) ([]*entity.Person, error) {
	query := r.conn.Rebind(`
		SELECT ` + personColumns + `
		FROM persons
		WHERE kind = ? AND follow_up_stage = ?
		ORDER BY stage_updated_at ASC
	`)
	return r.list(ctx, query, string(entity.KindNewMember), string(stage))
}

func (r *PersonRepository) MarkNeverContacted(ctx context.Context, id string, createdBefore, now time.Time) (bool, error) {
	query := r.conn.Rebind(`
		UPDATE persons
		SET status = ?, updated_at = ?
		WHERE id = ?
			AND kind = ?
			AND status = ?
			AND created_at < ?
			AND NOT EXISTS (SELECT 1 FROM followups f WHERE f.person_id = persons.id)
	`)
	return r.execAffected(ctx, query,
		string(entity.StatusNeverContacted),
		toMillis(now),
		id,
		string(entity.KindConvert),
		string(entity.StatusNew),
		toMillis(createdBefore),
	)
}

// TransitionStage is a compare-and-swap on follow_up_stage. The WHERE clause
// repeats every eligibility condition so a concurrent change makes it a no-op.
func (r *PersonRepository) TransitionStage(ctx context.Context, t entity.StageTransition) (bool, error) {
	var (
		where = []string{"id = ?", "kind = ?", "follow_up_stage = ?"}
		args  = []any{
			string(t.To), toMillis(t.At), toMillis(t.At),
			t.PersonID, string(entity.KindNewMember), string(t.From),
		}
	)
	if t.TenantID != "" {
		where = append(where, "tenant_id = ?")
		args = append(args, t.TenantID)
	}
	if !t.EnteredBefore.IsZero() {
		where = append(where, "stage_updated_at <= ?")
		args = append(args, toMillis(t.EnteredBefore))
	}
	if t.RequireNoFollowUps {
		where = append(where, "NOT EXISTS (SELECT 1 FROM followups f WHERE f.person_id = persons.id)")
	}

	query := r.conn.Rebind(`
		UPDATE persons
		SET follow_up_stage = ?, stage_updated_at = ?, updated_at = ?
		WHERE ` + strings.Join(where, " AND "))

	return r.execAffected(ctx, query, args...)
}

func (r *PersonRepository) UpdateStatus(ctx context.Context, tenantID, id string, status entity.PersonStatus, now time.Time) error {
	query := r.conn.Rebind(`UPDATE persons SET status = ?, updated_at = ? WHERE tenant_id = ? AND id = ?`)
	ok, err := r.execAffected(ctx, query, string(status), toMillis(now), tenantID, id)
	if err != nil {
		return err
	}
	if !ok {
		return entity.ErrNotFound
	}
	return nil
}

func (r *PersonRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Person, error) {
	rows, err := r.conn.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var out []*entity.Person
	for rows.Next() {
		p, err := scanPerson(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return out, nil
}

func (r *PersonRepository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.conn.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// personScan holds raw column values for one person row.
type personScan struct {
	p                              entity.Person
	kind, status, stage            string
	email                          sql.NullString
	stageUpdated, created, updated int64
}

func newPersonScan() *personScan { return &personScan{} }

func (s *personScan) dest() []any {
	return []any{
		&s.p.ID,
		&s.p.TenantID,
		&s.kind,
		&s.p.FirstName,
		&s.p.LastName,
		&s.email,
		&s.p.Phone,
		&s.status,
		&s.stage,
		&s.stageUpdated,
		&s.created,
		&s.updated,
	}
}

func (s *personScan) record() *entity.Person {
	p := s.p
	p.Kind = entity.PersonKind(s.kind)
	p.Status = entity.PersonStatus(s.status)
	p.FollowUpStage = entity.Stage(s.stage)
	p.Email = s.email.String
	p.StageUpdatedAt = fromMillis(s.stageUpdated)
	p.CreatedAt = fromMillis(s.created)
	p.UpdatedAt = fromMillis(s.updated)
	return &p
}

func scanPerson(scan func(dest ...any) error) (*entity.Person, error) {
	s := newPersonScan()
	if err := scan(s.dest()...); err != nil {
		return nil, err
	}
	return s.record(), nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
