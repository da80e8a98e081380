package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/infra/database"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func openTestConn(t *testing.T) *database.Conn {
	t.Helper()
	conn, err := database.NewDBConnection("sqlite", filepath.Join(t.TempDir(), "followup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func seedTenant(t *testing.T, conn *database.Conn, id, plan string) {
	t.Helper()
	err := database.NewTenantRepository(conn).Create(context.Background(), &entity.Tenant{
		ID: id, Name: "Grace Church", Plan: plan, CreatedAt: base,
	})
	require.NoError(t, err)
}

func seedPerson(t *testing.T, conn *database.Conn, tenantID string, kind entity.PersonKind, email string, createdAt time.Time) *entity.Person {
	t.Helper()
	p, err := entity.NewPerson(tenantID, kind, "Ana", "Lima", email, "+15551234567", createdAt)
	require.NoError(t, err)
	require.NoError(t, database.NewPersonRepository(conn).Create(context.Background(), p))
	return p
}

func seedScheduled(t *testing.T, conn *database.Conn, p *entity.Person, date string) *entity.FollowUpRecord {
	t.Helper()
	f := entity.NewFollowUpRecord(p.TenantID, p.ID, entity.OutcomeScheduledVisit, entity.NotifyEmail, base)
	f.NextFollowUpDate = date
	f.NextFollowUpTime = "18:30"
	require.NoError(t, database.NewFollowUpRepository(conn).Create(context.Background(), f))
	return f
}
