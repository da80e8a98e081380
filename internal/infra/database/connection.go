package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver "pgx"
	_ "github.com/lib/pq"              // Postgres driver "postgres"
	_ "modernc.org/sqlite"             // SQLite driver "sqlite"
)

// Dialect is the small amount of SQL that differs between the supported engines.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// Conn bundles the pool with the dialect of its driver. Repositories write
// queries with "?" placeholders and Rebind them before execution.
type Conn struct {
	DB      *sql.DB
	Dialect Dialect
}

// NewDBConnection opens the pool, pings it and applies pending migrations.
// driver is one of "pgx", "postgres" or "sqlite".
func NewDBConnection(driver, connString string) (*Conn, error) {
	var (
		dialect Dialect
		dsn     = connString
	)
	switch driver {
	case "pgx", "postgres":
		dialect = DialectPostgres
	case "sqlite":
		dialect = DialectSQLite
		dsn = sqliteDSN(connString)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if dialect == DialectSQLite {
		// SQLite has one writer; a single connection keeps busy errors away.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	conn := &Conn{DB: db, Dialect: dialect}
	if err := conn.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Conn) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, "?") {
		return path
	}
	return filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Rebind turns "?" placeholders into "$n" for Postgres.
func (c *Conn) Rebind(query string) string {
	if c.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
