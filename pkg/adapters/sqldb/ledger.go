// Package sqldb records session outcomes in a SQL database. SQLite
// (modernc.org/sqlite) and Postgres (github.com/lib/pq) are supported; the
// schema is managed with golang-migrate.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names a supported database. Its value is also the database/sql driver name.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect accepts the configured ledger driver name.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unknown ledger driver %q", name)
}

// Ledger implements ports.OutcomeLedger.
type Ledger struct {
	db      *sql.DB
	dialect Dialect
}

var _ ports.OutcomeLedger = (*Ledger)(nil)

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
}

// Open connects to dsn, applies migrations and returns a ledger that owns the connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Ledger, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One writer at a time avoids SQLITE_BUSY under concurrent sessions.
		db.SetMaxOpenConns(1)
		for _, p := range sqlitePragmas {
			if _, err := db.ExecContext(ctx, p); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("%s: %w", p, err)
			}
		}
	}
	l, err := New(db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// New wraps an existing connection and applies migrations.
func New(db *sql.DB, dialect Dialect) (*Ledger, error) {
	if err := Migrate(db, dialect); err != nil {
		return nil, err
	}
	return &Ledger{db: db, dialect: dialect}, nil
}

// Close closes the underlying connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// placeholder returns the n-th (1-based) bind parameter.
func (l *Ledger) placeholder(n int) string {
	if l.dialect == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// RecordOutcome inserts rec. Times are stored as unix microseconds in UTC.
func (l *Ledger) RecordOutcome(ctx context.Context, rec domain.OutcomeRecord) error {
	ph := make([]string, 8)
	for i := range ph {
		ph[i] = l.placeholder(i + 1)
	}
	query := `INSERT INTO outcomes (id, session_id, module_id, status, max_severity, outcome, steps, recorded_at)
		VALUES (` + strings.Join(ph, ", ") + `)`

	_, err := l.db.ExecContext(ctx, query,
		rec.ID, rec.SessionID, rec.ModuleID, string(rec.Status),
		int(rec.MaxSeverity), string(rec.Outcome), rec.Steps, rec.RecordedAt.UTC().UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("record outcome %s: %w", rec.ID, err)
	}
	return nil
}

// ListOutcomes returns matching records, newest first.
func (l *Ledger) ListOutcomes(ctx context.Context, filter ports.OutcomeFilter) ([]domain.OutcomeRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.ModuleID != "" {
		args = append(args, filter.ModuleID)
		where = append(where, "module_id = "+l.placeholder(len(args)))
	}
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		where = append(where, "session_id = "+l.placeholder(len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT id, session_id, module_id, status, max_severity, outcome, steps, recorded_at FROM outcomes`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY recorded_at DESC, id DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(" LIMIT " + l.placeholder(len(args)))
	}

	rows, err := l.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []domain.OutcomeRecord
	for rows.Next() {
		var (
			rec      domain.OutcomeRecord
			status   string
			severity int
			outcome  string
			micros   int64
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ModuleID, &status, &severity, &outcome, &rec.Steps, &micros); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		rec.Status = domain.Status(status)
		rec.MaxSeverity = domain.Severity(severity)
		rec.Outcome = domain.Outcome(outcome)
		rec.RecordedAt = time.UnixMicro(micros).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
