package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/goliatone/go-instanceselect/pkg/project"
)

// Dialect selects placeholder syntax.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

const (
	defaultTable      = "instanceselect_data"
	defaultGroupTable = "instanceselect_groups"
)

// Option configures the store.
type Option func(*Store)

// WithDialect overrides the dialect inferred from the driver name.
func WithDialect(d Dialect) Option {
	return func(s *Store) {
		s.dialect = d
	}
}

// WithTables overrides the data and group table names.
func WithTables(data, groups string) Option {
	return func(s *Store) {
		if strings.TrimSpace(data) != "" {
			s.table = data
		}
		if strings.TrimSpace(groups) != "" {
			s.groupTable = groups
		}
	}
}

// WithLogger attaches a logger for statement tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store keeps record data in an EAV table, one row per
// (record, event_id, instance, field) slot, plus a table mapping records to
// data access groups.
type Store struct {
	db         *sql.DB
	dialect    Dialect
	table      string
	groupTable string
	logger     *zap.Logger
}

var _ project.Store = (*Store)(nil)

// Open connects with database/sql and pings the database. The dialect is
// derived from the driver name ("postgres" or "sqlite3").
func Open(ctx context.Context, driver, dsn string, options ...Option) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if dialect == DialectSQLite {
		// Every connection to an in-memory database is a new database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", driver, err)
	}
	return New(db, append([]Option{WithDialect(dialect)}, options...)...)
}

// New wraps an open database handle. The dialect defaults to postgres.
func New(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	s := &Store{
		db:         db,
		dialect:    DialectPostgres,
		table:      defaultTable,
		groupTable: defaultGroupTable,
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	switch s.dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("sqlstore: unsupported dialect %q", s.dialect)
	}
	return s, nil
}

// DialectFor maps a database/sql driver name to a dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	record TEXT NOT NULL,
	event_id INTEGER NOT NULL,
	form TEXT NOT NULL DEFAULT '',
	instance INTEGER NOT NULL DEFAULT 0,
	field TEXT NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (record, event_id, instance, field)
)`, s.quote(s.table)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (field)`,
			s.quote(s.table+"_field_idx"), s.quote(s.table)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	record TEXT PRIMARY KEY,
	group_id TEXT NOT NULL
)`, s.quote(s.groupTable)),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: ensure schema: %w", err)
		}
	}
	return nil
}

// Read implements project.Reader.
func (s *Store) Read(ctx context.Context, query project.Query) ([]project.Value, error) {
	stmt, args := s.selectStatement(query)
	s.logger.Debug("read", zap.String("sql", stmt), zap.Int("args", len(args)))

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: read: %w", err)
	}
	defer rows.Close()

	var out []project.Value
	for rows.Next() {
		var v project.Value
		if err := rows.Scan(&v.Record, &v.EventID, &v.Form, &v.Instance, &v.Field, &v.Value); err != nil {
			return nil, fmt.Errorf("sqlstore: scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate rows: %w", err)
	}

	project.SortValues(out)
	return out, nil
}

// Write implements project.Writer. The batch is upserted in one transaction.
func (s *Store) Write(ctx context.Context, values []project.Value) error {
	if len(values) == 0 {
		return nil
	}
	for _, value := range values {
		if value.Record == "" || value.Field == "" {
			return errors.New("sqlstore: record and field are required")
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, s.upsertStatement())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlstore: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, v.Record, v.EventID, v.Form, v.Instance, v.Field, v.Value); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlstore: upsert %s/%d/%d/%s: %w", v.Record, v.EventID, v.Instance, v.Field, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	s.logger.Debug("write", zap.Int("values", len(values)))
	return nil
}

// AssignGroups upserts record → data access group assignments.
func (s *Store) AssignGroups(ctx context.Context, groups map[string]string) error {
	if len(groups) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (record, group_id) VALUES (%s, %s)
ON CONFLICT (record) DO UPDATE SET group_id = excluded.group_id`,
		s.quote(s.groupTable), s.placeholder(1), s.placeholder(2))
	for record, group := range groups {
		if _, err := tx.ExecContext(ctx, stmt, record, group); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlstore: assign group %s: %w", record, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

func (s *Store) selectStatement(query project.Query) (string, []any) {
	var (
		b     strings.Builder
		args  []any
		conds []string
	)
	fmt.Fprintf(&b, "SELECT record, event_id, form, instance, field, value FROM %s", s.quote(s.table))

	in := func(column string, values []any) {
		marks := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			marks[i] = s.placeholder(len(args))
		}
		conds = append(conds, fmt.Sprintf("%s IN (%s)", column, strings.Join(marks, ", ")))
	}
	if len(query.Records) > 0 {
		in("record", toAny(query.Records))
	}
	if len(query.Events) > 0 {
		values := make([]any, len(query.Events))
		for i, id := range query.Events {
			values[i] = id
		}
		in("event_id", values)
	}
	if len(query.Fields) > 0 {
		in("field", toAny(query.Fields))
	}
	if query.GroupID != "" {
		args = append(args, query.GroupID)
		conds = append(conds, fmt.Sprintf("record IN (SELECT record FROM %s WHERE group_id = %s)",
			s.quote(s.groupTable), s.placeholder(len(args))))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY record, event_id, instance, field")
	return b.String(), args
}

func (s *Store) upsertStatement() string {
	marks := make([]string, 6)
	for i := range marks {
		marks[i] = s.placeholder(i + 1)
	}
	return fmt.Sprintf(`INSERT INTO %s (record, event_id, form, instance, field, value) VALUES (%s)
ON CONFLICT (record, event_id, instance, field) DO UPDATE SET form = excluded.form, value = excluded.value`,
		s.quote(s.table), strings.Join(marks, ", "))
}

func (s *Store) placeholder(n int) string {
	if s.dialect == DialectSQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// quote uses postgres identifier quoting, which SQLite accepts too.
func (s *Store) quote(name string) string {
	return pq.QuoteIdentifier(name)
}

func toAny(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
