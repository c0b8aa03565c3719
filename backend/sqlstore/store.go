// Package sqlstore is the SQLite implementation of the backend contract:
// row collections, admin sessions and a filesystem object store.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mevoq/site/backend"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// columns lists, per collection, every column a query may select, filter
// or sort on. Anything else is rejected before it reaches SQL.
var columns = map[backend.Collection][]string{
	backend.BlogPosts: {
		"id", "title", "slug", "excerpt", "content", "author", "author_role",
		"featured_image", "category", "tags", "published", "published_at",
		"created_at", "updated_at",
	},
	backend.Services: {
		"id", "title", "description", "icon", "features", "case_study_snippet", "created_at",
	},
	backend.Testimonials: {"id", "name", "role", "company", "content", "rating"},
	backend.Team:         {"id", "name", "role", "bio", "expertise", "avatar_url", "linkedin_url"},
	backend.Contacts: {
		"id", "name", "email", "company", "phone", "message", "lead_type", "timestamp",
	},
}

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// immutable columns are written on insert and never on update.
var immutable = []string{"id", "created_at"}

// Store implements backend.Store on a SQLite database.
type Store struct {
	db *sqlx.DB
}

var _ backend.Store = (*Store)(nil)

// Open opens (or creates) the SQLite database at path, ensures the data
// directory exists and applies pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	if err := migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// dsn sets per-connection pragmas. WAL lets readers run alongside the
// writer; busy_timeout makes writers wait instead of failing with SQLITE_BUSY.
func dsn(path string) string {
	return "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_time_format=sqlite"
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("sqlstore: goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Select(ctx context.Context, q backend.Query, dest any) error {
	query, args, err := buildSelect(q)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, query, args...)
}

// Get scans the single matching row into dest. It returns backend.ErrNotFound
// when nothing matches and backend.ErrConflict when more than one row does.
func (s *Store) Get(ctx context.Context, q backend.Query, dest any) error {
	query, args, err := buildSelect(q.Take(2))
	if err != nil {
		return err
	}
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
		if n > 1 {
			return fmt.Errorf("%w: %s matched more than one row", backend.ErrConflict, q.Collection)
		}
		if err := rows.StructScan(dest); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, c backend.Collection, row any) error {
	cols, err := columnsOf(c)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		c, quoteAll(cols), strings.Join(cols, ", :"))
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, c backend.Collection, id string, row any) error {
	cols, err := columnsOf(c)
	if err != nil {
		return err
	}
	set := make([]string, 0, len(cols))
	for _, col := range cols {
		if slices.Contains(immutable, col) {
			continue
		}
		set = append(set, quote(col)+" = :"+col)
	}
	query, args, err := sqlx.Named(fmt.Sprintf("UPDATE %s SET %s", c, strings.Join(set, ", ")), row)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query + " WHERE id = ?")
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapErr(err)
	}
	return expectOne(res)
}

func (s *Store) Delete(ctx context.Context, c backend.Collection, id string) error {
	if _, err := columnsOf(c); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", c), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func columnsOf(c backend.Collection) ([]string, error) {
	cols, ok := columns[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", backend.ErrUnknownCollection, c)
	}
	return cols, nil
}

func buildSelect(q backend.Query) (string, []any, error) {
	cols, err := columnsOf(q.Collection)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", quoteAll(cols), q.Collection)

	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		if !slices.Contains(cols, f.Column) {
			return "", nil, fmt.Errorf("sqlstore: unknown column %q in %s", f.Column, q.Collection)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(quote(f.Column) + " = ?")
		args = append(args, f.Value)
	}
	if q.OrderBy != "" {
		if !slices.Contains(cols, q.OrderBy) {
			return "", nil, fmt.Errorf("sqlstore: unknown column %q in %s", q.OrderBy, q.Collection)
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", quote(q.OrderBy), dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args, nil
}

func quote(col string) string {
	return `"` + col + `"`
}

func quoteAll(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quote(c)
	}
	return strings.Join(out, ", ")
}

// mapErr turns SQLite constraint failures into backend.ErrConflict.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
		return fmt.Errorf("%w: %v", backend.ErrConflict, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return backend.ErrNotFound
	}
	return err
}
