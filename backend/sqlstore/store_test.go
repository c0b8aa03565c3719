package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/mevoq/site/backend"
)

type testimonialRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Role    string `db:"role"`
	Company string `db:"company"`
	Content string `db:"content"`
	Rating  int    `db:"rating"`
}

type postRow struct {
	ID            string     `db:"id"`
	Title         string     `db:"title"`
	Slug          string     `db:"slug"`
	Excerpt       string     `db:"excerpt"`
	Content       string     `db:"content"`
	Author        string     `db:"author"`
	AuthorRole    string     `db:"author_role"`
	FeaturedImage string     `db:"featured_image"`
	Category      string     `db:"category"`
	Tags          string     `db:"tags"`
	Published     bool       `db:"published"`
	PublishedAt   *time.Time `db:"published_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newPost(id, slug string, created time.Time) postRow {
	return postRow{
		ID:        id,
		Title:     "Title " + id,
		Slug:      slug,
		Category:  "general",
		Tags:      `["fda"]`,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestOpenMigrates(t *testing.T) {
	s := setupTestStore(t)

	var rows []testimonialRow
	if err := s.Select(context.Background(), backend.From(backend.Testimonials), &rows); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty collection, got %d rows", len(rows))
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s.Close()

	s, err = Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s.Close()
}

func TestInsertAndSelectOrdered(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, r := range []testimonialRow{
		{ID: "1", Name: "Alice", Rating: 5},
		{ID: "2", Name: "Bob", Rating: 4},
		{ID: "3", Name: "Carol", Rating: 5},
	} {
		if err := s.Insert(ctx, backend.Testimonials, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.ID, err)
		}
	}

	var rows []testimonialRow
	q := backend.From(backend.Testimonials).Eq("rating", 5).Order("name", true)
	if err := s.Select(ctx, q, &rows); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Carol" || rows[1].Name != "Alice" {
		t.Fatalf("rows = %+v, want Carol then Alice", rows)
	}

	rows = nil
	if err := s.Select(ctx, backend.From(backend.Testimonials).Order("id", false).Take(1), &rows); err != nil {
		t.Fatalf("Select with limit failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "1" {
		t.Fatalf("rows = %+v, want only id 1", rows)
	}
}

func TestGetNotFound(t *testing.T) {
	s := setupTestStore(t)

	var row postRow
	err := s.Get(context.Background(), backend.From(backend.BlogPosts).Eq("slug", "missing"), &row)
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostRoundTripKeepsTimes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	draft := newPost("p1", "draft", created)
	published := newPost("p2", "live", created.Add(time.Hour))
	published.Published = true
	at := created.Add(2 * time.Hour)
	published.PublishedAt = &at

	for _, p := range []postRow{draft, published} {
		if err := s.Insert(ctx, backend.BlogPosts, p); err != nil {
			t.Fatalf("Insert %s failed: %v", p.ID, err)
		}
	}

	var got postRow
	if err := s.Get(ctx, backend.From(backend.BlogPosts).Eq("slug", "live").Eq("published", true), &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(at) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, at)
	}
	if !got.CreatedAt.Equal(published.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, published.CreatedAt)
	}

	got = postRow{}
	if err := s.Get(ctx, backend.From(backend.BlogPosts).Eq("id", "p1"), &got); err != nil {
		t.Fatalf("Get draft failed: %v", err)
	}
	if got.PublishedAt != nil {
		t.Errorf("draft PublishedAt = %v, want nil", got.PublishedAt)
	}
	if got.Published {
		t.Error("draft should not be published")
	}
}

func TestInsertDuplicateSlugConflicts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Insert(ctx, backend.BlogPosts, newPost("a", "same", now)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.Insert(ctx, backend.BlogPosts, newPost("b", "same", now))
	if !errors.Is(err, backend.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	p := newPost("u1", "original", created)
	if err := s.Insert(ctx, backend.BlogPosts, p); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	p.Title = "Updated Title"
	p.CreatedAt = created.Add(48 * time.Hour)
	p.UpdatedAt = created.Add(24 * time.Hour)
	if err := s.Update(ctx, backend.BlogPosts, "u1", p); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var got postRow
	if err := s.Get(ctx, backend.From(backend.BlogPosts).Eq("id", "u1"), &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated Title")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.Equal(p.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, p.UpdatedAt)
	}

	if err := s.Update(ctx, backend.BlogPosts, "missing", p); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("Update missing err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, backend.Testimonials, testimonialRow{ID: "d1", Name: "Del"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Delete(ctx, backend.Testimonials, "d1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var rows []testimonialRow
	if err := s.Select(ctx, backend.From(backend.Testimonials), &rows); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows after delete, got %d", len(rows))
	}
	if err := s.Delete(ctx, backend.Testimonials, "d1"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestRejectsUnknownNames(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	var rows []testimonialRow

	if err := s.Select(ctx, backend.From("users"), &rows); !errors.Is(err, backend.ErrUnknownCollection) {
		t.Errorf("unknown collection err = %v", err)
	}
	if err := s.Select(ctx, backend.From(backend.Testimonials).Eq("1=1; --", 1), &rows); err == nil {
		t.Error("expected error for unknown filter column")
	}
	if err := s.Select(ctx, backend.From(backend.Testimonials).Order("password", false), &rows); err == nil {
		t.Error("expected error for unknown order column")
	}
}

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name  string
		q     backend.Query
		query string
		args  int
	}{
		{
			name:  "plain",
			q:     backend.From(backend.Team),
			query: `SELECT "id", "name", "role", "bio", "expertise", "avatar_url", "linkedin_url" FROM team`,
		},
		{
			name:  "filtered ordered limited",
			q:     backend.From(backend.Testimonials).Eq("name", "x").Eq("rating", 5).Order("id", true).Take(3),
			query: `SELECT "id", "name", "role", "company", "content", "rating" FROM testimonials WHERE "name" = ? AND "rating" = ? ORDER BY "id" DESC LIMIT 3`,
			args:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildSelect(tt.q)
			if err != nil {
				t.Fatalf("buildSelect: %v", err)
			}
			if query != tt.query {
				t.Errorf("query = %q, want %q", query, tt.query)
			}
			if len(args) != tt.args {
				t.Errorf("len(args) = %d, want %d", len(args), tt.args)
			}
		})
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{db: sqlx.NewDb(db, "sqlite")}, mock
}

func TestSelectPropagatesDriverError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("disk I/O error")
	mock.ExpectQuery(`SELECT .* FROM services`).WillReturnError(boom)

	var rows []testimonialRow
	err := s.Select(context.Background(), backend.From(backend.Services), &rows)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateWithNoRowsIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE testimonials SET .* WHERE id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Update(context.Background(), backend.Testimonials, "gone", testimonialRow{Name: "x"})
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO testimonials`).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: testimonials.id (1555)"))

	err := s.Insert(context.Background(), backend.Testimonials, testimonialRow{ID: "dup"})
	if !errors.Is(err, backend.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}
