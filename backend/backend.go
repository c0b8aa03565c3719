// Package backend defines the contract the site uses to talk to its hosted
// data, auth and storage service. Rows are addressed by collection and id,
// files by bucket and name, sessions by the browser client that owns them.
package backend

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound           = errors.New("backend: not found")
	ErrConflict           = errors.New("backend: conflict")
	ErrInvalidCredentials = errors.New("backend: invalid credentials")
	ErrUnknownCollection  = errors.New("backend: unknown collection")
	ErrInvalidName        = errors.New("backend: invalid object name")
)

// Collection names a table of records.
type Collection string

const (
	BlogPosts    Collection = "blog_posts"
	Services     Collection = "services"
	Testimonials Collection = "testimonials"
	Team         Collection = "team"
	Contacts     Collection = "contacts"
)

// Filter is an equality predicate on one column.
type Filter struct {
	Column string
	Value  any
}

// Query selects rows of a collection. The zero OrderBy keeps backend order.
type Query struct {
	Collection Collection
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
}

// From starts a query over c.
func From(c Collection) Query {
	return Query{Collection: c}
}

// Eq adds an equality filter.
func (q Query) Eq(column string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Column: column, Value: value})
	return q
}

// Order sets the sort column and direction.
func (q Query) Order(column string, desc bool) Query {
	q.OrderBy = column
	q.Desc = desc
	return q
}

// Take limits the number of rows returned.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Store is the row API. dest for Select is a pointer to a slice of structs,
// for Get a pointer to a struct; struct fields are matched by `db` tag.
type Store interface {
	Select(ctx context.Context, q Query, dest any) error
	// Get returns ErrNotFound unless exactly one row matches.
	Get(ctx context.Context, q Query, dest any) error
	Insert(ctx context.Context, c Collection, row any) error
	// Update overwrites every column but id and created_at.
	Update(ctx context.Context, c Collection, id string, row any) error
	Delete(ctx context.Context, c Collection, id string) error
}

// Storage is the object store for uploaded files.
type Storage interface {
	Upload(ctx context.Context, bucket, name string, r io.Reader, contentType string) error
	PublicURL(bucket, name string) string
}

// Session is an authenticated admin session.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// AuthEvent is a session change notification.
type AuthEvent uint8

const (
	SignedIn AuthEvent = iota + 1
	SignedOut
	TokenRefreshed
)

func (e AuthEvent) String() string {
	switch e {
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	case TokenRefreshed:
		return "TOKEN_REFRESHED"
	default:
		return "UNKNOWN"
	}
}

// AuthListener receives session changes. s is nil after SignedOut.
type AuthListener func(event AuthEvent, s *Session)

// Auth manages admin sessions. Every call is scoped to a client id that
// identifies one browser.
type Auth interface {
	SignInWithPassword(ctx context.Context, client, email, password string) (Session, error)
	// GetSession returns nil without error when the client has no live session.
	GetSession(ctx context.Context, client string) (*Session, error)
	RefreshSession(ctx context.Context, client string) (Session, error)
	SignOut(ctx context.Context, client string) error
	// OnAuthStateChange registers fn for the client's session changes and
	// returns the function that removes it.
	OnAuthStateChange(client string, fn AuthListener) (unsubscribe func())
}
