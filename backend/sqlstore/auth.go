package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mevoq/site/backend"
)

// Auth implements backend.Auth with bcrypt password hashes and one session
// row per browser client. Listeners live in memory.
type Auth struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]backend.AuthListener
}

var _ backend.Auth = (*Auth)(nil)

// NewAuth returns an Auth whose sessions live for ttl.
func NewAuth(s *Store, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Auth{
		store:     s,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
		listeners: make(map[string]map[int]backend.AuthListener),
	}
}

type sessionRow struct {
	ClientID    string    `db:"client_id"`
	UserID      string    `db:"user_id"`
	Email       string    `db:"email"`
	AccessToken string    `db:"access_token"`
	ExpiresAt   time.Time `db:"expires_at"`
}

func (r sessionRow) session() backend.Session {
	return backend.Session{
		UserID:      r.UserID,
		Email:       r.Email,
		AccessToken: r.AccessToken,
		ExpiresAt:   r.ExpiresAt,
	}
}

// CreateUser registers an admin account. Emails are case-insensitive.
func (a *Auth) CreateUser(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("sqlstore: email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = a.store.db.ExecContext(ctx,
		`INSERT INTO auth_users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), email, string(hash), a.now())
	return mapErr(err)
}

func (a *Auth) SignInWithPassword(ctx context.Context, client, email, password string) (backend.Session, error) {
	var user struct {
		ID           string `db:"id"`
		Email        string `db:"email"`
		PasswordHash string `db:"password_hash"`
	}
	err := a.store.db.GetContext(ctx, &user,
		`SELECT id, email, password_hash FROM auth_users WHERE email = ?`, normalizeEmail(email))
	if err != nil {
		if errors.Is(mapErr(err), backend.ErrNotFound) {
			return backend.Session{}, backend.ErrInvalidCredentials
		}
		return backend.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return backend.Session{}, backend.ErrInvalidCredentials
	}

	row := sessionRow{
		ClientID:    client,
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: uuid.NewString(),
		ExpiresAt:   a.now().Add(a.ttl),
	}
	_, err = a.store.db.NamedExecContext(ctx, `
INSERT INTO auth_sessions (client_id, user_id, access_token, expires_at)
VALUES (:client_id, :user_id, :access_token, :expires_at)
ON CONFLICT (client_id) DO UPDATE SET
    user_id = excluded.user_id,
    access_token = excluded.access_token,
    expires_at = excluded.expires_at`, row)
	if err != nil {
		return backend.Session{}, err
	}
	s := row.session()
	a.notify(client, backend.SignedIn, &s)
	return s, nil
}

func (a *Auth) GetSession(ctx context.Context, client string) (*backend.Session, error) {
	row, err := a.lookup(ctx, client)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s := row.session()
	if s.Expired(a.now()) {
		res, err := a.store.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE client_id = ?`, client)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			a.notify(client, backend.SignedOut, nil)
		}
		return nil, nil
	}
	return &s, nil
}

// RefreshSession issues a new token and extends the expiry of a live session.
func (a *Auth) RefreshSession(ctx context.Context, client string) (backend.Session, error) {
	current, err := a.GetSession(ctx, client)
	if err != nil {
		return backend.Session{}, err
	}
	if current == nil {
		return backend.Session{}, backend.ErrNotFound
	}
	s := *current
	s.AccessToken = uuid.NewString()
	s.ExpiresAt = a.now().Add(a.ttl)
	res, err := a.store.db.ExecContext(ctx,
		`UPDATE auth_sessions SET access_token = ?, expires_at = ? WHERE client_id = ?`,
		s.AccessToken, s.ExpiresAt, client)
	if err != nil {
		return backend.Session{}, err
	}
	if err := expectOne(res); err != nil {
		return backend.Session{}, err
	}
	a.notify(client, backend.TokenRefreshed, &s)
	return s, nil
}

func (a *Auth) SignOut(ctx context.Context, client string) error {
	if _, err := a.store.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE client_id = ?`, client); err != nil {
		return err
	}
	a.notify(client, backend.SignedOut, nil)
	return nil
}

func (a *Auth) OnAuthStateChange(client string, fn backend.AuthListener) func() {
	a.mu.Lock()
	a.nextID++
	id := a.nextID
	if a.listeners[client] == nil {
		a.listeners[client] = make(map[int]backend.AuthListener)
	}
	a.listeners[client][id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners[client], id)
			if len(a.listeners[client]) == 0 {
				delete(a.listeners, client)
			}
			a.mu.Unlock()
		})
	}
}

// Listeners reports how many listeners are registered for client.
func (a *Auth) Listeners(client string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.listeners[client])
}

// notify runs listeners outside the lock so they may unsubscribe.
func (a *Auth) notify(client string, event backend.AuthEvent, s *backend.Session) {
	a.mu.Lock()
	fns := make([]backend.AuthListener, 0, len(a.listeners[client]))
	for _, fn := range a.listeners[client] {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(event, s)
	}
}

func (a *Auth) lookup(ctx context.Context, client string) (sessionRow, error) {
	var row sessionRow
	err := a.store.db.GetContext(ctx, &row, `
SELECT s.client_id, s.user_id, u.email, s.access_token, s.expires_at
FROM auth_sessions s JOIN auth_users u ON u.id = s.user_id
WHERE s.client_id = ?`, client)
	if err != nil {
		return sessionRow{}, mapErr(err)
	}
	return row, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
