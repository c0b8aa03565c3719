package auth

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mevoq/site/backend/sqlstore"
)

const testClient = "client-1"

func newTestAuth(t *testing.T, ttl time.Duration) *sqlstore.Auth {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	a := sqlstore.NewAuth(store, ttl)
	require.NoError(t, a.CreateUser(context.Background(), "admin@mevoq.com", "pw-123456"))
	return a
}

func newGuardedServer(a *sqlstore.Auth, refreshWithin time.Duration) *echo.Echo {
	e := echo.New()
	cfg := Config{
		Auth:          a,
		ClientID:      func(c echo.Context) string { return c.Request().Header.Get("X-Client") },
		RefreshWithin: refreshWithin,
	}
	e.GET("/admin", func(c echo.Context) error {
		return c.String(http.StatusOK, "hello "+SessionFrom(c).Email+" "+SessionFrom(c).AccessToken)
	}, Require(cfg))
	e.GET("/auth/events", Events(cfg))
	return e
}

func TestRequireRedirectsWithoutSession(t *testing.T) {
	e := newGuardedServer(newTestAuth(t, time.Hour), time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Client", testClient)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "requests without a client id are unauthenticated")

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Client", testClient)
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
}

func TestRequireAdmitsSignedInClient(t *testing.T) {
	a := newTestAuth(t, time.Hour)
	e := newGuardedServer(a, time.Minute)
	s, err := a.SignInWithPassword(context.Background(), testClient, "admin@mevoq.com", "pw-123456")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Client", testClient)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello admin@mevoq.com "+s.AccessToken, rec.Body.String())
	assert.Zero(t, a.Listeners(testClient), "per-request gate must release its subscription")

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Client", "someone-else")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRequireRefreshesExpiringSession(t *testing.T) {
	a := newTestAuth(t, 2*time.Minute)
	e := newGuardedServer(a, 5*time.Minute)
	s, err := a.SignInWithPassword(context.Background(), testClient, "admin@mevoq.com", "pw-123456")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Client", testClient)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), s.AccessToken)
}

func TestGateSeesSignInWithoutReload(t *testing.T) {
	a := newTestAuth(t, time.Hour)
	g := NewGate(Bind(a, testClient))
	defer g.Close()

	require.Equal(t, Unauthenticated, g.Start(context.Background()))
	_, err := a.SignInWithPassword(context.Background(), testClient, "admin@mevoq.com", "pw-123456")
	require.NoError(t, err)
	assert.Equal(t, Authenticated, g.State())

	require.NoError(t, a.SignOut(context.Background(), testClient))
	assert.Equal(t, Unauthenticated, g.State())
}

func TestEventsStreamsTransitions(t *testing.T) {
	a := newTestAuth(t, time.Hour)
	srv := httptest.NewServer(newGuardedServer(a, time.Minute))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/auth/events", nil)
	require.NoError(t, err)
	req.Header.Set("X-Client", testClient)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	assert.Equal(t, "checking", nextState(t, r))
	assert.Equal(t, "unauthenticated", nextState(t, r))

	_, err = a.SignInWithPassword(context.Background(), testClient, "admin@mevoq.com", "pw-123456")
	require.NoError(t, err)
	assert.Equal(t, "authenticated", nextState(t, r))

	require.NoError(t, a.SignOut(context.Background(), testClient))
	assert.Equal(t, "unauthenticated", nextState(t, r))
}

func nextState(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
			return data
		}
	}
}
