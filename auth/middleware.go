package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mevoq/site/backend"
)

const sessionKey = "auth.session"

// Config wires the gate into HTTP handlers.
type Config struct {
	Auth backend.Auth
	// ClientID identifies the browser making the request.
	ClientID func(echo.Context) string
	// LoginPath is where unauthenticated requests are sent.
	LoginPath string
	// RefreshWithin refreshes sessions expiring sooner than this.
	RefreshWithin time.Duration
	Logger        *zap.SugaredLogger
}

func (c *Config) setDefaults() {
	if c.LoginPath == "" {
		c.LoginPath = "/login"
	}
	if c.RefreshWithin == 0 {
		c.RefreshWithin = 10 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
}

// Require lets a request through only when its browser is Authenticated.
// Other requests are redirected to the login page.
func Require(cfg Config) echo.MiddlewareFunc {
	cfg.setDefaults()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			client := cfg.ClientID(c)
			if client == "" {
				return RedirectToLogin(c, cfg.LoginPath)
			}

			g := NewGate(Bind(cfg.Auth, client), WithLogger(cfg.Logger))
			defer g.Close()
			if g.Start(ctx) != Authenticated {
				return RedirectToLogin(c, cfg.LoginPath)
			}

			s := g.Session()
			if time.Until(s.ExpiresAt) < cfg.RefreshWithin {
				refreshed, err := cfg.Auth.RefreshSession(ctx, client)
				if err != nil {
					cfg.Logger.Warnw("session refresh failed", "err", err)
				} else {
					s = &refreshed
				}
			}
			c.Set(sessionKey, s)
			return next(c)
		}
	}
}

// SessionFrom returns the session Require stored on c.
func SessionFrom(c echo.Context) *backend.Session {
	s, _ := c.Get(sessionKey).(*backend.Session)
	return s
}

// RedirectToLogin sends the browser to path. Fetch requests made by htmx get
// an HX-Redirect header instead of a 303 they would follow silently.
func RedirectToLogin(c echo.Context, path string) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", path)
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, path)
}
