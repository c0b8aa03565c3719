package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const keepAlive = 25 * time.Second

// Events streams the browser's gate state as server-sent events named
// "auth". Pages use it to move between /login and /admin without a reload.
func Events(cfg Config) echo.HandlerFunc {
	cfg.setDefaults()
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		w := c.Response()
		w.Header().Set(echo.HeaderContentType, "text/event-stream")
		w.Header().Set(echo.HeaderCacheControl, "no-store")
		w.Header().Set(echo.HeaderConnection, "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		g := NewGate(Bind(cfg.Auth, cfg.ClientID(c)), WithLogger(cfg.Logger))
		defer g.Close()

		last := g.State()
		if err := writeState(w, last); err != nil {
			return nil
		}
		if st := g.Start(ctx); st != last {
			last = st
			if err := writeState(w, last); err != nil {
				return nil
			}
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-g.Updates():
				if !ok {
					return nil
				}
				if st := g.State(); st != last {
					last = st
					if err := writeState(w, last); err != nil {
						return nil
					}
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return nil
				}
				w.Flush()
			}
		}
	}
}

func writeState(w *echo.Response, st State) error {
	if _, err := fmt.Fprintf(w, "event: auth\ndata: %s\n\n", st); err != nil {
		return err
	}
	w.Flush()
	return nil
}
