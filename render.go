package site

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/mevoq/site/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page collects what every view needs. It consumes pending flashes, so
// call it once per response and before anything is written.
func (a *App) page(c echo.Context, meta views.PageMeta) views.Page {
	if meta.Path == "" {
		meta.Path = c.Request().URL.Path
	}
	return views.Page{
		Site:    a.siteInfo(),
		Meta:    meta,
		CSRF:    CsrfToken(c),
		Flashes: takeFlashes(c),
	}
}

func (a *App) siteInfo() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

// isFragment reports whether the request asks for a page fragment
// rather than the full document.
func isFragment(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
