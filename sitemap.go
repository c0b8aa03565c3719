package site

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mevoq/site/content"
	"github.com/mevoq/site/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// staticPages are listed in the sitemap ahead of services and posts.
var staticPages = []string{"about", "services", "blog", "contact"}

func (a *App) renderSitemap(c echo.Context, services []content.Service, posts []content.BlogPost) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: views.BuildURL(base)},
	}
	for _, p := range staticPages {
		urls = append(urls, sitemapURL{Loc: views.BuildURL(base, p)})
	}
	for _, s := range services {
		urls = append(urls, sitemapURL{Loc: views.BuildURL(base, "services", s.ID)})
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     views.BuildURL(base, "blog", p.Slug),
			LastMod: p.UpdatedAt.Format("2006-01-02"),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
